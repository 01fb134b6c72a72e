// Package notify posts run reports to a Telegram chat. Notifications are
// optional: the pipeline runs identically without a configured bot.
package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jonathan/job-pipeline/internal/types"
	"github.com/jonathan/job-pipeline/internal/workflow"
)

// Notifier sends messages to one chat.
type Notifier struct {
	chatID int64
	send   func(c tgbotapi.Chattable) (tgbotapi.Message, error) // swapped by tests
}

// New authenticates the bot against the Telegram API.
func New(token string, chatID int64) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connecting telegram bot: %w", err)
	}
	return &Notifier{chatID: chatID, send: bot.Send}, nil
}

// SendRunSummary posts the end-of-run report.
func (n *Notifier) SendRunSummary(sum *workflow.Summary) error {
	msg := tgbotapi.NewMessage(n.chatID, summaryText(sum))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := n.send(msg)
	if err != nil {
		return fmt.Errorf("sending run summary: %w", err)
	}
	return nil
}

// SendRunFailure posts the error that halted a run.
func (n *Notifier) SendRunFailure(sum *workflow.Summary, runErr error) error {
	text := fmt.Sprintf("⚠️ <b>Pipeline run halted</b>\n%s\n\n%s",
		html.EscapeString(runErr.Error()), summaryText(sum))
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := n.send(msg)
	if err != nil {
		return fmt.Errorf("sending failure report: %w", err)
	}
	return nil
}

func summaryText(sum *workflow.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🤖 <b>Job pipeline run</b> <code>%s</code>\n", sum.RunID)
	fmt.Fprintf(&b, "Stages %s through %s in %s\n",
		sum.StartStage, sum.EndStage, sum.Elapsed.Round(time.Second))

	if sum.Discovered > 0 || sum.Duplicates > 0 {
		fmt.Fprintf(&b, "🔍 %d new jobs, %d duplicates skipped\n",
			sum.Discovered, sum.Duplicates)
	}
	fmt.Fprintf(&b, "⚙️ %d records processed, %d gate transitions\n",
		sum.TotalProcessed(), sum.TotalTransitions())

	b.WriteString("\n<b>Statuses</b>\n")
	for _, status := range types.AllStatuses() {
		if count := sum.StatusCounts[status]; count > 0 {
			fmt.Fprintf(&b, "%s: %d\n", status, count)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
