package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/job-pipeline/internal/analysis"
	"github.com/jonathan/job-pipeline/internal/config"
	"github.com/jonathan/job-pipeline/internal/detail"
	"github.com/jonathan/job-pipeline/internal/discovery"
	"github.com/jonathan/job-pipeline/internal/fetch"
	"github.com/jonathan/job-pipeline/internal/llm"
	"github.com/jonathan/job-pipeline/internal/notify"
	"github.com/jonathan/job-pipeline/internal/observability"
	"github.com/jonathan/job-pipeline/internal/rendering"
	"github.com/jonathan/job-pipeline/internal/rescoring"
	"github.com/jonathan/job-pipeline/internal/resume"
	"github.com/jonathan/job-pipeline/internal/store"
	"github.com/jonathan/job-pipeline/internal/tailoring"
	"github.com/jonathan/job-pipeline/internal/types"
	"github.com/jonathan/job-pipeline/internal/workflow"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the job pipeline over the configured stage range",
	Long: `Runs the five pipeline stages in order: discovery -> detail -> analysis -> tailoring -> rescoring.

Each record's status decides which stages pick it up, so an interrupted run resumes from where it stopped. Configuration can be loaded from a JSON file using --config; command-line arguments override config file values.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath     string
	runQuery          string
	runLocation       string
	runBoard          string
	runPages          int
	runStartStage     string
	runEndStage       string
	runRetryDetail    bool
	runRetryAnalysis  bool
	runRetryTailoring bool
	runRetryRescoring bool
	runScoreThreshold float64
	runMaxAttempts    int
	runMaxRetailoring int
	runSaveInterval   int
	runAPIDelay       int
	runBaseResume     string
	runOutputDir      string
	runAPIKey         string
	runDatabaseURL    string
	runTelegramToken  string
	runTelegramChat   int64
	runUseBrowser     bool
	runVerbose        bool
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVarP(&runQuery, "query", "q", "", "Search keywords for the listing scrape")
	runCommand.Flags().StringVarP(&runLocation, "location", "l", "", "Search location for the listing scrape")
	runCommand.Flags().StringVar(&runBoard, "board", "", "Job board to scrape (naukri, linkedin, indeed)")
	runCommand.Flags().IntVar(&runPages, "pages", 0, "Number of listing pages to scrape")
	runCommand.Flags().StringVar(&runStartStage, "start-stage", "", "First stage to run (name or 1-5)")
	runCommand.Flags().StringVar(&runEndStage, "end-stage", "", "Last stage to run (name or 1-5)")
	runCommand.Flags().BoolVar(&runRetryDetail, "retry-detail", false, "Re-admit records stuck in detail error statuses")
	runCommand.Flags().BoolVar(&runRetryAnalysis, "retry-analysis", false, "Re-admit records stuck in analysis error statuses")
	runCommand.Flags().BoolVar(&runRetryTailoring, "retry-tailoring", false, "Re-admit records stuck in tailoring error statuses")
	runCommand.Flags().BoolVar(&runRetryRescoring, "retry-rescoring", false, "Re-admit records stuck in rescoring error statuses")
	runCommand.Flags().Float64Var(&runScoreThreshold, "score-threshold", 0, "Minimum total score a record needs to be tailored")
	runCommand.Flags().IntVar(&runMaxAttempts, "max-attempts", 0, "Generate/condense attempts per tailoring round")
	runCommand.Flags().IntVar(&runMaxRetailoring, "max-retailoring", 0, "Times a record may cycle back for re-tailoring")
	runCommand.Flags().IntVar(&runSaveInterval, "save-interval", 0, "Records between whole-table checkpoint saves")
	runCommand.Flags().IntVar(&runAPIDelay, "api-delay", 0, "Seconds between successive AI calls")
	runCommand.Flags().StringVar(&runBaseResume, "base-resume", "", "Path to the base resume HTML template")
	runCommand.Flags().StringVar(&runOutputDir, "output-dir", "", "Directory for tailored HTML and PDF files")
	runCommand.Flags().BoolVar(&runUseBrowser, "use-browser", false, "Use headless browser for script-heavy pages (requires Chrome)")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed progress information")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for the record store
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	// Telegram run reports
	runCommand.Flags().StringVar(&runTelegramToken, "telegram-token", "", "Telegram bot token (optional, defaults to TELEGRAM_BOT_TOKEN env var)")
	runCommand.Flags().Int64Var(&runTelegramChat, "telegram-chat", 0, "Telegram chat ID (optional, defaults to TELEGRAM_CHAT_ID env var)")

	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := buildRunConfig(cmd)
	if err != nil {
		return err
	}

	start, end, err := cfg.StageRange()
	if err != nil {
		return err
	}
	inRange := func(stage types.Stage) bool { return start <= stage && stage <= end }
	aiInRange := end >= types.StageAnalysis
	needsResume := inRange(types.StageAnalysis) || inRange(types.StageTailoring)

	if inRange(types.StageDiscovery) && cfg.SearchQuery == "" {
		return fmt.Errorf("--query is required when the run includes the discovery stage")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}
	if aiInRange && cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required for the AI stages")
	}

	// Bootstrap the external resources in parallel: DB pool, AI client, and
	// the base resume (raw template plus its extracted text).
	g, gctx := errgroup.WithContext(ctx)

	var st *store.Store
	g.Go(func() error {
		var cerr error
		st, cerr = store.Connect(gctx, cfg.DatabaseURL)
		if cerr != nil {
			return fmt.Errorf("connecting to database: %w", cerr)
		}
		return nil
	})

	var client llm.Client
	if aiInRange {
		g.Go(func() error {
			// Assign only on success so the cleanup nil check stays
			// meaningful for the interface value.
			cl, cerr := llm.NewClient(gctx, llm.DefaultConfig(), cfg.APIKey)
			if cerr != nil {
				return fmt.Errorf("creating AI client: %w", cerr)
			}
			client = cl
			return nil
		})
	}

	var resumeText, baseHTML string
	if needsResume {
		g.Go(func() error {
			text, lerr := resume.Load(cfg.BaseResume)
			if lerr != nil {
				return fmt.Errorf("loading base resume: %w", lerr)
			}
			raw, lerr := os.ReadFile(cfg.BaseResume)
			if lerr != nil {
				return fmt.Errorf("loading base resume: %w", lerr)
			}
			resumeText, baseHTML = text, string(raw)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if st != nil {
			st.Close()
		}
		if client != nil {
			_ = client.Close()
		}
		return err
	}
	defer st.Close()
	if client != nil {
		defer client.Close()
	}

	if inRange(types.StageTailoring) {
		if err := rendering.EnsureDir(cfg.OutputDir); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	printer := observability.NewPrinter(os.Stdout)
	stages := buildStages(cfg, start, end, client, resumeText, baseHTML, printer)

	retry := make(map[types.Stage]bool, len(types.Stages()))
	for _, stage := range types.Stages() {
		retry[stage] = cfg.RetryFlag(stage)
	}

	ctrl := workflow.NewController(st,
		workflow.NewGate(cfg.ScoreThreshold, cfg.MaxRetailoringAttempts),
		stages,
		workflow.Options{
			StartStage:   start,
			EndStage:     end,
			Retry:        retry,
			SaveInterval: cfg.SaveInterval,
			APIDelay:     cfg.APIDelay(),
			Verbose:      cfg.Verbose,
		})

	var notifier *notify.Notifier
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		n, nerr := notify.New(cfg.TelegramToken, cfg.TelegramChatID)
		if nerr != nil {
			fmt.Printf("Warning: telegram notifications disabled: %v\n", nerr)
		} else {
			notifier = n
		}
	}

	sum, runErr := ctrl.Run(ctx)
	printer.PrintRunSummary(sum)

	if notifier != nil {
		var sendErr error
		if runErr != nil {
			sendErr = notifier.SendRunFailure(sum, runErr)
		} else {
			sendErr = notifier.SendRunSummary(sum)
		}
		if sendErr != nil {
			fmt.Printf("Warning: %v\n", sendErr)
		}
	}

	if runErr != nil {
		return runErr
	}
	fmt.Printf("Done! %d records processed.\n", sum.TotalProcessed())
	return nil
}

// buildRunConfig assembles the run configuration: config file, then explicit
// flags, then defaults, then environment fallbacks, then validation.
func buildRunConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if runConfigPath != "" {
		loaded, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
		if runVerbose {
			fmt.Printf("Loaded config from: %s\n", runConfigPath)
		}
	}

	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("query") {
		cfg.SearchQuery = runQuery
	}
	if cmd.Flags().Changed("location") {
		cfg.SearchLocation = runLocation
	}
	if cmd.Flags().Changed("board") {
		cfg.JobBoard = runBoard
	}
	if cmd.Flags().Changed("pages") {
		cfg.ListingPages = runPages
	}
	if cmd.Flags().Changed("start-stage") {
		cfg.StartStage = runStartStage
	}
	if cmd.Flags().Changed("end-stage") {
		cfg.EndStage = runEndStage
	}
	if cmd.Flags().Changed("retry-detail") {
		cfg.RetryDetail = runRetryDetail
	}
	if cmd.Flags().Changed("retry-analysis") {
		cfg.RetryAnalysis = runRetryAnalysis
	}
	if cmd.Flags().Changed("retry-tailoring") {
		cfg.RetryTailoring = runRetryTailoring
	}
	if cmd.Flags().Changed("retry-rescoring") {
		cfg.RetryRescoring = runRetryRescoring
	}
	if cmd.Flags().Changed("score-threshold") {
		cfg.ScoreThreshold = runScoreThreshold
	}
	if cmd.Flags().Changed("max-attempts") {
		cfg.MaxTailoringAttempts = runMaxAttempts
	}
	if cmd.Flags().Changed("max-retailoring") {
		cfg.MaxRetailoringAttempts = runMaxRetailoring
	}
	if cmd.Flags().Changed("save-interval") {
		cfg.SaveInterval = runSaveInterval
	}
	if cmd.Flags().Changed("api-delay") {
		cfg.APIDelaySeconds = runAPIDelay
	}
	if cmd.Flags().Changed("base-resume") {
		cfg.BaseResume = runBaseResume
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir = runOutputDir
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}
	if cmd.Flags().Changed("telegram-token") {
		cfg.TelegramToken = runTelegramToken
	}
	if cmd.Flags().Changed("telegram-chat") {
		cfg.TelegramChatID = runTelegramChat
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = runUseBrowser
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}

	cfg = cfg.MergeWithDefaults(config.DefaultConfig())

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.TelegramToken == "" {
		cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if cfg.TelegramChatID == 0 {
		if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return cfg, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
			}
			cfg.TelegramChatID = id
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// buildStages wires the stage components that fall inside the run's range.
// Components outside the range are never constructed, so a discovery-only
// run needs no AI client and no base resume.
func buildStages(cfg config.Config, start, end types.Stage, client llm.Client, resumeText, baseHTML string, printer *observability.Printer) workflow.Stages {
	inRange := func(stage types.Stage) bool { return start <= stage && stage <= end }

	var stages workflow.Stages
	if inRange(types.StageDiscovery) {
		scraper := discovery.New(discovery.Options{
			Board:      fetch.Board(cfg.JobBoard),
			Query:      cfg.SearchQuery,
			Location:   cfg.SearchLocation,
			Pages:      cfg.ListingPages,
			UseBrowser: cfg.UseBrowser,
			Verbose:    cfg.Verbose,
		})
		stages.Discover = func(ctx context.Context, existing []types.Record) ([]types.Record, int, error) {
			result, err := scraper.Run(ctx, existing)
			if err != nil {
				return nil, 0, err
			}
			return result.Records, result.Duplicates, nil
		}
	}

	if inRange(types.StageDetail) {
		scraper := detail.New(detail.Options{UseBrowser: cfg.UseBrowser, Verbose: cfg.Verbose})
		stages.Detail = withBox(scraper.Scrape, cfg.Verbose, printer.PrintRecord)
	}

	if inRange(types.StageAnalysis) {
		analyzer := analysis.New(client, analysis.Options{
			ResumeText: resumeText,
			APIDelay:   cfg.APIDelay(),
		})
		stages.Analyze = withBox(analyzer.Analyze, cfg.Verbose, printer.PrintScores)
	}

	if inRange(types.StageTailoring) {
		tailorer := tailoring.New(client, tailoring.Options{
			ResumeText:  resumeText,
			BaseHTML:    baseHTML,
			OutputDir:   cfg.OutputDir,
			MaxAttempts: cfg.MaxTailoringAttempts,
			APIDelay:    cfg.APIDelay(),
			Verbose:     cfg.Verbose,
		})
		stages.Tailor = withBox(tailorer.Tailor, cfg.Verbose, printer.PrintTailoring)
	}

	if inRange(types.StageRescoring) {
		rescorer := rescoring.New(client, rescoring.Options{
			ScoreThreshold: cfg.ScoreThreshold,
			APIDelay:       cfg.APIDelay(),
		})
		stages.Rescore = withBox(rescorer.Rescore, cfg.Verbose, printer.PrintRescore)
	}

	return stages
}

// withBox wraps a stage body so verbose runs print the record box after it.
func withBox(body workflow.StageFunc, verbose bool, print func(*types.Record)) workflow.StageFunc {
	if !verbose {
		return body
	}
	return func(ctx context.Context, rec *types.Record) error {
		if err := body(ctx, rec); err != nil {
			return err
		}
		print(rec)
		return nil
	}
}
