// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/job-pipeline/internal/types"
)

// Config holds one pipeline run's settings. It is assembled once in the CLI
// layer (file, then flags, then env fallbacks), validated, and passed to the
// controller by value; nothing mutates it after that. Stage components
// receive only the fields they need, never the whole struct.
type Config struct {
	// Discovery inputs
	SearchQuery    string `json:"search_query,omitempty"`
	SearchLocation string `json:"search_location,omitempty"`
	JobBoard       string `json:"job_board,omitempty" validate:"omitempty,oneof=naukri linkedin indeed"`
	ListingPages   int    `json:"listing_pages,omitempty" validate:"gte=0,lte=20"`

	// Stage range, inclusive on both ends
	StartStage string `json:"start_stage,omitempty"`
	EndStage   string `json:"end_stage,omitempty"`

	// Per-stage retry flags: re-admit records stuck in that stage's error
	// statuses
	RetryDetail    bool `json:"retry_detail,omitempty"`
	RetryAnalysis  bool `json:"retry_analysis,omitempty"`
	RetryTailoring bool `json:"retry_tailoring,omitempty"`
	RetryRescoring bool `json:"retry_rescoring,omitempty"`

	// Tailoring thresholds and caps
	ScoreThreshold         float64 `json:"score_threshold,omitempty" validate:"gte=0,lte=4"`
	MaxTailoringAttempts   int     `json:"max_tailoring_attempts,omitempty" validate:"gte=1,lte=10"`
	MaxRetailoringAttempts int     `json:"max_retailoring_attempts,omitempty" validate:"gte=0,lte=10"`

	// Persistence and pacing
	SaveInterval    int `json:"save_interval,omitempty" validate:"gte=1,lte=100"`
	APIDelaySeconds int `json:"api_delay_seconds,omitempty" validate:"gte=0,lte=300"`

	// Paths
	BaseResume string `json:"base_resume,omitempty"`
	OutputDir  string `json:"output_dir,omitempty"`

	// External services
	APIKey         string `json:"api_key,omitempty"`
	DatabaseURL    string `json:"database_url,omitempty"`
	TelegramToken  string `json:"telegram_token,omitempty"`
	TelegramChatID int64  `json:"telegram_chat_id,omitempty"`

	// Behavior
	UseBrowser bool `json:"use_browser,omitempty"`
	Verbose    bool `json:"verbose,omitempty"`
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks field ranges via struct tags plus the cross-field rules the
// tags cannot express (stage range ordering, path existence).
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	start, end, err := c.StageRange()
	if err != nil {
		return err
	}
	if start > end {
		return fmt.Errorf("config error: start_stage %q is after end_stage %q", start, end)
	}

	if c.BaseResume != "" {
		if _, err := os.Stat(c.BaseResume); os.IsNotExist(err) {
			return fmt.Errorf("config error: base resume file not found: %s", c.BaseResume)
		}
	}

	return nil
}

// StageRange parses the configured stage bounds. Empty bounds cover the full
// pipeline.
func (c *Config) StageRange() (types.Stage, types.Stage, error) {
	start := types.StageDiscovery
	end := types.StageRescoring

	if c.StartStage != "" {
		s, err := types.ParseStage(c.StartStage)
		if err != nil {
			return 0, 0, fmt.Errorf("config error: invalid start_stage: %w", err)
		}
		start = s
	}
	if c.EndStage != "" {
		s, err := types.ParseStage(c.EndStage)
		if err != nil {
			return 0, 0, fmt.Errorf("config error: invalid end_stage: %w", err)
		}
		end = s
	}

	return start, end, nil
}

// RetryFlag reports whether error-status records of the given stage should be
// re-admitted this run.
func (c *Config) RetryFlag(stage types.Stage) bool {
	switch stage {
	case types.StageDetail:
		return c.RetryDetail
	case types.StageAnalysis:
		return c.RetryAnalysis
	case types.StageTailoring:
		return c.RetryTailoring
	case types.StageRescoring:
		return c.RetryRescoring
	default:
		return false
	}
}

// APIDelay returns the configured inter-call delay as a duration.
func (c *Config) APIDelay() time.Duration {
	return time.Duration(c.APIDelaySeconds) * time.Second
}

// DefaultConfig returns the baseline settings a run starts from before file,
// flag, and env overrides.
func DefaultConfig() Config {
	return Config{
		JobBoard:               "naukri",
		ListingPages:           1,
		ScoreThreshold:         2.5,
		MaxTailoringAttempts:   3,
		MaxRetailoringAttempts: 2,
		SaveInterval:           5,
		APIDelaySeconds:        5,
		BaseResume:             "templates/base_resume.html",
		OutputDir:              "output",
	}
}

// MergeWithDefaults returns a new Config with unset fields filled from
// defaults. Bool fields are not merged; CLI flags always win for those.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.SearchQuery == "" {
		result.SearchQuery = defaults.SearchQuery
	}
	if result.SearchLocation == "" {
		result.SearchLocation = defaults.SearchLocation
	}
	if result.JobBoard == "" {
		result.JobBoard = defaults.JobBoard
	}
	if result.StartStage == "" {
		result.StartStage = defaults.StartStage
	}
	if result.EndStage == "" {
		result.EndStage = defaults.EndStage
	}
	if result.BaseResume == "" {
		result.BaseResume = defaults.BaseResume
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.TelegramToken == "" {
		result.TelegramToken = defaults.TelegramToken
	}
	if result.TelegramChatID == 0 {
		result.TelegramChatID = defaults.TelegramChatID
	}

	if result.ListingPages == 0 {
		result.ListingPages = defaults.ListingPages
	}
	if result.ScoreThreshold == 0 {
		result.ScoreThreshold = defaults.ScoreThreshold
	}
	if result.MaxTailoringAttempts == 0 {
		result.MaxTailoringAttempts = defaults.MaxTailoringAttempts
	}
	if result.MaxRetailoringAttempts == 0 {
		result.MaxRetailoringAttempts = defaults.MaxRetailoringAttempts
	}
	if result.SaveInterval == 0 {
		result.SaveInterval = defaults.SaveInterval
	}
	if result.APIDelaySeconds == 0 {
		result.APIDelaySeconds = defaults.APIDelaySeconds
	}

	return result
}
