package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gafniasaf/bookgen/internal/chapter"
	"github.com/gafniasaf/bookgen/internal/passes"
	"github.com/gafniasaf/bookgen/internal/report"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Output locations
	ReportDir string
	OutputDir string

	// Chapter anchors
	StartAnchor string
	EndAnchor   string

	// Pass options
	HeadingLabels []string
	SampleLimit   int
	SnippetLength int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes      int64
	UploadRatePerMinute int

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("BOOKGEN_API_KEY"),

		ReportDir: envOr("REPORT_DIR", "reports"),
		OutputDir: envOr("OUTPUT_DIR", "output"),

		StartAnchor: envOr("START_ANCHOR", chapter.DefaultStartAnchor),
		EndAnchor:   envOr("END_ANCHOR", chapter.DefaultEndAnchor),

		HeadingLabels: envList("HEADING_LABELS", passes.DefaultHeadingLabels),
		SampleLimit:   envInt("SAMPLE_LIMIT", report.DefaultSampleLimit),
		SnippetLength: envInt("SNIPPET_LENGTH", passes.DefaultSnippetLength),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 20),

		MaxUploadBytes:      envInt64("MAX_UPLOAD_BYTES", 104857600), // 100MB
		UploadRatePerMinute: envInt("UPLOAD_RATE_PER_MINUTE", 30),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.SampleLimit <= 0 {
		cfg.SampleLimit = report.DefaultSampleLimit
	}
	if cfg.SnippetLength <= 0 {
		cfg.SnippetLength = passes.DefaultSnippetLength
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 20
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 104857600
	}
	if cfg.UploadRatePerMinute <= 0 {
		cfg.UploadRatePerMinute = 30
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// PassOptions returns the pass parameters carried by the config.
func (c Config) PassOptions() passes.Options {
	return passes.Options{
		HeadingLabels: c.HeadingLabels,
		SampleLimit:   c.SampleLimit,
		SnippetLength: c.SnippetLength,
	}
}

// Validate checks settings every command needs.
func (c Config) Validate() error {
	if c.ReportDir == "" {
		return fmt.Errorf("REPORT_DIR is required")
	}
	if len(c.HeadingLabels) == 0 {
		return fmt.Errorf("HEADING_LABELS must name at least one label")
	}
	return nil
}

// ValidateServe checks the settings the HTTP service needs on top of
// Validate.
func (c Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("BOOKGEN_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList reads a comma-separated list, dropping empty entries.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return append([]string(nil), fallback...)
	}
	return SplitList(v)
}

// SplitList splits a comma-separated value into trimmed, non-empty items.
func SplitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
