package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultSessionMaxTurns        = 50
	DefaultSessionIdleTTL         = 2 * time.Hour
	DefaultSessionCleanupInterval = 10 * time.Minute
	DefaultLLMTimeout             = 20 * time.Second

	// Per-order figures used when the order itself does not carry them.
	DefaultOrderAmount  = 40.0
	DefaultOrderExpense = 8.0
	DefaultLatePenalty  = 10.0

	DefaultRateLimitRPS   = 10.0
	DefaultRateLimitBurst = 20
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where gigvoice stores its orders
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// LogLevel is one of debug, info, warn, error
	LogLevel string

	// AI Configuration
	AIEnabled     bool          // GIGVOICE_AI_ENABLED
	AILLMProvider string        // GIGVOICE_AI_LLM_PROVIDER (default: openai)
	AILLMModel    string        // GIGVOICE_AI_LLM_MODEL (default: gpt-4o-mini)
	AIAPIKey      string        // GIGVOICE_AI_API_KEY
	AIBaseURL     string        // GIGVOICE_AI_BASE_URL
	AILLMTimeout  time.Duration // GIGVOICE_AI_LLM_TIMEOUT (default: 20s)

	// Session Configuration
	SessionBackend         string        // memory or cache
	SessionMaxTurns        int           // per-user history bound
	SessionIdleTTL         time.Duration // idle sessions older than this are reaped
	SessionCleanupInterval time.Duration

	// Business figures for the metric replies
	OrderAmount  float64
	OrderExpense float64
	LatePenalty  float64

	// Rate limiting per user (or client IP)
	RateLimitRPS   float64
	RateLimitBurst int
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI is enabled and the provider can be reached.
// Ollama needs no API key, only a base URL.
func (p *Profile) IsAIEnabled() bool {
	if !p.AIEnabled {
		return false
	}
	if p.AILLMProvider == "ollama" {
		return p.AIBaseURL != ""
	}
	return p.AIAPIKey != ""
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

// applyDefaults fills zero values with the package defaults.
func (p *Profile) applyDefaults() {
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.AILLMProvider == "" {
		p.AILLMProvider = "openai"
	}
	if p.AILLMTimeout <= 0 {
		p.AILLMTimeout = DefaultLLMTimeout
	}
	if p.SessionBackend == "" {
		p.SessionBackend = "memory"
	}
	if p.SessionMaxTurns <= 0 {
		p.SessionMaxTurns = DefaultSessionMaxTurns
	}
	if p.SessionIdleTTL <= 0 {
		p.SessionIdleTTL = DefaultSessionIdleTTL
	}
	if p.SessionCleanupInterval <= 0 {
		p.SessionCleanupInterval = DefaultSessionCleanupInterval
	}
	if p.OrderAmount <= 0 {
		p.OrderAmount = DefaultOrderAmount
	}
	if p.OrderExpense <= 0 {
		p.OrderExpense = DefaultOrderExpense
	}
	if p.LatePenalty <= 0 {
		p.LatePenalty = DefaultLatePenalty
	}
	if p.RateLimitRPS <= 0 {
		p.RateLimitRPS = DefaultRateLimitRPS
	}
	if p.RateLimitBurst <= 0 {
		p.RateLimitBurst = DefaultRateLimitBurst
	}
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	p.applyDefaults()

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q: only sqlite and postgres are supported", p.Driver)
	}
	if p.SessionBackend != "memory" && p.SessionBackend != "cache" {
		return errors.Errorf("unsupported session backend %q", p.SessionBackend)
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "gigvoice")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/gigvoice"
		}
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("gigvoice_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for the postgres driver")
	}

	return nil
}
