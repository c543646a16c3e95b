package config

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"slices"
	"strconv"
	"strings"
)

// Config represents the glean configuration.
type Config struct {
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Format    string `json:"format"`
	RulesFile string `json:"rulesFile,omitempty"`

	// SizeBudget is the character budget per prompt. When zero the budget is
	// derived from ContextWindow, ResponseReserve and CharsPerToken.
	SizeBudget      int `json:"sizeBudget,omitempty"`
	ContextWindow   int `json:"contextWindow,omitempty"`
	ResponseReserve int `json:"responseReserve,omitempty"`
	CharsPerToken   int `json:"charsPerToken,omitempty"`
	SummaryReserve  int `json:"summaryReserve"`

	Concurrency int     `json:"concurrency"`
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`

	Include      []string `json:"include"`
	Exclude      []string `json:"exclude"`
	MaxFileBytes int64    `json:"maxFileBytes"`
	GitTracked   bool     `json:"gitTracked,omitempty"`

	Prompts PromptsConfig `json:"prompts"`
	Cache   CacheConfig   `json:"cache"`
	Privacy PrivacyConfig `json:"privacy"`
	Limits  LimitsConfig  `json:"limits"`
	Log     LogConfig     `json:"log"`
}

// PromptsConfig points at files and strings that replace the built-in prompts.
type PromptsConfig struct {
	PurposeFile   string `json:"purposeFile,omitempty"`
	ErrorsFile    string `json:"errorsFile,omitempty"`
	StyleFile     string `json:"styleFile,omitempty"`
	PurposeSystem string `json:"purposeSystem,omitempty"`
	ReviewSystem  string `json:"reviewSystem,omitempty"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled       bool   `json:"enabled"`
	Dir           string `json:"dir,omitempty"`
	TTLSeconds    int    `json:"ttlSeconds"`
	MemoryEntries int    `json:"memoryEntries"`
}

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool     `json:"redactSecrets"`
	RedactPaths   []string `json:"redactPaths,omitempty"`
}

// LimitsConfig controls how hard glean drives a provider.
type LimitsConfig struct {
	RequestsPerSecond   float64 `json:"requestsPerSecond"`
	Burst               int     `json:"burst"`
	MaxRetries          int     `json:"maxRetries"`
	BreakerFailureRatio float64 `json:"breakerFailureRatio"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Formats accepted for report output.
var Formats = []string{"text", "json", "markdown"}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:       "anthropic",
		Model:          "claude-sonnet-4-5",
		Format:         "text",
		SizeBudget:     6000,
		CharsPerToken:  4,
		SummaryReserve: 400,
		Concurrency:    4,
		MaxTokens:      4096,
		Temperature:    0,
		Include:        []string{".py"},
		Exclude:        []string{".git", "__pycache__", ".venv", "venv", "node_modules"},
		MaxFileBytes:   1 << 20,
		Cache: CacheConfig{
			Enabled:       false,
			TTLSeconds:    86400,
			MemoryEntries: 512,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
		Limits: LimitsConfig{
			RequestsPerSecond:   0,
			Burst:               1,
			MaxRetries:          3,
			BreakerFailureRatio: 0.6,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for glean.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "glean"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "glean"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "glean"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "glean"), nil
	default:
		return filepath.Join(home, ".config", "glean"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile loads config from the config file. Returns zero Config and nil error if file doesn't exist.
// Booleans the file does not mention take their default values.
func LoadFile() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	var set fileBools
	if err := json.Unmarshal(data, &set); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	set.resolve(&cfg)
	return cfg, nil
}

// fileBools records which boolean keys a config file states explicitly.
type fileBools struct {
	GitTracked *bool `json:"gitTracked"`

	Cache struct {
		Enabled *bool `json:"enabled"`
	} `json:"cache"`

	Privacy struct {
		RedactSecrets *bool `json:"redactSecrets"`
	} `json:"privacy"`
}

// resolve gives every boolean the file leaves out its default value.
func (b fileBools) resolve(cfg *Config) {
	def := Default()
	if b.GitTracked == nil {
		cfg.GitTracked = def.GitTracked
	}
	if b.Cache.Enabled == nil {
		cfg.Cache.Enabled = def.Cache.Enabled
	}
	if b.Privacy.RedactSecrets == nil {
		cfg.Privacy.RedactSecrets = def.Privacy.RedactSecrets
	}
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	fileCfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg)
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	if c.SizeBudget < 0 {
		return fmt.Errorf("sizeBudget must not be negative, got %d", c.SizeBudget)
	}
	if c.SizeBudget == 0 && c.ContextWindow <= 0 {
		return fmt.Errorf("either sizeBudget or contextWindow must be positive")
	}
	if c.ContextWindow > 0 && c.ContextWindow <= c.ResponseReserve {
		return fmt.Errorf("contextWindow (%d) must exceed responseReserve (%d)", c.ContextWindow, c.ResponseReserve)
	}
	if c.SummaryReserve < 0 {
		return fmt.Errorf("summaryReserve must not be negative, got %d", c.SummaryReserve)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", c.Temperature)
	}
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("unknown format %q (valid: %s)", c.Format, strings.Join(Formats, ", "))
	}
	return nil
}

func mergeFile(dst *Config, src Config) {
	// An absent or empty file leaves the defaults alone, booleans included.
	if reflect.ValueOf(src).IsZero() {
		return
	}
	if src.Provider != "" {
		dst.Provider = src.Provider
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.Format != "" {
		dst.Format = src.Format
	}
	if src.RulesFile != "" {
		dst.RulesFile = src.RulesFile
	}
	if src.SizeBudget > 0 {
		dst.SizeBudget = src.SizeBudget
	}
	if src.ContextWindow > 0 {
		dst.ContextWindow = src.ContextWindow
		// A context window in the file selects derived budgeting.
		if src.SizeBudget == 0 {
			dst.SizeBudget = 0
		}
	}
	if src.ResponseReserve > 0 {
		dst.ResponseReserve = src.ResponseReserve
	}
	if src.CharsPerToken > 0 {
		dst.CharsPerToken = src.CharsPerToken
	}
	if src.SummaryReserve > 0 {
		dst.SummaryReserve = src.SummaryReserve
	}
	if src.Concurrency > 0 {
		dst.Concurrency = src.Concurrency
	}
	if src.MaxTokens > 0 {
		dst.MaxTokens = src.MaxTokens
	}
	if src.Temperature > 0 {
		dst.Temperature = src.Temperature
	}
	if len(src.Include) > 0 {
		dst.Include = src.Include
	}
	if len(src.Exclude) > 0 {
		dst.Exclude = src.Exclude
	}
	if src.MaxFileBytes > 0 {
		dst.MaxFileBytes = src.MaxFileBytes
	}
	dst.GitTracked = src.GitTracked

	if src.Prompts.PurposeFile != "" {
		dst.Prompts.PurposeFile = src.Prompts.PurposeFile
	}
	if src.Prompts.ErrorsFile != "" {
		dst.Prompts.ErrorsFile = src.Prompts.ErrorsFile
	}
	if src.Prompts.StyleFile != "" {
		dst.Prompts.StyleFile = src.Prompts.StyleFile
	}
	if src.Prompts.PurposeSystem != "" {
		dst.Prompts.PurposeSystem = src.Prompts.PurposeSystem
	}
	if src.Prompts.ReviewSystem != "" {
		dst.Prompts.ReviewSystem = src.Prompts.ReviewSystem
	}

	// LoadFile has already defaulted booleans the file leaves out.
	dst.Cache.Enabled = src.Cache.Enabled
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}
	if src.Cache.TTLSeconds > 0 {
		dst.Cache.TTLSeconds = src.Cache.TTLSeconds
	}
	if src.Cache.MemoryEntries > 0 {
		dst.Cache.MemoryEntries = src.Cache.MemoryEntries
	}
	dst.Privacy.RedactSecrets = src.Privacy.RedactSecrets
	if len(src.Privacy.RedactPaths) > 0 {
		dst.Privacy.RedactPaths = src.Privacy.RedactPaths
	}

	if src.Limits.RequestsPerSecond > 0 {
		dst.Limits.RequestsPerSecond = src.Limits.RequestsPerSecond
	}
	if src.Limits.Burst > 0 {
		dst.Limits.Burst = src.Limits.Burst
	}
	if src.Limits.MaxRetries > 0 {
		dst.Limits.MaxRetries = src.Limits.MaxRetries
	}
	if src.Limits.BreakerFailureRatio > 0 {
		dst.Limits.BreakerFailureRatio = src.Limits.BreakerFailureRatio
	}

	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
	if src.Log.Format != "" {
		dst.Log.Format = src.Log.Format
	}
}

// envKeys maps environment variables onto config keys accepted by SetField.
var envKeys = []struct {
	env string
	key string
}{
	{"GLEAN_PROVIDER", "provider"},
	{"GLEAN_MODEL", "model"},
	{"GLEAN_FORMAT", "format"},
	{"GLEAN_RULES_FILE", "rulesFile"},
	{"GLEAN_CONTEXT_WINDOW", "contextWindow"},
	{"GLEAN_SIZE_BUDGET", "sizeBudget"},
	{"GLEAN_CONCURRENCY", "concurrency"},
	{"GLEAN_MAX_TOKENS", "maxTokens"},
	{"GLEAN_TEMPERATURE", "temperature"},
	{"GLEAN_CACHE", "cache.enabled"},
	{"GLEAN_CACHE_DIR", "cache.dir"},
	{"GLEAN_REDACT_SECRETS", "privacy.redactSecrets"},
	{"GLEAN_REQUESTS_PER_SECOND", "limits.requestsPerSecond"},
	{"GLEAN_MAX_RETRIES", "limits.maxRetries"},
	{"GLEAN_LOG_LEVEL", "log.level"},
	{"GLEAN_LOG_FORMAT", "log.format"},
}

func mergeEnv(cfg *Config) error {
	for _, e := range envKeys {
		v := os.Getenv(e.env)
		if v == "" {
			continue
		}
		if err := SetField(cfg, e.key, v); err != nil {
			return fmt.Errorf("invalid %s: %w", e.env, err)
		}
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	// Sorted so that contextWindow is applied before sizeBudget.
	for _, key := range slices.Sorted(maps.Keys(overrides)) {
		v := overrides[key]
		if v == "" {
			continue
		}
		if err := SetField(cfg, key, v); err != nil {
			return fmt.Errorf("invalid --%s: %w", key, err)
		}
	}
	return nil
}

// Keys lists the keys accepted by SetField.
func Keys() []string {
	return []string{
		"provider", "model", "format", "rulesFile",
		"sizeBudget", "contextWindow", "responseReserve", "charsPerToken", "summaryReserve",
		"concurrency", "maxTokens", "temperature",
		"include", "exclude", "maxFileBytes", "gitTracked",
		"prompts.purposeFile", "prompts.errorsFile", "prompts.styleFile",
		"prompts.purposeSystem", "prompts.reviewSystem",
		"cache.enabled", "cache.dir", "cache.ttlSeconds", "cache.memoryEntries",
		"privacy.redactSecrets", "privacy.redactPaths",
		"limits.requestsPerSecond", "limits.burst", "limits.maxRetries", "limits.breakerFailureRatio",
		"log.level", "log.format",
	}
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "format":
		cfg.Format = value
	case "rulesFile":
		cfg.RulesFile = value
	case "sizeBudget":
		return setInt(&cfg.SizeBudget, key, value)
	case "contextWindow":
		if err := setInt(&cfg.ContextWindow, key, value); err != nil {
			return err
		}
		// Selecting a context window switches to derived budgeting.
		cfg.SizeBudget = 0
	case "responseReserve":
		return setInt(&cfg.ResponseReserve, key, value)
	case "charsPerToken":
		return setInt(&cfg.CharsPerToken, key, value)
	case "summaryReserve":
		return setInt(&cfg.SummaryReserve, key, value)
	case "concurrency":
		return setInt(&cfg.Concurrency, key, value)
	case "maxTokens":
		return setInt(&cfg.MaxTokens, key, value)
	case "temperature":
		return setFloat(&cfg.Temperature, key, value)
	case "include":
		cfg.Include = splitList(value)
	case "exclude":
		cfg.Exclude = splitList(value)
	case "maxFileBytes":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		cfg.MaxFileBytes = n
	case "gitTracked":
		return setBool(&cfg.GitTracked, key, value)
	case "prompts.purposeFile":
		cfg.Prompts.PurposeFile = value
	case "prompts.errorsFile":
		cfg.Prompts.ErrorsFile = value
	case "prompts.styleFile":
		cfg.Prompts.StyleFile = value
	case "prompts.purposeSystem":
		cfg.Prompts.PurposeSystem = value
	case "prompts.reviewSystem":
		cfg.Prompts.ReviewSystem = value
	case "cache.enabled":
		return setBool(&cfg.Cache.Enabled, key, value)
	case "cache.dir":
		cfg.Cache.Dir = value
	case "cache.ttlSeconds":
		return setInt(&cfg.Cache.TTLSeconds, key, value)
	case "cache.memoryEntries":
		return setInt(&cfg.Cache.MemoryEntries, key, value)
	case "privacy.redactSecrets":
		return setBool(&cfg.Privacy.RedactSecrets, key, value)
	case "privacy.redactPaths":
		cfg.Privacy.RedactPaths = splitList(value)
	case "limits.requestsPerSecond":
		return setFloat(&cfg.Limits.RequestsPerSecond, key, value)
	case "limits.burst":
		return setInt(&cfg.Limits.Burst, key, value)
	case "limits.maxRetries":
		return setInt(&cfg.Limits.MaxRetries, key, value)
	case "limits.breakerFailureRatio":
		return setFloat(&cfg.Limits.BreakerFailureRatio, key, value)
	case "log.level":
		cfg.Log.Level = value
	case "log.format":
		cfg.Log.Format = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key, value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%s must be a number: %w", key, err)
	}
	*dst = f
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s must be true or false: %w", key, err)
	}
	*dst = b
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, s := range strings.Split(value, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
