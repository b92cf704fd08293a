package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	Store    StoreConfig    `json:"store"`
	LLM      LLMConfig      `json:"llm"`
	Schedule ScheduleConfig `json:"schedule"`
	Crawler  CrawlerConfig  `json:"crawler"`
	Social   SocialConfig   `json:"social"`
	Server   ServerConfig   `json:"server"`
	Log      LogConfig      `json:"log"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of type names to disable entirely.
	// All tools belonging to disabled types are excluded from registration.
	// Known types: "schedule", "url", "calendar", "hooks".
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// StoreConfig selects and configures the scheduling sheet backend.
type StoreConfig struct {
	// Driver is "google" (Google Sheets) or "sqlite" (local file).
	Driver          string `json:"driver,omitempty"`
	SpreadsheetID   string `json:"spreadsheet_id,omitempty"`
	CredentialsFile string `json:"credentials_file,omitempty"`
	SheetName       string `json:"sheet_name,omitempty"`
	SQLitePath      string `json:"sqlite_path,omitempty"`
}

// LLMConfig configures the language model provider.
type LLMConfig struct {
	// Provider is "openai" or "gemini".
	Provider           string `json:"provider,omitempty"`
	APIKey             string `json:"api_key,omitempty"`
	BaseURL            string `json:"base_url,omitempty"`
	Model              string `json:"model,omitempty"`
	VisionModel        string `json:"vision_model,omitempty"`
	TranscriptionModel string `json:"transcription_model,omitempty"`
	// TranscriptionAPIKey lets a gemini setup still transcribe through OpenAI.
	TranscriptionAPIKey string `json:"transcription_api_key,omitempty"`
	TimeoutSeconds      int    `json:"timeout_seconds,omitempty"`
}

// ScheduleConfig controls how posts are laid out in the sheet.
type ScheduleConfig struct {
	// StartDate (DD/MM/YYYY) and StartWeekday seed an empty sheet.
	// Both empty means "today" in Timezone.
	StartDate    string `json:"start_date,omitempty"`
	StartWeekday string `json:"start_weekday,omitempty"`
	Timezone     string `json:"timezone,omitempty"`

	// CharCount is "auto", "formula" or "literal".
	CharCount string `json:"char_count,omitempty"`

	// OnScanUnavailable is "fresh" (restart at row 2) or "abort".
	OnScanUnavailable string `json:"on_scan_unavailable,omitempty"`
}

// CrawlerConfig configures article fetching.
type CrawlerConfig struct {
	// Mode is "http" (plain GET) or "browser" (headless Chrome).
	Mode           string `json:"mode,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
	MaxBytes       int64  `json:"max_bytes,omitempty"`
	UserAgent      string `json:"user_agent,omitempty"`
	// UseLLM asks the language model to phrase article posts.
	UseLLM bool `json:"use_llm,omitempty"`
}

// SocialConfig configures short-form video processing.
type SocialConfig struct {
	YTDLPPath      string `json:"ytdlp_path,omitempty"`
	TranscriptsDir string `json:"transcripts_dir,omitempty"`
	WorkDir        string `json:"work_dir,omitempty"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Bind string `json:"bind,omitempty"`
	Port int    `json:"port,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `json:"level,omitempty"`
	Pretty bool   `json:"pretty,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:    "sqlite",
			SheetName: "Sheet1",
		},
		LLM: LLMConfig{
			Provider:           "openai",
			Model:              "gpt-4",
			VisionModel:        "gpt-4o-mini",
			TranscriptionModel: "whisper-1",
			TimeoutSeconds:     120,
		},
		Schedule: ScheduleConfig{
			CharCount:         "auto",
			OnScanUnavailable: "fresh",
		},
		Crawler: CrawlerConfig{
			Mode:           "http",
			TimeoutSeconds: 30,
			MaxBytes:       2 << 20,
			UserAgent:      "Mozilla/5.0 (compatible; tweetsched/1.0)",
		},
		Social: SocialConfig{
			YTDLPPath: "yt-dlp",
		},
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 3000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.tweetsched.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	cfg.resolvePaths(baseDir)
	return cfg, nil
}

// LoadWithRepo loads configuration from both global (~/.tweetsched) and repo (.tweetsched) directories.
// Repo config is found by walking upward from startDir to find the nearest .tweetsched/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	cfg := Merge(Merge(DefaultConfig(), global), repo)
	cfg.resolvePaths(globalDir)
	return cfg, nil
}

// FindRepoConfig walks upward from startDir to find the nearest .tweetsched/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".tweetsched", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// ApplyEnv overrides credentials and store identifiers from the environment.
// getenv is os.Getenv outside tests.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("TWEETSCHED_STORE"); v != "" {
		c.Store.Driver = v
	}
	if v := getenv("GOOGLE_SHEETS_ID"); v != "" {
		c.Store.SpreadsheetID = v
	}
	if v := getenv("GOOGLE_SHEETS_CREDENTIALS_FILE"); v != "" {
		c.Store.CredentialsFile = v
	}

	openaiKey := getenv("OPENAI_API_KEY")
	geminiKey := getenv("GEMINI_API_KEY")
	switch c.LLM.Provider {
	case "gemini":
		if geminiKey != "" {
			c.LLM.APIKey = geminiKey
		}
		if openaiKey != "" && c.LLM.TranscriptionAPIKey == "" {
			c.LLM.TranscriptionAPIKey = openaiKey
		}
	default:
		if openaiKey != "" {
			c.LLM.APIKey = openaiKey
		}
	}
}

// resolvePaths fills in file locations that default to living under baseDir.
func (c *Config) resolvePaths(baseDir string) {
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = filepath.Join(baseDir, "schedule.db")
	}
	if c.Social.TranscriptsDir == "" {
		c.Social.TranscriptsDir = filepath.Join(baseDir, "transcripts")
	}
	if c.Social.WorkDir == "" {
		c.Social.WorkDir = filepath.Join(baseDir, "downloads")
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.Store = StoreConfig{
		Driver:          pick(overlay.Store.Driver, base.Store.Driver),
		SpreadsheetID:   pick(overlay.Store.SpreadsheetID, base.Store.SpreadsheetID),
		CredentialsFile: pick(overlay.Store.CredentialsFile, base.Store.CredentialsFile),
		SheetName:       pick(overlay.Store.SheetName, base.Store.SheetName),
		SQLitePath:      pick(overlay.Store.SQLitePath, base.Store.SQLitePath),
	}

	result.LLM = LLMConfig{
		Provider:            pick(overlay.LLM.Provider, base.LLM.Provider),
		APIKey:              pick(overlay.LLM.APIKey, base.LLM.APIKey),
		BaseURL:             pick(overlay.LLM.BaseURL, base.LLM.BaseURL),
		Model:               pick(overlay.LLM.Model, base.LLM.Model),
		VisionModel:         pick(overlay.LLM.VisionModel, base.LLM.VisionModel),
		TranscriptionModel:  pick(overlay.LLM.TranscriptionModel, base.LLM.TranscriptionModel),
		TranscriptionAPIKey: pick(overlay.LLM.TranscriptionAPIKey, base.LLM.TranscriptionAPIKey),
		TimeoutSeconds:      pickInt(overlay.LLM.TimeoutSeconds, base.LLM.TimeoutSeconds),
	}

	result.Schedule = ScheduleConfig{
		StartDate:         pick(overlay.Schedule.StartDate, base.Schedule.StartDate),
		StartWeekday:      pick(overlay.Schedule.StartWeekday, base.Schedule.StartWeekday),
		Timezone:          pick(overlay.Schedule.Timezone, base.Schedule.Timezone),
		CharCount:         pick(overlay.Schedule.CharCount, base.Schedule.CharCount),
		OnScanUnavailable: pick(overlay.Schedule.OnScanUnavailable, base.Schedule.OnScanUnavailable),
	}

	result.Crawler = CrawlerConfig{
		Mode:           pick(overlay.Crawler.Mode, base.Crawler.Mode),
		TimeoutSeconds: pickInt(overlay.Crawler.TimeoutSeconds, base.Crawler.TimeoutSeconds),
		MaxBytes:       overlay.Crawler.MaxBytes,
		UserAgent:      pick(overlay.Crawler.UserAgent, base.Crawler.UserAgent),
		// Booleans: overlay wins if true, else base
		UseLLM: base.Crawler.UseLLM || overlay.Crawler.UseLLM,
	}
	if result.Crawler.MaxBytes == 0 {
		result.Crawler.MaxBytes = base.Crawler.MaxBytes
	}

	result.Social = SocialConfig{
		YTDLPPath:      pick(overlay.Social.YTDLPPath, base.Social.YTDLPPath),
		TranscriptsDir: pick(overlay.Social.TranscriptsDir, base.Social.TranscriptsDir),
		WorkDir:        pick(overlay.Social.WorkDir, base.Social.WorkDir),
	}

	result.Server = ServerConfig{
		Bind: pick(overlay.Server.Bind, base.Server.Bind),
		Port: pickInt(overlay.Server.Port, base.Server.Port),
	}

	result.Log = LogConfig{
		Level:  pick(overlay.Log.Level, base.Log.Level),
		Pretty: base.Log.Pretty || overlay.Log.Pretty,
	}

	// Arrays: merge and deduplicate
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

// pick returns overlay unless it is blank.
func pick(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
