package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Defaults applied when config.json is absent or leaves keys unset.
const (
	DefaultModel              = "local-chat"
	DefaultModelHost          = "http://localhost:11434"
	DefaultCommandTimeoutSecs = 30
	DefaultMaxScanEntries     = 200
)

// Config holds application configuration.
type Config struct {
	// Model is the model identifier handed to the provider.
	Model string `json:"model,omitempty"`

	// ModelHost is the base URL of the local model server.
	ModelHost string `json:"model_host,omitempty"`

	// CommandsDir is the discovery root for command packages.
	// Defaults to <base>/commands.
	CommandsDir string `json:"commands_dir,omitempty"`

	// ProjectsDir is where project bundles are materialized.
	// Defaults to <base>/projects.
	ProjectsDir string `json:"projects_dir,omitempty"`

	// CommandTimeoutSecs bounds a single command unit invocation.
	CommandTimeoutSecs int `json:"command_timeout_secs,omitempty"`

	// MaxScanEntries caps how many directory entries the folder
	// command reports.
	MaxScanEntries int `json:"max_scan_entries,omitempty"`

	// UserName is the display name used in the chat prompt.
	UserName string `json:"user_name,omitempty"`

	// AssistantName is the display name used for model replies.
	AssistantName string `json:"assistant_name,omitempty"`

	// DisabledCommands lists command names excluded from the registry
	// and from MCP tool registration. Unknown names are logged as warnings.
	DisabledCommands []string `json:"disabled_commands,omitempty"`
}

// DefaultConfig returns the default configuration rooted at baseDir.
func DefaultConfig(baseDir string) *Config {
	return &Config{
		Model:              DefaultModel,
		ModelHost:          DefaultModelHost,
		CommandsDir:        filepath.Join(baseDir, "commands"),
		ProjectsDir:        filepath.Join(baseDir, "projects"),
		CommandTimeoutSecs: DefaultCommandTimeoutSecs,
		MaxScanEntries:     DefaultMaxScanEntries,
		UserName:           "You",
		AssistantName:      "rarog",
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir().
func Load(baseDir string) (*Config, error) {
	overlay, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(baseDir), overlay), nil
}

// Path returns the config file path for baseDir.
func Path(baseDir string) string {
	return filepath.Join(baseDir, "config.json")
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
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

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.Model = overlay.Model
	if result.Model == "" {
		result.Model = base.Model
	}

	result.ModelHost = overlay.ModelHost
	if result.ModelHost == "" {
		result.ModelHost = base.ModelHost
	}

	result.CommandsDir = overlay.CommandsDir
	if result.CommandsDir == "" {
		result.CommandsDir = base.CommandsDir
	}

	result.ProjectsDir = overlay.ProjectsDir
	if result.ProjectsDir == "" {
		result.ProjectsDir = base.ProjectsDir
	}

	result.CommandTimeoutSecs = overlay.CommandTimeoutSecs
	if result.CommandTimeoutSecs == 0 {
		result.CommandTimeoutSecs = base.CommandTimeoutSecs
	}

	result.MaxScanEntries = overlay.MaxScanEntries
	if result.MaxScanEntries == 0 {
		result.MaxScanEntries = base.MaxScanEntries
	}

	result.UserName = overlay.UserName
	if result.UserName == "" {
		result.UserName = base.UserName
	}

	result.AssistantName = overlay.AssistantName
	if result.AssistantName == "" {
		result.AssistantName = base.AssistantName
	}

	result.DisabledCommands = mergeStringSlice(base.DisabledCommands, overlay.DisabledCommands)

	return result
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
