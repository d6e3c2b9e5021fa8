// Package config loads prfiles configuration from YAML, git config and the command line.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chmouel/prfiles/internal/theme"
	"gopkg.in/yaml.v3"
)

// AppConfig defines the prfiles configuration options.
type AppConfig struct {
	Editor         string // command used to open the selected file; falls back to $VISUAL, $EDITOR, vi
	Theme          string
	DebugLog       string
	ShowIcons      bool // Nerd Font file icons in the picker
	MaxResults     int  // rows kept after ranking, 0 for no limit
	PrintSelection bool // print the selected path instead of opening it
}

// DefaultConfig returns the default configuration values.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		ShowIcons: true,
	}
}

func coerceBool(value any, defaultVal bool) bool {
	if value == nil {
		return defaultVal
	}

	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case string:
		text := strings.ToLower(strings.TrimSpace(v))
		switch text {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	case []any:
		// Repeated git config keys: the last one wins.
		if len(v) > 0 {
			return coerceBool(v[len(v)-1], defaultVal)
		}
	}
	return defaultVal
}

func coerceInt(value any, defaultVal int) int {
	if value == nil {
		return defaultVal
	}

	switch v := value.(type) {
	case int:
		return v
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return defaultVal
		}
		if i, err := strconv.Atoi(text); err == nil {
			return i
		}
	case []any:
		if len(v) > 0 {
			return coerceInt(v[len(v)-1], defaultVal)
		}
	}
	return defaultVal
}

func coerceString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		text := strings.TrimSpace(v)
		return text, text != ""
	case []any:
		if len(v) > 0 {
			return coerceString(v[len(v)-1])
		}
	}
	return "", false
}

// applyConfigData overlays the keys present in data onto cfg. Unknown keys and
// invalid values are ignored.
func applyConfigData(cfg *AppConfig, data map[string]any) {
	if editor, ok := coerceString(data["editor"]); ok {
		cfg.Editor = editor
	}
	if debugLog, ok := coerceString(data["debug_log"]); ok {
		cfg.DebugLog = debugLog
	}
	if themeName, ok := coerceString(data["theme"]); ok {
		if normalized := theme.Normalize(themeName); normalized != "" {
			cfg.Theme = normalized
		}
	}
	if _, ok := data["show_icons"]; ok {
		cfg.ShowIcons = coerceBool(data["show_icons"], cfg.ShowIcons)
	}
	if _, ok := data["print_selection"]; ok {
		cfg.PrintSelection = coerceBool(data["print_selection"], cfg.PrintSelection)
	}
	if _, ok := data["max_results"]; ok {
		cfg.MaxResults = coerceInt(data["max_results"], cfg.MaxResults)
	}
	if cfg.MaxResults < 0 {
		cfg.MaxResults = 0
	}
}

func parseConfig(data map[string]any) *AppConfig {
	cfg := DefaultConfig()
	applyConfigData(cfg, data)
	return cfg
}

func getConfigDir() string {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

// loadConfigFile reads the first existing YAML config file. A nil map means no file.
func loadConfigFile(configPath string) (map[string]any, error) {
	configBase := filepath.Clean(filepath.Join(getConfigDir(), "prfiles"))

	var paths []string
	if configPath != "" {
		expanded, err := ExpandPath(configPath)
		if err != nil {
			return nil, err
		}
		absPath, err := filepath.Abs(expanded)
		if err != nil {
			return nil, err
		}
		if !isPathWithin(configBase, absPath) {
			return nil, fmt.Errorf("config path must reside inside %s", configBase)
		}
		paths = []string{absPath}
	} else {
		paths = []string{
			filepath.Join(configBase, "config.yaml"),
			filepath.Join(configBase, "config.yml"),
		}
	}

	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		// #nosec G304 -- path is constrained to the config directory after validation
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		var yamlData map[string]any
		if err := yaml.Unmarshal(data, &yamlData); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if yamlData == nil {
			yamlData = map[string]any{}
		}
		return yamlData, nil
	}
	return nil, nil
}

// LoadConfig builds the configuration from, lowest precedence first: defaults, the
// YAML file, global git config and the git config of the repository containing dir.
// On error the returned config is still usable.
func LoadConfig(configPath, dir string) (*AppConfig, error) {
	cfg := DefaultConfig()

	fileData, err := loadConfigFile(configPath)
	if err != nil {
		finalizeTheme(cfg)
		return cfg, err
	}
	if fileData != nil {
		applyConfigData(cfg, fileData)
	}

	if globalData, err := loadGitConfig(true, ""); err == nil {
		applyConfigData(cfg, globalData)
	}
	if repoPath := determineRepoPath(dir); repoPath != "" {
		if localData, err := loadGitConfig(false, repoPath); err == nil {
			applyConfigData(cfg, localData)
		}
	}

	finalizeTheme(cfg)
	return cfg, nil
}

func finalizeTheme(cfg *AppConfig) {
	if cfg.Theme == "" {
		cfg.Theme = theme.Detect()
	}
}

// ApplyCLIOverrides applies --config=prfiles.key=value overrides, the highest precedence layer.
func (cfg *AppConfig) ApplyCLIOverrides(overrides []string) error {
	data, err := parseCLIConfigOverrides(overrides)
	if err != nil {
		return err
	}
	if raw, ok := data["theme"]; ok {
		if name, _ := coerceString(raw); theme.Normalize(name) == "" {
			return fmt.Errorf("unknown theme %q", name)
		}
	}
	applyConfigData(cfg, data)
	return nil
}

// EditorCommand returns the command used to open files.
func (cfg *AppConfig) EditorCommand() string {
	if editor := strings.TrimSpace(cfg.Editor); editor != "" {
		return editor
	}
	if editor := strings.TrimSpace(os.Getenv("VISUAL")); editor != "" {
		return editor
	}
	if editor := strings.TrimSpace(os.Getenv("EDITOR")); editor != "" {
		return editor
	}
	return "vi"
}

// ExpandPath expands a leading ~ and environment variables.
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return os.ExpandEnv(path), nil
}

func isPathWithin(base, target string) bool {
	base = filepath.Clean(base)
	target = filepath.Clean(target)

	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return false
	}
	return true
}
