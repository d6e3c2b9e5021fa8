package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// gitConfigPrefix namespaces prfiles keys in git config and --config overrides.
const gitConfigPrefix = "prfiles."

// gitConfigMock allows tests to mock git config output.
var gitConfigMock func(args []string, repoPath string) (string, error)

// runGitConfig executes git config command and returns raw output.
func runGitConfig(args []string, repoPath string) (string, error) {
	if gitConfigMock != nil {
		return gitConfigMock(args, repoPath)
	}

	cmd := exec.Command("git", args...)
	if repoPath != "" {
		cmd.Dir = repoPath
	}

	output, err := cmd.Output()
	if err != nil {
		// git config exits 1 when no key matches.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", nil
		}
		return "", err
	}
	return string(output), nil
}

// normalizeKey maps git-friendly "show-icons" and yaml-style "show_icons" to one key.
func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "-", "_")
}

// parseGitConfigOutput parses git config output into multi-value map.
// Input format: "prfiles.editor nvim\nprfiles.show-icons false\n"
func parseGitConfigOutput(output string) map[string][]string {
	configMap := make(map[string][]string)
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		// The value may itself contain spaces.
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			continue
		}

		key := normalizeKey(strings.TrimPrefix(parts[0], gitConfigPrefix))
		configMap[key] = append(configMap[key], parts[1])
	}
	return configMap
}

// convertGitConfigToParseConfig converts to the map shape applyConfigData expects.
func convertGitConfigToParseConfig(gitCfg map[string][]string) map[string]any {
	result := make(map[string]any)

	for key, values := range gitCfg {
		if len(values) == 0 {
			continue
		}

		if len(values) > 1 {
			anySlice := make([]any, len(values))
			for i, v := range values {
				anySlice[i] = v
			}
			result[key] = anySlice
			continue
		}

		result[key] = values[0]
	}

	return result
}

// loadGitConfig reads prfiles.* keys from the global or the repository git config.
func loadGitConfig(globalOnly bool, repoPath string) (map[string]any, error) {
	args := []string{"config", "--get-regexp", `^prfiles\.`}
	if globalOnly {
		args = append(args, "--global")
	} else {
		args = append(args, "--local")
	}

	output, err := runGitConfig(args, repoPath)
	if err != nil {
		return nil, err
	}
	return convertGitConfigToParseConfig(parseGitConfigOutput(output)), nil
}

// isInGitRepo checks if path is in a git repository.
func isInGitRepo(path string) bool {
	if path == "" {
		return false
	}
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = path
	return cmd.Run() == nil
}

// determineRepoPath returns the directory to read local git config from.
func determineRepoPath(dir string) string {
	if dir != "" && isInGitRepo(dir) {
		return dir
	}
	if dir == "" {
		if wd, err := os.Getwd(); err == nil && isInGitRepo(wd) {
			return wd
		}
	}
	return ""
}

// parseCLIConfigOverrides parses --config=prfiles.key=value format.
func parseCLIConfigOverrides(overrides []string) (map[string]any, error) {
	result := make(map[string]any)

	for _, override := range overrides {
		parts := strings.SplitN(override, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config override: %q, expected format: %skey=value (note: use = not space)", override, gitConfigPrefix)
		}

		fullKey := parts[0]
		value := parts[1]

		if !strings.HasPrefix(fullKey, gitConfigPrefix) {
			return nil, fmt.Errorf("config override key must start with '%s': %q", gitConfigPrefix, fullKey)
		}

		key := normalizeKey(strings.TrimPrefix(fullKey, gitConfigPrefix))
		if key == "" {
			return nil, fmt.Errorf("empty config key in override: %q", override)
		}

		// A repeated key becomes a list; applyConfigData keeps the last value.
		switch existing := result[key].(type) {
		case nil:
			result[key] = value
		case string:
			result[key] = []any{existing, value}
		case []any:
			result[key] = append(existing, value)
		}
	}

	return result, nil
}
