package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const appDirName = "wordpress-mcp-server"

func configHome() string {
	if v := strings.TrimSpace(os.Getenv("WPMCP_CONFIG_HOME")); v != "" {
		return filepath.Clean(v)
	}
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, appDirName)
	}
	return filepath.Join(os.Getenv("HOME"), ".config", appDirName)
}

func stateHome() string {
	if v := strings.TrimSpace(os.Getenv("WPMCP_STATE_HOME")); v != "" {
		return filepath.Clean(v)
	}
	return filepath.Join(configHome(), ".state")
}

func requireHomePath(home, target string) (string, error) {
	if strings.TrimSpace(home) == "" {
		return "", errors.New("empty home path")
	}
	absHome, err := filepath.Abs(home)
	if err != nil {
		return "", err
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absHome, absTarget)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.New("path escapes configured home")
	}
	return absTarget, nil
}

func mkdirAllUnder(home, target string) (string, error) {
	path, err := requireHomePath(home, target)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	return path, nil
}

// envBool reports the parsed value of key and whether it was set at all.
func envBool(key string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

func envInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func envList(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// resolveGuardedPath accepts relative paths against the state home and
// rejects anything that resolves outside the config or state home.
func resolveGuardedPath(target string) (string, error) {
	if strings.TrimSpace(target) == "" {
		return "", errors.New("empty path")
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(stateHome(), target)
	}
	if resolved, err := requireHomePath(configHome(), target); err == nil {
		return resolved, nil
	}
	if resolved, err := requireHomePath(stateHome(), target); err == nil {
		return resolved, nil
	}
	return "", errors.New("path must be under config or state home")
}
