package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"diamond-app-go/pkg/logger"
)

// loadDotEnv walks up from the working directory looking for a .env file and
// applies it to the process environment. Variables already set in the
// environment win; a missing file is not an error.
func loadDotEnv(log logger.Logger) error {
	path := locateDotEnv()
	if path == "" {
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	applied, kept := 0, 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		key, value, ok := parseEnvLine(scanner.Text())
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			kept++
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
		applied++
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	log.Info("dotenv: applied", "path", path, "applied", applied, "already_set", kept)
	return nil
}

func locateDotEnv() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ".env")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// parseEnvLine handles KEY=value with an optional "export " prefix, blank
// lines, full-line comments, quoted values and trailing inline comments.
func parseEnvLine(raw string) (string, string, bool) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

	key, value, found := strings.Cut(line, "=")
	key = strings.TrimSpace(key)
	if !found || key == "" {
		return "", "", false
	}

	value = strings.TrimSpace(value)
	if len(value) >= 2 && value[0] == value[len(value)-1] && (value[0] == '"' || value[0] == '\'') {
		if value[0] == '"' {
			if unquoted, err := strconv.Unquote(value); err == nil {
				return key, unquoted, true
			}
		}
		return key, value[1 : len(value)-1], true
	}
	return key, trimInlineComment(value), true
}

// trimInlineComment drops a trailing "# ..." only when whitespace precedes it,
// so values like passwords containing '#' survive.
func trimInlineComment(value string) string {
	for _, marker := range []string{" #", "\t#"} {
		if idx := strings.Index(value, marker); idx >= 0 {
			return strings.TrimSpace(value[:idx])
		}
	}
	return value
}
