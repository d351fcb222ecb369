package validate

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var envKeyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// EnvFile validates a KEY=value environment file: syntax, duplicate
// keys, and value shapes implied by common key naming conventions.
func EnvFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open env file: %w", err)
	}
	defer f.Close()

	report := newReport()
	seen := map[string]int{}

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			report.errorf("line %d: expected KEY=value, got %q", lineNo, line)
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if !envKeyPattern.MatchString(key) {
			report.errorf("line %d: invalid key %q", lineNo, key)
			continue
		}

		if prev, dup := seen[key]; dup {
			report.errorf("line %d: duplicate key %q (first defined on line %d)", lineNo, key, prev)
		} else {
			seen[key] = lineNo
		}

		checkEnvValue(report, lineNo, key, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read env file: %w", err)
	}

	return report, nil
}

// checkEnvValue applies shape checks keyed off naming conventions.
func checkEnvValue(report *Report, lineNo int, key, value string) {
	upper := strings.ToUpper(key)

	switch {
	case strings.HasSuffix(upper, "_HOST"), strings.HasSuffix(upper, "_URL"):
		if value == "" {
			report.errorf("line %d: %s must not be empty", lineNo, key)
			return
		}
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			report.errorf("line %d: %s is not a URL: %q", lineNo, key, value)
		}
	case strings.HasPrefix(upper, "ENABLE_"), strings.HasSuffix(upper, "_ENABLED"):
		if _, err := strconv.ParseBool(strings.ToLower(value)); err != nil {
			report.errorf("line %d: %s is not a boolean: %q", lineNo, key, value)
		}
	case strings.HasSuffix(upper, "_TIMEOUT"), strings.HasSuffix(upper, "_LIMIT"),
		strings.HasSuffix(upper, "_SIZE"), strings.HasSuffix(upper, "_PORT"):
		if n, err := strconv.Atoi(value); err != nil || n < 0 {
			report.errorf("line %d: %s is not a non-negative integer: %q", lineNo, key, value)
		}
	default:
		if value == "" {
			report.warnf("line %d: %s has an empty value", lineNo, key)
		}
	}
}
