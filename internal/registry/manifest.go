package registry

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is the optional descriptor file shipped alongside a command
// package. command.toml is the current format; command.env is the
// legacy key=value format and is only read when no command.toml exists.
type Manifest struct {
	Name            string   `toml:"name"`
	Description     string   `toml:"description"`
	Aliases         []string `toml:"aliases"`
	Category        string   `toml:"category"`
	ContextProvider *bool    `toml:"context_provider"`
	MachineCallable bool     `toml:"machine_callable"`
}

// LoadManifest reads the descriptor for a command package directory.
// Returns (nil, nil) when the package ships no descriptor at all.
func LoadManifest(dir string) (*Manifest, error) {
	tomlPath := filepath.Join(dir, "command.toml")
	if _, err := os.Stat(tomlPath); err == nil {
		var m Manifest
		if _, err := toml.DecodeFile(tomlPath, &m); err != nil {
			return nil, fmt.Errorf("parse command.toml: %w", err)
		}
		return &m, nil
	}

	envPath := filepath.Join(dir, "command.env")
	if _, err := os.Stat(envPath); err == nil {
		m, err := parseEnvManifest(envPath)
		if err != nil {
			return nil, fmt.Errorf("parse command.env: %w", err)
		}
		return m, nil
	}

	return nil, nil
}

func parseEnvManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var m Manifest
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
			return nil, fmt.Errorf("line %d: expected KEY=value, got %q", lineNo, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch strings.ToUpper(key) {
		case "NAME":
			m.Name = value
		case "DESCRIPTION":
			m.Description = value
		case "ALIASES":
			for _, a := range strings.Split(value, ",") {
				if a = strings.TrimSpace(a); a != "" {
					m.Aliases = append(m.Aliases, a)
				}
			}
		case "CATEGORY":
			m.Category = value
		case "CONTEXT_PROVIDER":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: CONTEXT_PROVIDER: %v", lineNo, err)
			}
			m.ContextProvider = &b
		case "MACHINE_CALLABLE":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: MACHINE_CALLABLE: %v", lineNo, err)
			}
			m.MachineCallable = b
		default:
			return nil, fmt.Errorf("line %d: unknown key %q", lineNo, key)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &m, nil
}
