package validate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const echoSource = `package main

func Name() string { return "echo" }

func Describe() string { return "Echoes its argument back" }

func Run(arg string) (string, error) { return arg, nil }
`

func writeCommandPackage(t *testing.T, name, source string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if source != "" {
		if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte(source), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	for fname, content := range files {
		if err := os.WriteFile(filepath.Join(dir, fname), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestCommandPackageValid(t *testing.T) {
	dir := writeCommandPackage(t, "echo", echoSource, map[string]string{
		"command.toml": "name = \"echo\"\ndescription = \"Echoes things\"\n",
	})

	report, err := CommandPackage(dir)
	if err != nil {
		t.Fatalf("CommandPackage() error = %v", err)
	}
	if !report.Valid {
		t.Errorf("valid package rejected: %v", report.Errors)
	}
}

func TestCommandPackageNoManifestWarns(t *testing.T) {
	dir := writeCommandPackage(t, "echo", echoSource, nil)

	report, err := CommandPackage(dir)
	if err != nil {
		t.Fatalf("CommandPackage() error = %v", err)
	}
	if !report.Valid {
		t.Errorf("package without manifest must still validate: %v", report.Errors)
	}
	if len(report.Warnings) == 0 {
		t.Error("missing manifest should produce a warning")
	}
}

func TestCommandPackageFindings(t *testing.T) {
	tests := []struct {
		name    string
		dir     string
		source  string
		files   map[string]string
		wantErr string
	}{
		{"missing entry point", "echo", "", nil, "missing entry point"},
		{"broken source", "echo", "package main\nfunc Name() string {", nil, "does not load"},
		{"bad manifest", "echo", echoSource, map[string]string{"command.toml": "name = [broken"}, "descriptor unreadable"},
		{"name mismatch", "shout", echoSource, nil, "does not match directory name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeCommandPackage(t, tt.dir, tt.source, tt.files)
			report, err := CommandPackage(dir)
			if err != nil {
				t.Fatalf("CommandPackage() error = %v", err)
			}
			if report.Valid {
				t.Fatal("malformed package passed validation")
			}
			found := false
			for _, e := range report.Errors {
				if strings.Contains(e, tt.wantErr) {
					found = true
				}
			}
			if !found {
				t.Errorf("errors %v missing %q", report.Errors, tt.wantErr)
			}
		})
	}
}

func TestCommandPackageMissingDir(t *testing.T) {
	if _, err := CommandPackage(filepath.Join(t.TempDir(), "ghost")); err == nil {
		t.Error("missing directory must be an error, not a finding")
	}
}
