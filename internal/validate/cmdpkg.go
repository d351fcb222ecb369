package validate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mzielinska/rarog/internal/registry"
)

// CommandPackage validates one command package directory: entry point
// present, descriptor parseable, declared name consistent with the
// directory name. Used hard by `rarog lint` and informally mirrored by
// the skip-on-failure behavior of discovery.
func CommandPackage(dir string) (*Report, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat package dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	report := newReport()
	dirName := filepath.Base(dir)

	if strings.HasPrefix(dirName, ".") {
		report.warnf("directory %q is hidden and will be skipped by discovery", dirName)
	}

	entry := filepath.Join(dir, "main.go")
	if _, err := os.Stat(entry); err != nil {
		report.errorf("missing entry point main.go")
		return report, nil
	}

	manifest, err := registry.LoadManifest(dir)
	if err != nil {
		report.errorf("descriptor unreadable: %v", err)
		return report, nil
	}
	if manifest == nil {
		report.warnf("no command.toml descriptor; name and description come from the source")
	}

	unit, err := registry.LoadPackage(dir)
	if err != nil {
		report.errorf("package does not load: %v", err)
		return report, nil
	}

	desc := unit.Descriptor()
	if desc.Name == "" {
		report.errorf("declared command name is empty")
	} else if !strings.EqualFold(desc.Name, dirName) {
		report.errorf("declared name %q does not match directory name %q", desc.Name, dirName)
	}
	if desc.Description == "" {
		report.warnf("command has no description")
	}

	return report, nil
}
