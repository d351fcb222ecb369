package registry

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// discover loads every immediate subdirectory of the commands directory
// as a command package. A package that fails to load is skipped with a
// warning; it never takes the rest of the registry down with it.
func (r *Registry) discover() {
	if r.commandsDir == "" {
		return
	}
	entries, err := os.ReadDir(r.commandsDir)
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.Warn("cannot read commands directory",
				zap.String("dir", r.commandsDir), zap.Error(err))
		}
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		pkgDir := filepath.Join(r.commandsDir, entry.Name())
		unit, err := LoadPackage(pkgDir)
		if err != nil {
			r.log.Warn("skipping command package",
				zap.String("package", entry.Name()), zap.Error(err))
			continue
		}
		r.register(unit)
		r.log.Debug("registered command package",
			zap.String("package", entry.Name()),
			zap.String("command", unit.Descriptor().Name))
	}
}
