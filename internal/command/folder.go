package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FolderUnit analyzes directory contents.
type FolderUnit struct{}

// NewFolder creates the builtin directory analyzer unit.
func NewFolder() *FolderUnit { return &FolderUnit{} }

func (f *FolderUnit) Descriptor() Descriptor {
	return Descriptor{
		Name:            "folder",
		Aliases:         []string{"dir"},
		Description:     "Analyze directory contents: file counts, sizes and type distribution",
		Category:        CategoryFilesystem,
		ContextProvider: true,
		MachineCallable: true,
	}
}

type fileEntry struct {
	name string
	size int64
}

func (f *FolderUnit) Execute(ctx context.Context, arg string, env *Env) *Result {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return Failure("directory path is required (usage: folder: <path>)")
	}

	dir, err := resolvePath(arg, env)
	if err != nil {
		return Failuref("cannot resolve path %q: %v", arg, err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Failuref("directory does not exist: %s", dir)
		}
		return Failuref("cannot access %s: %v", dir, err)
	}
	if !info.IsDir() {
		return Failuref("path is not a directory: %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return Failuref("cannot read directory %s: %v", dir, err)
	}

	limit := 0
	if env != nil {
		limit = env.MaxScanEntries
	}
	if limit <= 0 {
		limit = 200
	}

	var (
		files     []fileEntry
		dirNames  []string
		extCounts = map[string]int{}
		totalSize int64
		truncated bool
	)

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return Failuref("directory scan cancelled: %v", err)
		}
		if i >= limit {
			truncated = true
			break
		}
		if entry.IsDir() {
			dirNames = append(dirNames, entry.Name())
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue // unreadable entries are skipped, not fatal
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == "" {
			ext = "(none)"
		}
		extCounts[ext]++
		totalSize += fi.Size()
		files = append(files, fileEntry{name: entry.Name(), size: fi.Size()})
	}

	sort.Slice(files, func(i, j int) bool {
		return strings.ToLower(files[i].name) < strings.ToLower(files[j].name)
	})
	sort.Strings(dirNames)

	content := renderFolderReport(dir, files, dirNames, extCounts, totalSize, truncated)

	return Success("directory_analysis", content, map[string]any{
		"path":         dir,
		"file_count":   len(files),
		"folder_count": len(dirNames),
		"total_bytes":  totalSize,
	})
}

func renderFolderReport(dir string, files []fileEntry, dirs []string, extCounts map[string]int, totalSize int64, truncated bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Directory: %s\n\n", dir)
	fmt.Fprintf(&b, "%d files, %d folders, %s total\n", len(files), len(dirs), humanSize(totalSize))
	if truncated {
		b.WriteString("(listing truncated at the configured entry limit)\n")
	}

	if len(extCounts) > 0 {
		exts := make([]string, 0, len(extCounts))
		for ext := range extCounts {
			exts = append(exts, ext)
		}
		sort.Strings(exts)
		b.WriteString("\n### File types\n")
		for _, ext := range exts {
			fmt.Fprintf(&b, "- %s: %d\n", ext, extCounts[ext])
		}
	}

	if len(files) > 0 {
		largest := make([]fileEntry, len(files))
		copy(largest, files)
		sort.Slice(largest, func(i, j int) bool { return largest[i].size > largest[j].size })
		if len(largest) > 5 {
			largest = largest[:5]
		}
		b.WriteString("\n### Largest files\n")
		for _, f := range largest {
			fmt.Fprintf(&b, "- %s (%s)\n", f.name, humanSize(f.size))
		}

		b.WriteString("\n### Files\n")
		for _, f := range files {
			fmt.Fprintf(&b, "- %s\n", f.name)
		}
	}

	if len(dirs) > 0 {
		b.WriteString("\n### Folders\n")
		for _, d := range dirs {
			fmt.Fprintf(&b, "- %s/\n", d)
		}
	}

	return b.String()
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// resolvePath expands ~ and resolves relative paths against the env
// work directory.
func resolvePath(p string, env *Env) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	if !filepath.IsAbs(p) && env != nil && env.WorkDir != "" {
		p = filepath.Join(env.WorkDir, p)
	}
	return filepath.Abs(p)
}
