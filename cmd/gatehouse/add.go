package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sagarc03/gatehouse"
	"github.com/sagarc03/gatehouse/config"
)

var addCmd = &cobra.Command{
	Use:   "add [flags] <file1> [file2] ...",
	Short: "Import local files into the shared directory",
	Long: `Copy local files into the shared directory.

Destination names go through the same sanitization as HTTP uploads, and
existing files are never overwritten.

Examples:
  # Add a single file
  gatehouse add /path/to/report.pdf

  # Add under a subdirectory
  gatehouse add --dest reports/2024 /path/to/q1.pdf

  # Add a directory recursively
  gatehouse add -r /path/to/assets

  # Skip files that already exist
  gatehouse add --no-clobber /path/to/file.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addDest      string
	addRecursive bool
	addNoClobber bool
	addQuiet     bool
)

func init() {
	addCmd.Flags().StringVarP(&addDest, "dest", "d", "", "destination subdirectory in the shared directory")
	addCmd.Flags().BoolVarP(&addRecursive, "recursive", "r", false, "recursively add directories")
	addCmd.Flags().BoolVarP(&addNoClobber, "no-clobber", "n", false, "skip existing files instead of failing")
	addCmd.Flags().BoolVarP(&addQuiet, "quiet", "q", false, "suppress per-file output")
	rootCmd.AddCommand(addCmd)
}

// fileEntry is a local file and the subdirectory it is imported into.
type fileEntry struct {
	sourcePath string
	subdir     string
	filename   string
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	resolver, storage, err := openStorage(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer func() { _ = storage.Close() }()

	var files []fileEntry
	for _, arg := range args {
		entries, collectErr := collectFiles(arg, addRecursive, addDest)
		if collectErr != nil {
			return fmt.Errorf("collect files from %s: %w", arg, collectErr)
		}
		files = append(files, entries...)
	}

	if len(files) == 0 {
		slog.Info("no files to add")
		return nil
	}

	added := 0
	skipped := 0

	for _, entry := range files {
		target, resolveErr := resolver.ResolveForCreate(entry.subdir, entry.filename)
		if resolveErr != nil {
			return fmt.Errorf("add %s: %w", entry.sourcePath, resolveErr)
		}

		f, openErr := os.Open(entry.sourcePath)
		if openErr != nil {
			return fmt.Errorf("open %s: %w", entry.sourcePath, openErr)
		}

		size, createErr := storage.Create(ctx, target.Rel, f)
		_ = f.Close()

		if errors.Is(createErr, gatehouse.ErrConflict) && addNoClobber {
			skipped++
			if !addQuiet {
				slog.Info("skipped (exists)", "path", target.Rel)
			}
			continue
		}
		if createErr != nil {
			return fmt.Errorf("add %s: %w", target.Rel, createErr)
		}

		added++
		if !addQuiet {
			slog.Info("added", "path", target.Rel, "size", size)
		}
	}

	slog.Info("add complete", "added", added, "skipped", skipped)
	return nil
}

// collectFiles gathers files from a local path, optionally recursively.
// Subdirectories are expressed with forward slashes below destPrefix.
func collectFiles(src string, recursive bool, destPrefix string) ([]fileEntry, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, err
	}

	destPrefix = strings.Trim(destPrefix, "/")

	if !info.IsDir() {
		return []fileEntry{{sourcePath: src, subdir: destPrefix, filename: filepath.Base(src)}}, nil
	}

	if !recursive {
		return nil, fmt.Errorf("%s is a directory (use -r to add recursively)", src)
	}

	var entries []fileEntry
	walkErr := filepath.WalkDir(src, func(walkPath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}

		relPath, relErr := filepath.Rel(src, walkPath)
		if relErr != nil {
			return relErr
		}

		dir := path.Dir(filepath.ToSlash(relPath))
		if dir == "." {
			dir = ""
		}
		entries = append(entries, fileEntry{
			sourcePath: walkPath,
			subdir:     path.Join(destPrefix, dir),
			filename:   d.Name(),
		})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return entries, nil
}
