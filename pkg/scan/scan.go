// Package scan finds image files below a directory tree.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Walk traverses opts.Root and collects images matching the extension and size criteria.
// Excluded directories are pruned before descent. Candidates are returned in walk order.
func Walk(opts Options, logger *zap.Logger) ([]Candidate, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path of %s: %w", opts.Root, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot access root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}

	excludes := NewExcludeSet(opts.Exclude, logger)

	logger.Debug("Starting image traversal",
		zap.String("root", root),
		zap.Strings("exclude", opts.Exclude))

	var found []Candidate
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Error accessing path during traversal", zap.String("path", path), zap.Error(err))
			return nil // Skip paths that cause errors
		}

		if d.IsDir() {
			if path != root && excludes.Matches(d.Name()) {
				logger.Debug("Skipping excluded directory", zap.String("directory", path))
				return filepath.SkipDir
			}
			return nil
		}

		if !HasImageExtension(d.Name()) {
			return nil
		}

		size, ok := fileSize(path, d, logger)
		if !ok {
			return nil
		}

		c := Candidate{Path: path, Size: size}
		// A NaN minimum matches nothing.
		if opts.MinSizeMB != nil && !(c.SizeMB() >= *opts.MinSizeMB) {
			logger.Debug("Skipping file below minimum size",
				zap.String("filePath", path),
				zap.Float64("sizeMB", c.SizeMB()),
				zap.Float64("minSizeMB", *opts.MinSizeMB))
			return nil
		}

		found = append(found, c)
		logger.Debug("Added image", zap.String("filePath", path), zap.Int64("sizeBytes", size))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error during traversal of %s: %w", root, err)
	}

	logger.Debug("Completed image traversal", zap.Int("images", len(found)))
	return found, nil
}

// HasImageExtension reports whether name ends with one of ImageExtensions.
func HasImageExtension(name string) bool {
	for _, ext := range ImageExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// fileSize stats a regular file or a symlink to one.
func fileSize(path string, d fs.DirEntry, logger *zap.Logger) (int64, bool) {
	var info fs.FileInfo
	var err error
	if d.Type()&fs.ModeSymlink != 0 {
		info, err = os.Stat(path)
	} else {
		info, err = d.Info()
	}
	if err != nil {
		logger.Warn("Failed to get file info during traversal", zap.String("filePath", path), zap.Error(err))
		return 0, false
	}
	if info.IsDir() {
		return 0, false
	}
	return info.Size(), true
}
