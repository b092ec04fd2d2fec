// Package reduce runs one compression pass: walk, select, compress in place, log.
package reduce

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/runlog"
	"github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/scan"

	"go.uber.org/zap"
)

// Run executes a pass. Files are compressed one at a time; the first failure
// aborts the pass and the run log is left as it was.
func Run(ctx context.Context, cfg Config, c Compressor, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if c == nil && !cfg.DryRun {
		return nil, &ConfigError{Flag: "key", Message: "no compression engine configured"}
	}

	startTime := time.Now()
	logger.Info("Starting pass",
		zap.String("pass", string(cfg.Pass)),
		zap.String("root", cfg.Root),
		zap.Strings("exclude", cfg.Exclude))

	candidates, err := scan.Walk(scan.Options{
		Root:      cfg.Root,
		Exclude:   cfg.Exclude,
		MinSizeMB: cfg.MinSizeMB,
	}, logger)
	if err != nil {
		return nil, &IOError{Op: "walk", Path: cfg.Root, Err: err}
	}

	result := &Result{Found: scan.Paths(candidates)}
	result.Selected = selectFiles(cfg, result.Found, logger)

	logger.Info("Collected images",
		zap.Int("found", len(result.Found)),
		zap.Int("selected", len(result.Selected)))

	if cfg.DryRun {
		for _, path := range result.Selected {
			logger.Info("Would compress", zap.String("filePath", path))
		}
		return result, nil
	}

	// Symlinked images are written through to their target, once per target.
	done := make(map[string]struct{}, len(result.Selected))
	for _, path := range result.Selected {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("pass interrupted: %w", err)
		}
		target, err := filepath.EvalSymlinks(path)
		if err != nil {
			return result, &IOError{Op: "read", Path: path, Err: err}
		}
		if _, ok := done[target]; ok {
			logger.Debug("Image already compressed through another path",
				zap.String("filePath", path),
				zap.String("target", target))
			continue
		}
		done[target] = struct{}{}

		before, after, err := compressFile(ctx, c, target)
		if err != nil {
			return result, err
		}
		result.Compressed++
		result.BytesBefore += before
		result.BytesAfter += after
		logger.Info("Compressed image",
			zap.String("filePath", path),
			zap.String("target", target),
			zap.Int64("sizeBefore", before),
			zap.Int64("sizeAfter", after))
	}

	rl := runlog.New(cfg.Pass, result.Found, cfg.now())
	if err := runlog.Save(cfg.LogFile, rl); err != nil {
		return result, &IOError{Op: "log", Path: cfg.LogFile, Err: err}
	}

	logger.Info("Pass completed",
		zap.String("pass", string(cfg.Pass)),
		zap.Int("compressed", result.Compressed),
		zap.Int64("bytesSaved", result.BytesBefore-result.BytesAfter),
		zap.Duration("elapsed", time.Since(startTime)))
	return result, nil
}

// selectFiles applies the delta filter for the source pass. The output pass
// always selects every match.
func selectFiles(cfg Config, found []string, logger *zap.Logger) []string {
	if cfg.Pass != runlog.PassSource {
		return found
	}

	previous, err := runlog.Load(cfg.LogFile)
	if err != nil {
		logger.Debug("No usable previous run log, selecting all images",
			zap.String("logFile", cfg.LogFile),
			zap.Error(err))
		return found
	}

	logger.Debug("Loaded previous run log",
		zap.String("logFile", cfg.LogFile),
		zap.String("type", string(previous.Type)),
		zap.String("datetime", previous.DateTime),
		zap.Int("files", len(previous.Files)))
	return runlog.Delta(found, previous)
}

// compressFile replaces path with its compressed version, keeping its permissions.
// path must not be a symlink.
func compressFile(ctx context.Context, c Compressor, path string) (before, after int64, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, &IOError{Op: "read", Path: path, Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, &IOError{Op: "read", Path: path, Err: err}
	}

	out, err := c.Compress(ctx, data)
	if err != nil {
		return 0, 0, &ServiceError{Path: path, Err: err}
	}

	if err := runlog.WriteFileAtomic(path, out, info.Mode().Perm()); err != nil {
		return 0, 0, &IOError{Op: "write", Path: path, Err: err}
	}
	return int64(len(data)), int64(len(out)), nil
}
