package reduce

import (
	"context"
	"time"

	"github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/runlog"
)

// Compressor turns image bytes into smaller image bytes.
type Compressor interface {
	Compress(ctx context.Context, data []byte) ([]byte, error)
}

// DefaultOutputExclude are the folders the output pass always skips.
var DefaultOutputExclude = []string{"Skins", "skins"}

// Config holds the settings of one pass.
type Config struct {
	Pass      runlog.Pass
	Root      string   // Directory to walk
	Exclude   []string // Directory names pruned from the walk
	MinSizeMB *float64 // Minimum image size; nil disables size filtering
	LogFile   string   // Run log location
	DryRun    bool     // Walk and report only
	Now       func() time.Time
}

// Result summarizes a pass.
type Result struct {
	Found       []string // Full match set, as written to the run log
	Selected    []string // Files chosen for compression
	Compressed  int
	BytesBefore int64
	BytesAfter  int64
}

func (c *Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Config) validate() error {
	if c.Pass != runlog.PassSource && c.Pass != runlog.PassOutput {
		return &ConfigError{Flag: "pass", Message: "must be source or output"}
	}
	if c.Root == "" {
		flag := "content"
		if c.Pass == runlog.PassOutput {
			flag = "output"
		}
		return &ConfigError{Flag: flag, Message: "directory is required"}
	}
	if c.LogFile == "" {
		c.LogFile = runlog.DefaultFile
	}
	return nil
}
