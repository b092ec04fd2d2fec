// Package runlog persists the record of the most recent compression pass.
package runlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
)

// DefaultFile is the log file name, resolved against the working directory.
const DefaultFile = "reduce-file-sizes-log.json"

// TimeLayout formats RunLog.DateTime.
const TimeLayout = "2006-01-02 15:04:05.000000"

// Pass identifies which hook produced a log.
type Pass string

const (
	PassSource Pass = "source"
	PassOutput Pass = "output"
)

// RunLog is the persisted record of one pass. Files always holds the full
// match set of the walk, not the subset that was compressed.
type RunLog struct {
	DateTime string   `json:"datetime"`
	Type     Pass     `json:"type"`
	Files    []string `json:"files"`
}

// New returns a RunLog stamped with now.
func New(pass Pass, files []string, now time.Time) *RunLog {
	if files == nil {
		files = []string{}
	}
	return &RunLog{
		DateTime: now.Format(TimeLayout),
		Type:     pass,
		Files:    files,
	}
}

// Load reads a RunLog from path.
func Load(path string) (*RunLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run log: %w", err)
	}

	var rl RunLog
	if err := json.Unmarshal(data, &rl); err != nil {
		return nil, fmt.Errorf("failed to parse run log %s: %w", path, err)
	}
	return &rl, nil
}

// Save writes rl to path as indented JSON, replacing any previous log.
func Save(path string, rl *RunLog) error {
	if rl == nil {
		return errors.New("cannot save nil run log")
	}

	data, err := json.MarshalIndent(rl, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal run log: %w", err)
	}

	if err := WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write run log: %w", err)
	}
	return nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it into place.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	_, err = tmp.Write(data)
	err = multierr.Append(err, tmp.Chmod(perm))
	err = multierr.Append(err, tmp.Close())
	if err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}
