package scan

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// ExcludeSet matches directory base names against a list of excluded names.
// Every entry matches a directory of exactly that name. Entries that are also
// valid doublestar patterns, such as "temp*", additionally match by pattern.
type ExcludeSet struct {
	names    map[string]struct{}
	patterns []string
	logger   *zap.Logger
}

// NewExcludeSet compiles entries into an ExcludeSet. Blank entries are dropped.
// An entry that is not a valid pattern is kept as an exact name.
func NewExcludeSet(entries []string, logger *zap.Logger) *ExcludeSet {
	if logger == nil {
		logger = zap.NewNop()
	}
	es := &ExcludeSet{
		names:  make(map[string]struct{}),
		logger: logger,
	}

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		es.names[entry] = struct{}{}
		if !hasMeta(entry) {
			continue
		}
		if !doublestar.ValidatePattern(entry) {
			logger.Warn("Invalid exclude pattern, matching by name only",
				zap.String("entry", entry),
				zap.Error(doublestar.ErrBadPattern))
			continue
		}
		es.patterns = append(es.patterns, entry)
	}

	logger.Debug("Compiled exclude set",
		zap.Int("names", len(es.names)),
		zap.Strings("patterns", es.patterns))
	return es
}

// ParseExcludeList splits a comma-separated --exclude value.
func ParseExcludeList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Matches reports whether a directory with the given base name is excluded.
func (es *ExcludeSet) Matches(name string) bool {
	if es == nil {
		return false
	}
	if _, ok := es.names[name]; ok {
		return true
	}
	for _, pattern := range es.patterns {
		// Patterns were validated in NewExcludeSet.
		if ok, _ := doublestar.Match(pattern, name); ok {
			es.logger.Debug("Directory matches exclude pattern",
				zap.String("name", name),
				zap.String("pattern", pattern))
			return true
		}
	}
	return false
}

// hasMeta reports whether entry contains doublestar pattern syntax.
func hasMeta(entry string) bool {
	return strings.ContainsAny(entry, `*?[{\`)
}
