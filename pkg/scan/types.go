package scan

// BytesPerMB converts byte counts to the megabytes used by --minsize.
const BytesPerMB = 1024 * 1024.0

// ImageExtensions are the suffixes a file name must end with to be collected.
// Matching is case-sensitive.
var ImageExtensions = []string{".jpg", ".jpeg", ".png"}

// Options configures a walk.
type Options struct {
	Root      string   // Directory to walk; made absolute before walking.
	Exclude   []string // Directory base names (or doublestar patterns) to prune.
	MinSizeMB *float64 // When non-nil, files smaller than this are skipped.
}

// Candidate is a file that matched the extension and size criteria.
type Candidate struct {
	Path string // Absolute path.
	Size int64  // Size in bytes.
}

// SizeMB returns the candidate size in megabytes.
func (c Candidate) SizeMB() float64 {
	return float64(c.Size) / BytesPerMB
}

// Paths returns the paths of cs in order.
func Paths(cs []Candidate) []string {
	paths := make([]string, 0, len(cs))
	for _, c := range cs {
		paths = append(paths, c.Path)
	}
	return paths
}
