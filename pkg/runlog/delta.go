package runlog

// Delta returns the entries of current that are absent from previous.Files,
// keeping the order of current. A nil previous log yields all of current.
func Delta(current []string, previous *RunLog) []string {
	if previous == nil {
		return current
	}

	seen := make(map[string]struct{}, len(previous.Files))
	for _, path := range previous.Files {
		seen[path] = struct{}{}
	}

	var fresh []string
	for _, path := range current {
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{} // Deduplicate within current as a set difference would.
		fresh = append(fresh, path)
	}
	return fresh
}
