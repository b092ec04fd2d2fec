package reduce

import "fmt"

// ConfigError reports a missing or malformed command-line setting.
type ConfigError struct {
	Flag    string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid --%s: %s: %v", e.Flag, e.Message, e.Err)
	}
	return fmt.Sprintf("invalid --%s: %s", e.Flag, e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IOError reports a failure reading or writing the local filesystem.
type IOError struct {
	Op   string // walk, read, write, log
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ServiceError reports a failure of the compression engine for one file.
type ServiceError struct {
	Path string
	Err  error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("compress %s: %v", e.Path, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }
