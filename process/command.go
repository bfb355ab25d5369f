package process

import (
	"io"
	"time"
)

// Command describes a subprocess.
type Command struct {
	// Binary is an absolute path or a name resolved through PATH.
	Binary string
	Args   []string
	Dir    string
	// Env is appended to the parent environment.
	Env   []string
	Stdin io.Reader
	// GracePeriod is the wait between SIGTERM and SIGKILL on cancellation. Defaults to 5s.
	GracePeriod time.Duration
	// MaxOutput caps captured stdout and stderr each. Zero means 16MiB.
	MaxOutput int
}

// Result is a finished subprocess.
type Result struct {
	Stdout []byte
	Stderr []byte
	// ExitCode is -1 when the process was killed.
	ExitCode int
	Duration time.Duration
}
