package process

import "time"

// Stream identifies which output stream a line came from.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// LineFunc receives each complete output line as the process produces it.
type LineFunc func(stream Stream, line string)

// Command is a subprocess to run, typically a broker start or stop script.
type Command struct {
	// Binary is a path or a name looked up in PATH.
	Binary string
	Args   []string
	Dir    string
	// Env entries (KEY=value) are appended to the inherited environment.
	Env []string
	// GracePeriod separates SIGTERM and SIGKILL on cancellation. Zero means
	// five seconds.
	GracePeriod time.Duration
	// OnLine sees every output line as it is written. Output is captured in
	// the Result either way.
	OnLine LineFunc
}

// Shell builds a bash command that sources script and then runs fn, the
// pattern used by broker start scripts that export wait/stop functions.
// An empty fn just sources the script.
func Shell(script, fn string) Command {
	line := "source " + script
	if fn != "" {
		line += " && " + fn
	}
	return Command{
		Binary: "/bin/bash",
		Args:   []string{"-c", line},
	}
}
