// Package hostexectest provides a command recorder for tests of packages
// that run host commands.
package hostexectest

import (
	"context"
	"strings"
	"sync"
)

// Recorder implements hostexec.Interface by recording command lines.
type Recorder struct {
	mu sync.Mutex

	// Commands holds every command line run, joined with single spaces.
	Commands []string

	// Fail maps a command line prefix to the error returned for it.
	Fail map[string]error
}

// Run records the command and returns the first matching Fail error.
func (r *Recorder) Run(_ context.Context, name string, args ...string) error {
	line := strings.TrimSpace(name + " " + strings.Join(args, " "))

	r.mu.Lock()
	defer r.mu.Unlock()
	r.Commands = append(r.Commands, line)

	for prefix, err := range r.Fail {
		if strings.HasPrefix(line, prefix) {
			return err
		}
	}
	return nil
}

// Ran reports whether a command line starting with prefix was recorded.
func (r *Recorder) Ran(prefix string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.Commands {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}
