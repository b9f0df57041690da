package sandbox

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Restrict makes sure neither the process nor anything it runs can gain privileges again.
func Restrict() error {
	if err := unix.Prctl(unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0); err != nil {
		return fmt.Errorf("setting no_new_privs: %w", err)
	}
	return nil
}
