//go:build !linux

package sandbox

// Restrict is a no-op where no restriction mechanism is wired up.
func Restrict() error { return nil }
