//go:build !unix

package imsg

// PollReadable is a no-op on platforms without poll(2); Read blocks instead.
func (c *Channel) PollReadable() error { return nil }
