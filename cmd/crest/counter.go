package main

import (
	"fmt"
	"strconv"
)

// counter is a repeatable boolean flag that counts how often it was given.
// cli copies the value of a flag to its aliases by setting the String form on them,
// so a number sets the count instead of adding to it.
type counter struct {
	n *int
}

func (c *counter) IsBoolFlag() bool { return true }

func (c *counter) Set(value string) error {
	switch value {
	case "true":
		*c.n++
		return nil
	case "false":
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fmt.Errorf("invalid count %q", value)
	}
	*c.n = n
	return nil
}

func (c *counter) String() string {
	if c == nil || c.n == nil {
		return "0"
	}
	return strconv.Itoa(*c.n)
}
