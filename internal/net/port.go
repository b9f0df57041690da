package net

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
)

func GetEphemeralTCPPort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, fmt.Errorf("resolving localhost:0: %w", err)
	}
	listener, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("listening to acquire port: %w", err)
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}

// OverridePort returns a copy of u that connects to port instead of the port in the URL.
// A port of -1 leaves the URL alone.
func OverridePort(u *url.URL, port int) *url.URL {
	if port == -1 {
		return u
	}
	out := *u
	out.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(port))
	return &out
}

// JoinPrefix joins a URL prefix and a request path with exactly one slash between them.
// An empty prefix returns path as is.
func JoinPrefix(prefix, path string) string {
	if prefix == "" {
		return path
	}
	slashPrefix := prefix[len(prefix)-1] == '/'
	slashPath := len(path) > 0 && path[0] == '/'
	switch {
	case slashPrefix && slashPath:
		return prefix + path[1:]
	case slashPrefix || slashPath:
		return prefix + path
	}
	return prefix + "/" + path
}
