// Package headers holds the ordered set of raw header lines sent with every request.
package headers

import (
	"net/http"
	"strings"
)

const minCap = 8

// Entry is one raw header line, e.g. "Accept: application/json".
// Owned is true when the line was handed to the set to keep, rather than borrowed from a static default.
type Entry struct {
	Text  string
	Owned bool
}

// Name is the part of the line before the first colon. ok is false for lines without a colon.
func (e Entry) Name() (name string, ok bool) {
	i := strings.IndexByte(e.Text, ':')
	if i < 0 {
		return "", false
	}
	return e.Text[:i], true
}

// Value is the trimmed part of the line after the first colon.
func (e Entry) Value() string {
	i := strings.IndexByte(e.Text, ':')
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(e.Text[i+1:])
}

// Set is an ordered collection of header lines, unique by header name (case-insensitive).
// The zero value is an empty set ready to use.
type Set struct {
	entries []Entry
}

func New() *Set { return &Set{} }

// sameHeader reports whether two header lines carry the same header name.
// Lines without a colon never match anything.
func sameHeader(a, b string) bool {
	i := strings.IndexByte(a, ':')
	j := strings.IndexByte(b, ':')
	if i < 0 || j < 0 {
		return false
	}
	return strings.EqualFold(a[:i], b[:j])
}

// Add stores a header line. A line whose name is already present replaces the old one in place.
func (s *Set) Add(text string, owned bool) {
	for i := range s.entries {
		if sameHeader(text, s.entries[i].Text) {
			s.entries[i] = Entry{Text: text, Owned: owned}
			return
		}
	}
	if len(s.entries) == cap(s.entries) {
		s.grow()
	}
	s.entries = append(s.entries, Entry{Text: text, Owned: owned})
}

func (s *Set) grow() {
	c := cap(s.entries) * 3 / 2
	if c < minCap {
		c = minCap
	}
	entries := make([]Entry, len(s.entries), c)
	copy(entries, s.entries)
	s.entries = entries
}

// Remove deletes the header with the given name, keeping the order of the others.
// Anything from the first colon on is ignored, so both "Accept" and "Accept: */*" remove Accept.
func (s *Set) Remove(name string) bool {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[:i]
	}
	for i, e := range s.entries {
		n, ok := e.Name()
		if ok && strings.EqualFold(n, name) {
			copy(s.entries[i:], s.entries[i+1:])
			s.entries[len(s.entries)-1] = Entry{}
			s.entries = s.entries[:len(s.entries)-1]
			return true
		}
	}
	return false
}

func (s *Set) Len() int { return len(s.entries) }

// Entries returns a copy of the entries in order.
func (s *Set) Entries() []Entry {
	return append([]Entry(nil), s.entries...)
}

// Lines returns the raw header lines in order.
func (s *Set) Lines() []string {
	lines := make([]string, len(s.entries))
	for i, e := range s.entries {
		lines[i] = e.Text
	}
	return lines
}

// Header converts the set into the form net/http sends. Lines without a colon are skipped.
// A line with an empty value is kept as an empty value, which for User-Agent means "send none".
func (s *Set) Header() http.Header {
	h := make(http.Header, len(s.entries))
	for _, e := range s.entries {
		name, ok := e.Name()
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		h[http.CanonicalHeaderKey(name)] = []string{e.Value()}
	}
	return h
}

// ReleaseAll empties the set and returns how many owned lines it dropped.
func (s *Set) ReleaseAll() int {
	owned := 0
	for _, e := range s.entries {
		if e.Owned {
			owned++
		}
	}
	s.entries = nil
	return owned
}
