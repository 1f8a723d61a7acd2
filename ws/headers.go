package ws

import (
	"net/http"
	"sort"
	"strings"
)

// Headers is an ordered, case-insensitive, multi-valued header collection.
// The casing of the first occurrence of a name is preserved, lookups
// succeed regardless of the case used by the caller, and values keep
// their insertion order. The zero value is empty and ready to use.
type Headers struct {
	entries []headerEntry
}

type headerEntry struct {
	name   string
	values []string
}

func (h *Headers) index(name string) int {
	for i := range h.entries {
		if strings.EqualFold(h.entries[i].name, name) {
			return i
		}
	}
	return -1
}

// Add appends a value to the named header, creating the entry if absent.
// A second Add with the same name (any casing) appends rather than replaces.
func (h *Headers) Add(name, value string) {
	if i := h.index(name); i >= 0 {
		h.entries[i].values = append(h.entries[i].values, value)
		return
	}
	h.entries = append(h.entries, headerEntry{name: name, values: []string{value}})
}

// Set replaces all values of the named header, keeping the original
// position and casing if the entry already exists.
func (h *Headers) Set(name, value string) {
	if i := h.index(name); i >= 0 {
		h.entries[i].values = []string{value}
		return
	}
	h.entries = append(h.entries, headerEntry{name: name, values: []string{value}})
}

// Delete removes the named header entirely, regardless of case.
func (h *Headers) Delete(name string) {
	if i := h.index(name); i >= 0 {
		h.entries = append(h.entries[:i], h.entries[i+1:]...)
	}
}

// Get returns the first value of the named header, or "" if absent.
func (h Headers) Get(name string) string {
	if i := h.index(name); i >= 0 {
		return h.entries[i].values[0]
	}
	return ""
}

// Values returns all values of the named header in insertion order,
// or nil if absent.
func (h Headers) Values(name string) []string {
	if i := h.index(name); i >= 0 {
		return append([]string(nil), h.entries[i].values...)
	}
	return nil
}

// Contains reports whether the named header is present.
func (h Headers) Contains(name string) bool {
	return h.index(name) >= 0
}

// Names returns the header names in insertion order, with first-seen casing.
func (h Headers) Names() []string {
	names := make([]string, len(h.entries))
	for i, e := range h.entries {
		names[i] = e.name
	}
	return names
}

// Len returns the number of distinct header names.
func (h Headers) Len() int {
	return len(h.entries)
}

// Clone returns a deep copy.
func (h Headers) Clone() Headers {
	entries := make([]headerEntry, len(h.entries))
	for i, e := range h.entries {
		entries[i] = headerEntry{name: e.name, values: append([]string(nil), e.values...)}
	}
	return Headers{entries: entries}
}

// ForEach calls fn once per (name, value) pair, names in insertion order
// and values in their stored order.
func (h Headers) ForEach(fn func(name, value string)) {
	for _, e := range h.entries {
		for _, v := range e.values {
			fn(e.name, v)
		}
	}
}

// NormalizeHeaders converts a wire header map into a Headers collection.
// http.Header has no stable iteration order, so names are visited in
// sorted order for determinism; per-name value order is preserved as
// received. Pure: the input is not modified.
func NormalizeHeaders(raw http.Header) Headers {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	var h Headers
	for _, name := range names {
		for _, v := range raw[name] {
			h.Add(name, v)
		}
	}
	return h
}
