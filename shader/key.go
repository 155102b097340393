// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shader

import (
	"strconv"
	"strings"
)

// ResourceKey identifies a descriptor binding slot.
type ResourceKey struct {
	Binding uint32
	Set     uint32
}

// String returns the canonical "binding:set" form.
func (k ResourceKey) String() string {
	var buf [24]byte
	b := strconv.AppendUint(buf[:0], uint64(k.Binding), 10)
	b = append(b, ':')
	b = strconv.AppendUint(b, uint64(k.Set), 10)
	return string(b)
}

// Compare orders keys by binding, then set. It returns -1, 0 or +1.
func (k ResourceKey) Compare(other ResourceKey) int {
	switch {
	case k.Binding < other.Binding:
		return -1
	case k.Binding > other.Binding:
		return 1
	case k.Set < other.Set:
		return -1
	case k.Set > other.Set:
		return 1
	}
	return 0
}

// MarshalText implements encoding.TextMarshaler.
func (k ResourceKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ResourceKey) UnmarshalText(text []byte) error {
	parsed, err := ParseResourceKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseResourceKey parses the canonical "binding:set" form. Only unsigned
// decimal numbers without sign, padding, or leading zeros are accepted.
func ParseResourceKey(s string) (ResourceKey, error) {
	binding, set, ok := strings.Cut(s, ":")
	if !ok {
		return ResourceKey{}, NewError(ErrInvalidKeyFormat, "%q: missing ':'", s)
	}
	b, err := parseKeyPart(binding)
	if err != nil {
		return ResourceKey{}, NewError(ErrInvalidKeyFormat, "%q: binding %v", s, err)
	}
	st, err := parseKeyPart(set)
	if err != nil {
		return ResourceKey{}, NewError(ErrInvalidKeyFormat, "%q: set %v", s, err)
	}
	return ResourceKey{Binding: b, Set: st}, nil
}

type keyPartError string

func (e keyPartError) Error() string { return string(e) }

func parseKeyPart(s string) (uint32, error) {
	if s == "" {
		return 0, keyPartError("is empty")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, keyPartError("has non-digit " + strconv.QuoteRune(rune(s[i])))
		}
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, keyPartError("has a leading zero")
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, keyPartError("overflows uint32")
	}
	return uint32(v), nil
}
