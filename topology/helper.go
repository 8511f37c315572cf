package topology

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseGUID parses a 64-bit node GUID. Accepted forms are the canonical
// colon-separated "0002:c903:00a1:b2c3", a 0x-prefixed hex number and 16
// bare hex digits.
func ParseGUID(s string) (uint64, error) {
	h := s
	switch {
	case strings.Count(h, ":") == 3:
		groups := strings.Split(h, ":")
		for _, g := range groups {
			if len(g) != 4 {
				return 0, fmt.Errorf("invalid GUID %q", s)
			}
		}
		h = strings.Join(groups, "")
	case strings.HasPrefix(h, "0x") || strings.HasPrefix(h, "0X"):
		h = h[2:]
		if len(h) == 0 || len(h) > 16 {
			return 0, fmt.Errorf("invalid GUID %q", s)
		}
		h = strings.Repeat("0", 16-len(h)) + h
	}
	if len(h) != 16 || !isHex(h) {
		return 0, fmt.Errorf("invalid GUID %q", s)
	}
	return strconv.ParseUint(h, 16, 64)
}

// FormatGUID renders g in canonical colon-separated form.
func FormatGUID(g uint64) string {
	return fmt.Sprintf("%04x:%04x:%04x:%04x",
		g>>48, g>>32&0xffff, g>>16&0xffff, g&0xffff)
}

// CanonicalGUID parses s and returns its canonical form.
func CanonicalGUID(s string) (string, error) {
	g, err := ParseGUID(s)
	if err != nil {
		return "", err
	}
	return FormatGUID(g), nil
}

func isHexDigit(c rune) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func isHex(s string) bool {
	for _, c := range s {
		if !isHexDigit(c) {
			return false
		}
	}
	return true
}
