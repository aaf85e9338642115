package util

import (
    "strconv"
    "strings"
    "unicode"
    "unicode/utf8"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
    s = strings.TrimSpace(s)
    if s == "" {
        return def
    }
    v, err := strconv.Atoi(s)
    if err != nil {
        return def
    }
    return v
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
    r, size := utf8.DecodeRuneInString(s)
    if r == utf8.RuneError {
        return s
    }
    return string(unicode.ToUpper(r)) + s[size:]
}
