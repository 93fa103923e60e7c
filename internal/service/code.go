package service

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CodeMaxLength is the length limit of a derived registry code.
const CodeMaxLength = 20

var (
	// \p{Z} covers the Unicode separators \s misses, such as U+00A0.
	nonCodeChars = regexp.MustCompile(`[^A-Z0-9\s\p{Z}]+`)
	whitespace   = regexp.MustCompile(`[\s\p{Z}]+`)
)

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, _ := transform.String(t, s)
	return out
}

// DeriveCode turns a human name into a registry code.
// Example: "Documentos Fiscais" -> "DOCUMENTOS_FISCAIS", "Ofício nº 3" -> "OFICIO_N_3".
// A name without any letter or digit yields "".
func DeriveCode(name string) string {
	code := strings.ToUpper(stripDiacritics(name))
	code = nonCodeChars.ReplaceAllString(code, "")
	code = whitespace.ReplaceAllString(strings.TrimSpace(code), "_")
	if len(code) > CodeMaxLength {
		code = code[:CodeMaxLength]
	}
	return strings.TrimRight(code, "_")
}

// NormalizeCode applies the write-time normalization of explicitly supplied codes.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
