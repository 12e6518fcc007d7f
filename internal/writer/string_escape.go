package writer

import "strings"

// EscapePDFString escapes a Go string for embedding in a PDF literal string
// object, i.e. between unescaped parentheses (PDF 1.7 §7.3.4.2).
func EscapePDFString(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`(`, `\(`,
		`)`, `\)`,
		"\r", `\r`,
	)
	return replacer.Replace(s)
}
