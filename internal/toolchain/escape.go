package toolchain

import "strings"

// EscapeFilterPath escapes a path for interpolation inside a filter-graph
// expression (e.g. `subtitles='<path>'`, `ass='<path>'`). The encoder's
// filter grammar treats backslash, colon, single-quote, brackets,
// semicolons, and commas specially; each is backslash-escaped, and
// backslash itself is quadrupled because the path passes through the
// filter parser twice (once for the filter argument list, once for the
// quoted string inside it).
func EscapeFilterPath(path string) string {
	var b strings.Builder
	for _, r := range path {
		switch r {
		case '\\':
			b.WriteString(`\\\\`)
		case ':':
			b.WriteString(`\:`)
		case '\'':
			b.WriteString(`\'`)
		case '[', ']', ';', ',':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EscapeListFilePath quotes a path for a concat demuxer list file entry
// (`file '<path>'`), using the single-quote grammar where an embedded
// quote is closed, escaped, and reopened: `'\''`.
func EscapeListFilePath(path string) string {
	return "'" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}
