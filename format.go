package pattern

import "strings"

// FormatMode selects one of the path text formats spec §6/§4.7 describe for
// tests and tools.
type FormatMode int

const (
	// FormatFull renders every step of a path, one line per envelope, each
	// prefixed with its 8-hex-digit digest prefix (spec §6 "Full mode").
	FormatFull FormatMode = iota
	// FormatLastOnly renders only the terminal envelope of each path
	// (spec §6 "Last-only").
	FormatLastOnly
	// FormatURSummary renders only the terminal envelope's digest, as a
	// `ur:envelope/<prefix>` token — a compact form for diffing large
	// result sets in tests (spec §4.7 "UR-summary").
	FormatURSummary
)

// FormatPaths renders a list of paths, one path per (possibly multi-line)
// block, separated by blank lines.
func FormatPaths(paths []Path, mode FormatMode) string {
	blocks := make([]string, len(paths))
	for i, p := range paths {
		blocks[i] = FormatPath(p, mode)
	}
	return strings.Join(blocks, "\n\n")
}

// FormatPath renders one path under mode.
func FormatPath(path Path, mode FormatMode) string {
	tail := path.Tail()
	if tail == nil {
		return ""
	}
	switch mode {
	case FormatLastOnly:
		return tail.Format()
	case FormatURSummary:
		d := tail.Digest()
		return "ur:envelope/" + d.HexPrefix(8)
	default:
		lines := make([]string, len(path))
		for i, e := range path {
			d := e.Digest()
			lines[i] = d.HexPrefix(8) + " " + e.Format()
		}
		return strings.Join(lines, "\n")
	}
}
