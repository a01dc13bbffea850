package explain

import (
	"strings"

	"github.com/fatih/color"
)

// Highlighter colours formatted plan text for terminals: section headers,
// the ordinal and depth prefix, and the operator name of each line.
type Highlighter struct {
	header   *color.Color
	prefix   *color.Color
	operator *color.Color
}

// NewHighlighter returns a highlighter. When enabled is false Highlight
// returns its input unchanged.
func NewHighlighter(enabled bool) *Highlighter {
	h := &Highlighter{
		header:   color.New(color.FgBlue, color.Bold),
		prefix:   color.New(color.FgHiBlack),
		operator: color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{h.header, h.prefix, h.operator} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return h
}

// Highlight colours every line of text produced by Format.
func (h *Highlighter) Highlight(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = h.line(line)
	}
	return strings.Join(lines, "\n")
}

func (h *Highlighter) line(line string) string {
	if line == LogicalHeader || line == PhysicalHeader {
		return h.header.Sprint(line)
	}

	end := strings.IndexByte(line, ')')
	if end < 0 {
		return line
	}
	body := strings.TrimLeft(line[end+1:], "-")
	prefix := line[:len(line)-len(body)]

	name, rest := body, ""
	if colon := strings.IndexByte(body, ':'); colon >= 0 {
		name, rest = body[:colon], body[colon:]
	}
	return h.prefix.Sprint(prefix) + h.operator.Sprint(name) + rest
}
