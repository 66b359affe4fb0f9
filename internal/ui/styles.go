package ui

import (
	"fmt"
	"strings"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent = 74  // blue
	colorGroup  = 179 // amber
	colorMuted  = 245 // medium gray
	colorError  = 167 // red
)

var noColor bool

func paint(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderMember returns a member name in the accent (blue) color, bold.
func RenderMember(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[1;38;5;%dm%s\x1b[0m", colorAccent, s)
}

// RenderStatus colors the group part of a "<messages> - <group>" status line.
// Lines without the separator are returned unchanged.
func RenderStatus(line string) string {
	i := strings.LastIndex(line, " - ")
	if i < 0 {
		return line
	}
	return line[:i] + RenderMuted(" - ") + paint(colorGroup, line[i+3:])
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	return paint(colorMuted, s)
}

// RenderError returns s in the error (red) color.
func RenderError(s string) string {
	return paint(colorError, s)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
