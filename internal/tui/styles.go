// Package tui provides terminal styling for gitbean output.
package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Colors
var (
	ColorPrimary   = lipgloss.Color("39")  // Blue
	ColorSecondary = lipgloss.Color("245") // Gray
	ColorSuccess   = lipgloss.Color("42")  // Green
	ColorDanger    = lipgloss.Color("196") // Red
	ColorMuted     = lipgloss.Color("240") // Dark gray
)

// Styles for command output
var (
	// Title style for headers such as the listed directory
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	DirStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	FileStyle = lipgloss.NewStyle()

	SizeStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// Detail label style
	LabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary).
			Width(8)

	ValueStyle = lipgloss.NewStyle()

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorDanger).
			Bold(true)
)

// EntryIcon returns the icon shown before a listing entry.
func EntryIcon(directory bool) string {
	if directory {
		return "▸"
	}
	return "·"
}

// EntryStyle returns the style for a listing entry.
func EntryStyle(directory bool) lipgloss.Style {
	if directory {
		return DirStyle
	}
	return FileStyle
}

// EntryName renders a listing entry name; directories get a trailing slash.
func EntryName(name string, directory bool) string {
	if directory {
		name += "/"
	}
	return EntryStyle(directory).Render(name)
}

// HumanSize formats a byte count for listings, e.g. "1.5 KiB".
func HumanSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// Field renders a "label value" line.
func Field(label, value string) string {
	return LabelStyle.Render(label) + " " + ValueStyle.Render(value)
}
