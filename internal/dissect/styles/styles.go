// Package styles holds the colours shared by the markdown reports and the
// interactive listing view.
package styles

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"
)

func boolPtr(b bool) *bool       { return &b }
func stringPtr(s string) *string { return &s }
func uintPtr(u uint) *uint       { return &u }

var (
	// Title heads the symbol list.
	Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color(charmtone.Charple.Hex())).
		MarginLeft(2)

	// MenuBar is the key help line at the bottom of the view.
	MenuBar = lipgloss.NewStyle().
		Background(lipgloss.Color(charmtone.Pepper.Hex())).
		Foreground(lipgloss.Color(charmtone.Smoke.Hex())).
		Padding(0, 1)

	// Spinner colours the loading indicator.
	Spinner = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Dolly.Hex()))

	// Selected marks the highlighted list row.
	Selected = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Zest.Hex()))

	// Address dims the address column of list rows.
	Address = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Squid.Hex()))
)

// MarkdownRenderer returns a glamour renderer for the info report and the
// view header, wrapping prose at width.
func MarkdownRenderer(width int) (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithStyles(MarkdownStyle()),
		glamour.WithWordWrap(width),
	)
}

// MarkdownStyle returns the markdown style configuration
func MarkdownStyle() ansi.StyleConfig {
	heading := func(prefix string, color charmtone.Key) ansi.StyleBlock {
		return ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Prefix: prefix,
				Color:  stringPtr(color.Hex()),
				Bold:   boolPtr(true),
			},
		}
	}
	return ansi.StyleConfig{
		Document: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color: stringPtr(charmtone.Smoke.Hex()),
			},
		},
		BlockQuote: ansi.StyleBlock{
			Indent:      uintPtr(1),
			IndentToken: stringPtr("│ "),
		},
		List: ansi.StyleList{
			LevelIndent: 2,
		},
		Heading: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				BlockSuffix: "\n",
				Color:       stringPtr(charmtone.Malibu.Hex()),
				Bold:        boolPtr(true),
			},
		},
		H1: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Prefix:          " ",
				Suffix:          " ",
				Color:           stringPtr(charmtone.Zest.Hex()),
				BackgroundColor: stringPtr(charmtone.Charple.Hex()),
				Bold:            boolPtr(true),
			},
		},
		H2: heading("## ", charmtone.Malibu),
		H3: heading("### ", charmtone.Guac),
		Strong: ansi.StylePrimitive{
			Bold: boolPtr(true),
		},
		Emph: ansi.StylePrimitive{
			Italic: boolPtr(true),
		},
		Item: ansi.StylePrimitive{
			BlockPrefix: "• ",
		},
		Enumeration: ansi.StylePrimitive{
			BlockPrefix: ". ",
		},
		Code: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color: stringPtr(charmtone.Malibu.Hex()),
			},
		},
		CodeBlock: ansi.StyleCodeBlock{
			StyleBlock: ansi.StyleBlock{
				StylePrimitive: ansi.StylePrimitive{
					Color: stringPtr(charmtone.Salt.Hex()),
				},
				Margin: uintPtr(2),
			},
		},
		Table: ansi.StyleTable{
			CenterSeparator: stringPtr("┼"),
			ColumnSeparator: stringPtr("│"),
			RowSeparator:    stringPtr("─"),
		},
		HorizontalRule: ansi.StylePrimitive{
			Color:  stringPtr(charmtone.Charcoal.Hex()),
			Format: "\n--------\n",
		},
	}
}
