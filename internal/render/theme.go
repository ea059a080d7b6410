package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme names accepted by NewTheme, in display order.
var ThemeNames = []string{"classic", "neon", "mono"}

// Theme bundles the styles and glyphs every renderer pulls from.
type Theme struct {
	Name string

	Title    lipgloss.Style
	Muted    lipgloss.Style
	Accent   lipgloss.Style
	Success  lipgloss.Style
	Pending  lipgloss.Style
	Error    lipgloss.Style
	Selected lipgloss.Style
	Done     lipgloss.Style
	Panel    lipgloss.Style

	BoxUnchecked, BoxChecked string
	Cursor                   string
	BarFull, BarEmpty        string
}

// NewTheme builds the named theme on r. A nil r uses the default renderer,
// which picks the color profile of stdout.
func NewTheme(name string, r *lipgloss.Renderer) (Theme, error) {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	s := r.NewStyle
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "classic":
		return Theme{
			Name:         "classic",
			Title:        s().Bold(true),
			Muted:        s().Faint(true),
			Accent:       s().Foreground(lipgloss.Color("12")),
			Success:      s().Foreground(lipgloss.Color("42")),
			Pending:      s().Foreground(lipgloss.Color("214")),
			Error:        s().Foreground(lipgloss.Color("9")).Bold(true),
			Selected:     s().Bold(true).Reverse(true),
			Done:         s().Faint(true).Strikethrough(true),
			Panel:        s().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1),
			BoxUnchecked: "☐",
			BoxChecked:   "☑",
			Cursor:       ">",
			BarFull:      "█",
			BarEmpty:     "░",
		}, nil
	case "neon":
		return Theme{
			Name:         "neon",
			Title:        s().Bold(true).Foreground(lipgloss.Color("13")),
			Muted:        s().Foreground(lipgloss.Color("8")),
			Accent:       s().Foreground(lipgloss.Color("14")),
			Success:      s().Foreground(lipgloss.Color("10")),
			Pending:      s().Foreground(lipgloss.Color("11")),
			Error:        s().Foreground(lipgloss.Color("9")).Bold(true),
			Selected:     s().Bold(true).Foreground(lipgloss.Color("13")),
			Done:         s().Foreground(lipgloss.Color("8")).Strikethrough(true),
			Panel:        s().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("13")).Padding(0, 1),
			BoxUnchecked: "◻",
			BoxChecked:   "◼",
			Cursor:       "▸",
			BarFull:      "▰",
			BarEmpty:     "▱",
		}, nil
	case "mono":
		plain := s()
		return Theme{
			Name:         "mono",
			Title:        plain,
			Muted:        plain,
			Accent:       plain,
			Success:      plain,
			Pending:      plain,
			Error:        plain,
			Selected:     plain,
			Done:         plain,
			Panel:        s().Border(lipgloss.NormalBorder()).Padding(0, 1),
			BoxUnchecked: "[ ]",
			BoxChecked:   "[x]",
			Cursor:       ">",
			BarFull:      "#",
			BarEmpty:     "-",
		}, nil
	default:
		return Theme{}, fmt.Errorf("render: unknown theme %q (want one of %s)", name, strings.Join(ThemeNames, ", "))
	}
}
