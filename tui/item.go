package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/vidrelay/vidrelay/catalog"
	"github.com/vidrelay/vidrelay/content"
	"github.com/vidrelay/vidrelay/icon"
	"github.com/vidrelay/vidrelay/style"
)

// listItem is one provider in the switch list. It shows the ordinal label,
// never the endpoint.
type listItem struct {
	descriptor catalog.Descriptor
	label      string
	active     bool
	tried      bool
}

func newListItems(c *catalog.Catalog, t content.Type, active string, tried []string) []*listItem {
	return lo.Map(c.Providers(t), func(d catalog.Descriptor, _ int) *listItem {
		return &listItem{
			descriptor: d,
			label:      c.Label(d.ID),
			active:     d.ID == active,
			tried:      slices.Contains(tried, d.ID),
		}
	})
}

func (t *listItem) getMark() string {
	switch {
	case t.active:
		return lipgloss.NewStyle().Bold(true).Foreground(style.AccentColor).Render(icon.Get(icon.Mark))
	case t.tried:
		return style.Faint(icon.Get(icon.Fail))
	default:
		return ""
	}
}

func (t *listItem) Title() string {
	if mark := t.getMark(); mark != "" {
		return fmt.Sprintf("%s %s", t.label, mark)
	}
	return t.label
}

func (t *listItem) Description() string {
	types := lo.Map(t.descriptor.Types, func(ct content.Type, _ int) string { return ct.String() })

	var parts []string
	parts = append(parts, strings.Join(types, ", "))
	if t.descriptor.Features.Autoplay {
		parts = append(parts, "autoplay")
	}
	switch {
	case t.active:
		parts = append(parts, lipgloss.NewStyle().Foreground(style.SuccessColor).Render("current"))
	case t.tried:
		parts = append(parts, lipgloss.NewStyle().Foreground(style.FaintColor).Render("tried"))
	}

	return strings.Join(parts, " • ")
}

func (t *listItem) FilterValue() string {
	return t.label + " " + t.descriptor.ID
}
