package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wrap"
	"github.com/samber/lo"
	"github.com/vidrelay/vidrelay/color"
	"github.com/vidrelay/vidrelay/failover"
	"github.com/vidrelay/vidrelay/icon"
	"github.com/vidrelay/vidrelay/style"
	"github.com/vidrelay/vidrelay/util"
)

var (
	listExtraPaddingStyle = lipgloss.NewStyle().Padding(1, 2, 1, 0)
	paddingStyle          = lipgloss.NewStyle().Padding(1, 2)
)

func (b *statefulBubble) View() string {
	switch b.state {
	case resolveState:
		return b.viewResolve()
	case sourcesState:
		return listExtraPaddingStyle.Render(b.sourcesC.View())
	case errorState:
		return b.viewError()
	default:
		return "Unknown state"
	}
}

func (b *statefulBubble) viewResolve() string {
	snap := b.snapshot
	truncate := style.Truncate(b.width)

	lines := []string{
		style.Title("Watch") + " " + style.Status(snap.Status.String()),
		"",
		style.Faint(fmt.Sprintf("%s %s", snap.Type, snap.ContentKey)),
		"",
	}

	if snap.ProviderID != "" {
		lines = append(lines,
			truncate(fmt.Sprintf("%s %s", icon.Get(icon.Source), style.Fg(color.Purple)(snap.Label))),
			truncate(fmt.Sprintf("%s %s", icon.Get(icon.Link), style.Underline(snap.Address))),
			"",
		)
	}

	lines = append(lines, truncate(b.statusLine()))

	if len(snap.Tried) > 0 {
		tried := lo.Map(snap.Tried, func(id string, _ int) string { return b.catalog.Label(id) })
		lines = append(lines, "", style.Faint("Tried: "+strings.Join(tried, ", ")))
	}

	if result, ok := b.lastProbe.Get(); ok && snap.Status != failover.StatusResolving {
		lines = append(lines, style.Faint(fmt.Sprintf("Last probe: %s in %s", result.Status, result.Latency.Round(time.Millisecond))))
	}

	return b.renderLines(true, lines)
}

func (b *statefulBubble) statusLine() string {
	snap := b.snapshot

	switch snap.Status {
	case failover.StatusResolving:
		if b.probing != "" {
			return b.spinnerC.View() + " Checking " + snap.Label
		}
		return icon.Get(icon.Question) + " Does it play? Attempt " + fmt.Sprint(snap.Attempts)
	case failover.StatusSettled:
		return icon.Get(icon.Success) + " Playing from " + style.Fg(color.Green)(snap.Label)
	case failover.StatusThrottled:
		return icon.Get(icon.Throttled) + " Too many retries, trying the next source in " +
			util.Quantify(snap.RetryAfterSeconds(), "second", "seconds")
	case failover.StatusExhausted:
		return icon.Get(icon.Exhausted) + " Every source failed. Press r to start over or s to pick one"
	default:
		return icon.Get(icon.Warn) + " Nothing to resolve"
	}
}

func (b *statefulBubble) viewError() string {
	errorStyle := lipgloss.NewStyle().Foreground(style.ErrorColor).Bold(true)
	message := "unknown error"
	if b.lastError != nil {
		message = b.lastError.Error()
	}

	return b.renderLines(
		true,
		[]string{
			style.ErrorTitle("Error"),
			"",
			icon.Get(icon.Fail) + " An error occurred:",
			"",
			wrap.String(errorStyle.Render(message), util.Max(b.width, 20)),
		},
	)
}

func (b *statefulBubble) renderLines(addHelp bool, lines []string) string {
	h := len(lines)
	l := strings.Join(lines, "\n")
	if addHelp {
		if b.height > h {
			l += strings.Repeat("\n", b.height-h)
		}
		l += b.helpC.View(b.keymap)
	}

	return paddingStyle.Render(l)
}
