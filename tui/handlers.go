package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/vidrelay/vidrelay/failover"
	"github.com/vidrelay/vidrelay/log"
	"github.com/vidrelay/vidrelay/probe"
)

type (
	probedMsg probe.Result
	retryMsg  struct{ address string }
	openedMsg struct {
		address string
		err     error
	}
)

// apply takes a fresh snapshot and schedules whatever the new status calls
// for: a probe while resolving, a retry while throttled, opening the
// address once settled.
func (b *statefulBubble) apply(snap failover.Snapshot, err error) tea.Cmd {
	b.snapshot = snap
	if err != nil {
		b.raiseError(err)
		return nil
	}

	switch snap.Status {
	case failover.StatusResolving:
		return b.probe(snap.Address)
	case failover.StatusThrottled:
		address := snap.Address
		return tea.Tick(snap.RetryAfter, func(time.Time) tea.Msg {
			return retryMsg{address: address}
		})
	case failover.StatusSettled:
		b.probing = ""
		if b.openOnSettle && b.opened != snap.Address {
			return b.openAddress(snap.Address)
		}
	case failover.StatusExhausted:
		b.probing = ""
	}

	return nil
}

func (b *statefulBubble) probe(address string) tea.Cmd {
	if b.prober == nil || address == "" {
		return nil
	}

	b.probing = address
	prober := b.prober
	return tea.Batch(b.spinnerC.Tick, func() tea.Msg {
		return probedMsg(prober.Probe(context.Background(), address))
	})
}

// onProbed reports the outcome of a probe unless the user moved on while it ran.
func (b *statefulBubble) onProbed(result probe.Result) tea.Cmd {
	if result.Address != b.probing || result.Address != b.snapshot.Address || b.snapshot.Status != failover.StatusResolving {
		return nil
	}

	b.probing = ""
	b.lastProbe = mo.Some(result)
	log.WithFields(log.Fields{
		"provider": b.snapshot.ProviderID,
		"status":   result.Status,
		"latency":  result.Latency,
	}).Debug("probed address")

	if result.Playable() {
		return b.apply(b.controller.ReportSuccess())
	}
	return b.apply(b.controller.ReportFailure())
}

func (b *statefulBubble) onRetry(msg retryMsg) tea.Cmd {
	if b.snapshot.Status != failover.StatusThrottled || b.snapshot.Address != msg.address {
		return nil
	}
	return b.apply(b.controller.ReportFailure())
}

func (b *statefulBubble) openAddress(address string) tea.Cmd {
	b.opened = address
	opener := b.open
	return func() tea.Msg {
		return openedMsg{address: address, err: opener(address)}
	}
}

func (b *statefulBubble) showSources() tea.Cmd {
	items := newListItems(b.catalog, b.snapshot.Type, b.snapshot.ProviderID, b.snapshot.Tried)
	cmd := b.sourcesC.SetItems(lo.Map(items, func(i *listItem, _ int) list.Item { return i }))

	if index := lo.IndexOf(lo.Map(items, func(i *listItem, _ int) bool { return i.active }), true); index >= 0 {
		b.sourcesC.Select(index)
	} else {
		b.sourcesC.ResetSelected()
	}

	b.newState(sourcesState)
	return cmd
}
