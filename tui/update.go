package tui

import (
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/mo"
	"github.com/vidrelay/vidrelay/failover"
	"github.com/vidrelay/vidrelay/probe"
)

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
		return b, nil
	case spinner.TickMsg:
		if b.probing == "" {
			return b, nil
		}
		var cmd tea.Cmd
		b.spinnerC, cmd = b.spinnerC.Update(msg)
		return b, cmd
	case probedMsg:
		return b, b.onProbed(probe.Result(msg))
	case retryMsg:
		return b, b.onRetry(msg)
	case openedMsg:
		if msg.err != nil {
			b.raiseError(msg.err)
		}
		return b, nil
	case error:
		b.raiseError(msg)
		return b, nil
	case tea.KeyMsg:
		if bubblesKey.Matches(msg, b.keymap.forceQuit) {
			return b, tea.Quit
		}
	}

	switch b.state {
	case resolveState:
		return b.updateResolve(msg)
	case sourcesState:
		return b.updateSources(msg)
	case errorState:
		return b.updateError(msg)
	}

	return b, nil
}

func (b *statefulBubble) updateResolve(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return b, nil
	}

	switch {
	case bubblesKey.Matches(keyMsg, b.keymap.quit):
		return b, tea.Quit
	case bubblesKey.Matches(keyMsg, b.keymap.success):
		if b.snapshot.Status == failover.StatusExhausted {
			return b, nil
		}
		return b, b.apply(b.controller.ReportSuccess())
	case bubblesKey.Matches(keyMsg, b.keymap.failure):
		return b, b.apply(b.controller.ReportFailure())
	case bubblesKey.Matches(keyMsg, b.keymap.reset):
		b.lastProbe = mo.None[probe.Result]()
		return b, b.apply(b.controller.Reset())
	case bubblesKey.Matches(keyMsg, b.keymap.switchSource):
		return b, b.showSources()
	case bubblesKey.Matches(keyMsg, b.keymap.openURL):
		if b.snapshot.Address == "" {
			return b, nil
		}
		return b, b.openAddress(b.snapshot.Address)
	}

	return b, nil
}

func (b *statefulBubble) updateSources(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case bubblesKey.Matches(keyMsg, b.keymap.back):
			b.previousState()
			return b, nil
		case bubblesKey.Matches(keyMsg, b.keymap.confirm):
			item, ok := b.sourcesC.SelectedItem().(*listItem)
			if !ok {
				return b, nil
			}
			b.previousState()
			return b, b.apply(b.controller.SwitchTo(item.descriptor.ID))
		}
	}

	var cmd tea.Cmd
	b.sourcesC, cmd = b.sourcesC.Update(msg)
	return b, cmd
}

func (b *statefulBubble) updateError(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return b, nil
	}

	switch {
	case bubblesKey.Matches(keyMsg, b.keymap.back):
		b.lastError = nil
		b.previousState()
	case bubblesKey.Matches(keyMsg, b.keymap.quit):
		return b, tea.Quit
	}

	return b, nil
}
