// Package tui provides the interactive watch surface.
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vidrelay/vidrelay/catalog"
	"github.com/vidrelay/vidrelay/failover"
	"github.com/vidrelay/vidrelay/probe"
)

// Prober checks whether an address plays. *probe.Prober satisfies it.
type Prober interface {
	Probe(ctx context.Context, address string) probe.Result
}

// Options encapsulates the runtime configuration of the watch surface.
type Options struct {
	Catalog *catalog.Catalog

	// Controller must already be started.
	Controller *failover.Controller

	// Prober turns on automatic success and failure reports. Nil means the
	// user reports every outcome by hand.
	Prober Prober

	// OpenOnSettle opens the address once a provider settles.
	OpenOnSettle bool

	// Open defaults to open.Address.
	Open func(address string) error
}

// Run executes the Bubble Tea loop until the user quits and returns the
// last snapshot seen.
func Run(options *Options) (failover.Snapshot, error) {
	if options.Controller == nil || options.Catalog == nil {
		return failover.Snapshot{}, errors.New("watch needs a catalog and a started controller")
	}

	bubble := newBubble(options)
	model, err := tea.NewProgram(bubble, tea.WithAltScreen()).Run()
	if err != nil {
		return bubble.snapshot, err
	}

	return model.(*statefulBubble).snapshot, nil
}
