package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidrelay/vidrelay/catalog"
	"github.com/vidrelay/vidrelay/content"
	"github.com/vidrelay/vidrelay/failover"
	"github.com/vidrelay/vidrelay/preference"
	"github.com/vidrelay/vidrelay/probe"
	"github.com/vidrelay/vidrelay/throttle"
)

func testCatalog() *catalog.Catalog {
	provider := func(id string, rank int) catalog.Descriptor {
		return catalog.Descriptor{
			ID:       id,
			Rank:     rank,
			Endpoint: "https://" + id + ".example/embed",
			Types:    []content.Type{content.Movie},
			Grammar:  catalog.GrammarPath,
		}
	}
	return catalog.MustNew(provider("A", 1), provider("B", 2), provider("C", 3))
}

type fakeProber map[string]probe.Status

func (f fakeProber) Probe(_ context.Context, address string) probe.Result {
	return probe.Result{Address: address, Status: f[address]}
}

func newTestBubble(capacity int, prober Prober, opened *[]string) *statefulBubble {
	c := testCatalog()
	ctrl := failover.New("tester", failover.Dependencies{
		Catalog: c,
		Guard:   throttle.New(throttle.Settings{Capacity: capacity, RefillRate: 0.01}),
		Store:   preference.NewMemory(),
	})
	_, err := ctrl.Start(content.Request{ContentID: "42", Type: content.Movie})
	So(err, ShouldBeNil)

	return newBubble(&Options{
		Catalog:      c,
		Controller:   ctrl,
		Prober:       prober,
		OpenOnSettle: true,
		Open: func(address string) error {
			*opened = append(*opened, address)
			return nil
		},
	})
}

func press(b *statefulBubble, keys string) tea.Cmd {
	var msg tea.KeyMsg
	switch keys {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	_, cmd := b.Update(msg)
	return cmd
}

func TestManualReports(t *testing.T) {
	Convey("Given a watch surface without a prober", t, func() {
		var opened []string
		b := newTestBubble(5, nil, &opened)
		So(b.Init(), ShouldBeNil)
		So(b.snapshot.ProviderID, ShouldEqual, "A")
		So(b.View(), ShouldContainSubstring, "Source 1")

		Convey("f moves to the next source", func() {
			press(b, "f")
			So(b.snapshot.ProviderID, ShouldEqual, "B")
			So(b.View(), ShouldContainSubstring, "Tried: Source 1")
		})

		Convey("enter settles and opens the address once", func() {
			cmd := press(b, "enter")
			So(b.snapshot.Status, ShouldEqual, failover.StatusSettled)
			So(cmd, ShouldNotBeNil)

			msg := cmd()
			So(msg, ShouldResemble, openedMsg{address: "https://A.example/embed/movie/42"})
			So(opened, ShouldHaveLength, 1)

			So(press(b, "enter"), ShouldBeNil)
		})

		Convey("Failing every source exhausts and enter is ignored", func() {
			press(b, "f")
			press(b, "f")
			press(b, "f")
			So(b.snapshot.Status, ShouldEqual, failover.StatusExhausted)
			So(press(b, "enter"), ShouldBeNil)
			So(b.state, ShouldEqual, resolveState)

			Convey("r starts over", func() {
				press(b, "r")
				So(b.snapshot.Status, ShouldEqual, failover.StatusResolving)
				So(b.snapshot.ProviderID, ShouldEqual, "A")
			})
		})

		Convey("s opens the source list with the active provider selected", func() {
			press(b, "f")
			press(b, "s")
			So(b.state, ShouldEqual, sourcesState)
			So(b.sourcesC.Items(), ShouldHaveLength, 3)
			So(b.sourcesC.Index(), ShouldEqual, 1)

			Convey("enter switches to the highlighted source", func() {
				b.sourcesC.Select(2)
				press(b, "enter")
				So(b.state, ShouldEqual, resolveState)
				So(b.snapshot.ProviderID, ShouldEqual, "C")
				So(b.snapshot.Tried, ShouldBeEmpty)
			})

			Convey("esc goes back without switching", func() {
				press(b, "esc")
				So(b.state, ShouldEqual, resolveState)
				So(b.snapshot.ProviderID, ShouldEqual, "B")
			})
		})

		Convey("Errors are shown until dismissed", func() {
			b.Update(errors.New("boom"))
			So(b.state, ShouldEqual, errorState)
			So(b.View(), ShouldContainSubstring, "boom")

			press(b, "esc")
			So(b.state, ShouldEqual, resolveState)
		})
	})
}

func TestAutomaticReports(t *testing.T) {
	Convey("Given a watch surface with a prober where only C plays", t, func() {
		var opened []string
		prober := fakeProber{
			"https://A.example/embed/movie/42": probe.StatusBadStatus,
			"https://B.example/embed/movie/42": probe.StatusCloudflare,
			"https://C.example/embed/movie/42": probe.StatusOK,
		}
		b := newTestBubble(5, prober, &opened)

		So(b.Init(), ShouldNotBeNil)
		So(b.probing, ShouldEqual, "https://A.example/embed/movie/42")

		Convey("Probe results drive the controller until one plays", func() {
			b.Update(probedMsg(prober.Probe(context.Background(), b.probing)))
			So(b.snapshot.ProviderID, ShouldEqual, "B")

			b.Update(probedMsg(prober.Probe(context.Background(), b.probing)))
			So(b.snapshot.ProviderID, ShouldEqual, "C")

			_, cmd := b.Update(probedMsg(prober.Probe(context.Background(), b.probing)))
			So(b.snapshot.Status, ShouldEqual, failover.StatusSettled)
			So(b.snapshot.ProviderID, ShouldEqual, "C")
			So(cmd, ShouldNotBeNil)
		})

		Convey("A probe for an address the user already left is ignored", func() {
			press(b, "f")
			So(b.snapshot.ProviderID, ShouldEqual, "B")

			b.Update(probedMsg(probe.Result{Address: "https://A.example/embed/movie/42", Status: probe.StatusOK}))
			So(b.snapshot.Status, ShouldEqual, failover.StatusResolving)
			So(b.snapshot.ProviderID, ShouldEqual, "B")
		})
	})
}

func TestThrottledRetry(t *testing.T) {
	Convey("Given a watch surface with a single retry token", t, func() {
		var opened []string
		b := newTestBubble(1, nil, &opened)

		press(b, "f")
		So(b.snapshot.ProviderID, ShouldEqual, "B")

		cmd := press(b, "f")
		So(b.snapshot.Status, ShouldEqual, failover.StatusThrottled)
		So(cmd, ShouldNotBeNil)
		So(b.View(), ShouldContainSubstring, "Too many retries")

		Convey("A retry while still out of tokens stays throttled", func() {
			b.Update(retryMsg{address: b.snapshot.Address})
			So(b.snapshot.Status, ShouldEqual, failover.StatusThrottled)
		})

		Convey("A stale retry is ignored", func() {
			b.Update(retryMsg{address: "https://elsewhere.example"})
			So(b.snapshot.Status, ShouldEqual, failover.StatusThrottled)
		})
	})
}
