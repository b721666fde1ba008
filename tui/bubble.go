package tui

import (
	"github.com/charmbracelet/bubbles/help"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/vidrelay/vidrelay/catalog"
	"github.com/vidrelay/vidrelay/failover"
	"github.com/vidrelay/vidrelay/open"
	"github.com/vidrelay/vidrelay/probe"
	"github.com/vidrelay/vidrelay/style"
	"github.com/vidrelay/vidrelay/util"
)

// statefulBubble is the watch model: one controller, the provider list
// used for manual switching and whatever probe is in flight.
type statefulBubble struct {
	state         state
	previous      state
	keymap        *statefulKeymap
	spinnerC      spinner.Model
	sourcesC      list.Model
	helpC         help.Model
	width, height int

	catalog    *catalog.Catalog
	controller *failover.Controller
	prober     Prober
	open       func(string) error

	openOnSettle bool
	opened       string

	snapshot  failover.Snapshot
	probing   string
	lastProbe mo.Option[probe.Result]
	lastError error
}

func (b *statefulBubble) raiseError(err error) {
	b.lastError = err
	b.newState(errorState)
}

func (b *statefulBubble) setState(s state) {
	b.state = s
	b.keymap.setState(s)
}

// newState moves to s and remembers where it came from. The error state is
// never returned to.
func (b *statefulBubble) newState(s state) {
	if b.state == s {
		return
	}
	if b.state != errorState {
		b.previous = b.state
	}
	b.setState(s)
}

func (b *statefulBubble) previousState() {
	b.setState(b.previous)
	b.previous = resolveState
}

func (b *statefulBubble) resize(width, height int) {
	x, y := paddingStyle.GetFrameSize()
	xx, yy := listExtraPaddingStyle.GetFrameSize()

	listWidth := width - xx
	b.sourcesC.SetSize(listWidth, height-yy)
	b.sourcesC.Help.Width = listWidth

	b.width = width - x
	b.height = height - y
	b.helpC.Width = listWidth
}

func newBubble(options *Options) *statefulBubble {
	bubble := &statefulBubble{
		keymap:       newStatefulKeymap(),
		catalog:      options.Catalog,
		controller:   options.Controller,
		prober:       options.Prober,
		open:         lo.Ternary(options.Open != nil, options.Open, open.Address),
		openOnSettle: options.OpenOnSettle,
		snapshot:     options.Controller.Snapshot(),
	}

	bubble.helpC = help.New()

	bubble.spinnerC = spinner.New()
	bubble.spinnerC.Spinner = spinner.Dot
	bubble.spinnerC.Style = lipgloss.NewStyle().Foreground(style.AccentColor)

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(style.AccentColor).
		Foreground(style.AccentColor).
		Padding(0, 0, 0, 1)
	delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.Foreground(style.Text)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedTitle

	bubble.sourcesC = list.New([]list.Item{}, delegate, 0, 0)
	bubble.sourcesC.KeyMap = bubble.keymap.forList()
	bubble.sourcesC.AdditionalShortHelpKeys = bubble.keymap.ShortHelp
	bubble.sourcesC.AdditionalFullHelpKeys = func() []bubblesKey.Binding {
		return bubble.keymap.FullHelp()[0]
	}
	bubble.sourcesC.Title = "Sources"
	bubble.sourcesC.Styles.Title = lipgloss.NewStyle().Foreground(style.Base).Background(style.AccentColor).Padding(0, 1)
	bubble.sourcesC.Styles.NoItems = paddingStyle
	bubble.sourcesC.SetStatusBarItemName("source", "sources")
	bubble.sourcesC.SetFilteringEnabled(false)

	if w, h, err := util.TerminalSize(); err == nil {
		bubble.resize(w, h)
	}

	bubble.setState(resolveState)
	return bubble
}
