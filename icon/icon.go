// Package icon renders UI symbols in one of several variants.
//
// Icons can be displayed as emoji, nerd-font glyphs, plain ASCII, kaomoji,
// or Unicode squares depending on user preference.
package icon

import (
	"github.com/spf13/viper"
	"github.com/vidrelay/vidrelay/key"
)

const (
	emoji   = "emoji"
	nerd    = "nerd"
	plain   = "plain"
	kaomoji = "kaomoji"
	squares = "squares"
)

// AvailableVariants returns every supported variant name.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain, kaomoji, squares}
}

// Icon identifies a symbol in the registry.
type Icon int

const (
	Success Icon = iota
	Fail
	Warn
	Question
	Mark
	Progress
	Source
	Throttled
	Exhausted
	Link
)

type iconDef struct {
	emoji   string
	nerd    string
	plain   string
	kaomoji string
	squares string
}

func (d *iconDef) Get() string {
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	case kaomoji:
		return d.kaomoji
	case squares:
		return d.squares
	default:
		return ""
	}
}

var icons = map[Icon]*iconDef{
	Success: {
		emoji:   "🎉",
		nerd:    "",
		plain:   "✓",
		kaomoji: "(ᵔ◡ᵔ)",
		squares: "🟩",
	},
	Fail: {
		emoji:   "💀",
		nerd:    "ﮊ",
		plain:   "✗",
		kaomoji: "(×﹏×)",
		squares: "🟥",
	},
	Warn: {
		emoji:   "⚠️",
		nerd:    "",
		plain:   "!",
		kaomoji: "(¬_¬)",
		squares: "🟨",
	},
	Question: {
		emoji:   "🤔",
		nerd:    "",
		plain:   "?",
		kaomoji: "(・_・ヾ",
		squares: "🟦",
	},
	Mark: {
		emoji:   "📌",
		nerd:    "",
		plain:   "*",
		kaomoji: "(*^▽^*)",
		squares: "🟪",
	},
	Progress: {
		emoji:   "⏳",
		nerd:    "",
		plain:   "~",
		kaomoji: "(o_O)",
		squares: "🟧",
	},
	Source: {
		emoji:   "📺",
		nerd:    "",
		plain:   "#",
		kaomoji: "[▀̿ ̿]",
		squares: "⬛",
	},
	Throttled: {
		emoji:   "🐢",
		nerd:    "",
		plain:   "…",
		kaomoji: "(－_－) zzZ",
		squares: "🟫",
	},
	Exhausted: {
		emoji:   "🚫",
		nerd:    "",
		plain:   "x",
		kaomoji: "(╯°□°)╯︵ ┻━┻",
		squares: "⬜",
	},
	Link: {
		emoji:   "🔗",
		nerd:    "",
		plain:   ">",
		kaomoji: "(☞ﾟヮﾟ)☞",
		squares: "▶",
	},
}

// Get returns the rendering of i for the configured variant.
func Get(i Icon) string {
	return icons[i].Get()
}

// ForStatus picks the icon matching a resolution status name.
func ForStatus(status string) Icon {
	switch status {
	case "settled":
		return Success
	case "throttled":
		return Throttled
	case "exhausted":
		return Exhausted
	case "resolving":
		return Progress
	default:
		return Question
	}
}
