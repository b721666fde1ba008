package catalog

import "github.com/vidrelay/vidrelay/content"

var everything = []content.Type{content.Movie, content.Series, content.Anime, content.Documentary}

// Builtin returns the providers shipped with the binary.
func Builtin() []Descriptor {
	return []Descriptor{
		{
			ID:       "nest",
			Name:     "VidNest",
			Rank:     1,
			Endpoint: "https://vidnest.example/embed",
			Types:    everything,
			Grammar:  GrammarPath,
			Features: Features{Autoplay: true},
		},
		{
			ID:       "lumen",
			Name:     "Lumen",
			Rank:     2,
			Endpoint: "https://lumen.example/e",
			Types:    []content.Type{content.Movie, content.Series, content.Documentary},
			Grammar:  GrammarDashed,
		},
		{
			ID:       "kaze",
			Name:     "Kaze",
			Rank:     3,
			Endpoint: "https://kaze.example/player",
			Types:    []content.Type{content.Series, content.Anime},
			Grammar:  GrammarQuery,
			Features: Features{Autoplay: true},
		},
		{
			ID:       "harbor",
			Name:     "Harbor",
			Rank:     4,
			Endpoint: "https://harbor.example/embed",
			Types:    []content.Type{content.Movie, content.Documentary},
			Grammar:  GrammarPath,
		},
		{
			ID:       "relay",
			Name:     "Relay",
			Rank:     5,
			Endpoint: "https://relay.example/watch",
			Types:    everything,
			Grammar:  GrammarQuery,
		},
	}
}
