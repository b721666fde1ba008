package cmd

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidrelay/vidrelay/address"
	"github.com/vidrelay/vidrelay/catalog"
	"github.com/vidrelay/vidrelay/content"
	"github.com/vidrelay/vidrelay/failover"
	"github.com/vidrelay/vidrelay/key"
	"github.com/vidrelay/vidrelay/preference"
	"github.com/vidrelay/vidrelay/scope"
	"github.com/vidrelay/vidrelay/throttle"
)

// addRequestFlags registers the flags describing what to play.
func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("type", "t", string(content.Movie), "Content type: movie, series, anime or documentary")
	lo.Must0(cmd.RegisterFlagCompletionFunc("type", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return lo.Map(content.Types(), func(t content.Type, _ int) string { return t.String() }), cobra.ShellCompDirectiveNoFileComp
	}))
	cmd.Flags().IntP("season", "s", 0, "Season number for series and anime")
	cmd.Flags().IntP("episode", "e", 0, "Episode number for series and anime")
	cmd.Flags().BoolP("autoplay", "a", false, "Ask providers that support it to start playing immediately")
	cmd.Flags().Bool("strict", false, "Reject missing or non-positive season and episode numbers")
}

// requestFrom builds the request from the content id argument and the
// request flags. "id:season:episode" ids fill season and episode unless the
// flags set them.
func requestFrom(cmd *cobra.Command, raw string) (content.Request, error) {
	id, season, episode, err := content.ParseID(raw)
	if err != nil {
		return content.Request{}, err
	}

	if cmd.Flags().Changed("strict") {
		viper.Set(key.AddressStrictEpisodes, lo.Must(cmd.Flags().GetBool("strict")))
	}

	t, err := content.ParseType(lo.Must(cmd.Flags().GetString("type")))
	if err != nil {
		return content.Request{}, err
	}

	fromFlag := func(name string, parsed mo.Option[int]) mo.Option[int] {
		if cmd.Flags().Changed(name) {
			return mo.Some(lo.Must(cmd.Flags().GetInt(name)))
		}
		return parsed
	}

	req := content.Request{
		ContentID: id,
		Type:      t,
		Season:    fromFlag("season", season),
		Episode:   fromFlag("episode", episode),
		Autoplay:  lo.Must(cmd.Flags().GetBool("autoplay")),
	}
	return req, req.Validate()
}

func scopeFrom(cmd *cobra.Command) string {
	s, err := scope.Resolve(lo.Must(cmd.Flags().GetString("scope")))
	handleErr(err)
	return s
}

// pickProvider accepts an id, or a fuzzy name match when it is unambiguous.
func pickProvider(c *catalog.Catalog, query string) (string, error) {
	d, err := c.Describe(query)
	if err == nil {
		return d.ID, nil
	}

	if matches := c.Match(query); len(matches) == 1 {
		return matches[0].ID, nil
	}
	return "", err
}

func loadCatalog() *catalog.Catalog {
	c, err := catalog.Load()
	if err != nil {
		handleErr(fmt.Errorf("load provider catalog: %w", err))
	}
	return c
}

// dependencies assembles the controller collaborators from configuration.
// The caller closes the store.
func dependencies(store preference.Store) failover.Dependencies {
	c := loadCatalog()
	return failover.Dependencies{
		Catalog: c,
		Builder: address.FromConfig(c),
		Guard:   throttle.FromConfig(),
		Store:   store,
	}
}

func openStore() preference.Store {
	store, err := preference.FromConfig()
	handleErr(err)
	return store
}

func controllerOptions() []failover.Option {
	return []failover.Option{failover.PerType(viper.GetBool(key.PreferencePerType))}
}
