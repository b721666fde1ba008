package cmd

import (
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidrelay/vidrelay/failover"
	"github.com/vidrelay/vidrelay/key"
	"github.com/vidrelay/vidrelay/probe"
	"github.com/vidrelay/vidrelay/tui"
	"github.com/vidrelay/vidrelay/util"
)

func init() {
	rootCmd.AddCommand(watchCmd)
	addRequestFlags(watchCmd)

	watchCmd.Flags().BoolP("manual", "m", false, "Report every outcome by hand instead of probing")
	watchCmd.Flags().Bool("no-open", false, "Do not open the address when a source settles")
}

var watchCmd = &cobra.Command{
	Use:     "watch <content-id>",
	Short:   "Resolve a title interactively, switching sources as they break",
	Example: "  vidrelay watch tt0944947 -t series -s 1 -e 2",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		req, err := requestFrom(cmd, args[0])
		handleErr(err)

		store := openStore()
		defer util.Ignore(store.Close)

		deps := dependencies(store)
		ctrl := failover.New(scopeFrom(cmd), deps, controllerOptions()...)
		_, err = ctrl.Start(req)
		handleErr(err)

		options := &tui.Options{
			Catalog:      deps.Catalog,
			Controller:   ctrl,
			OpenOnSettle: viper.GetBool(key.WatchOpenOnSettle) && !lo.Must(cmd.Flags().GetBool("no-open")),
		}
		if viper.GetBool(key.ProbeEnabled) && !lo.Must(cmd.Flags().GetBool("manual")) {
			options.Prober = probe.FromConfig()
		}

		snap, err := tui.Run(options)
		ctrl.Wait()
		handleErr(err)

		if snap.Status == failover.StatusSettled {
			printSnapshot(cmd, snap)
		}
	},
}
