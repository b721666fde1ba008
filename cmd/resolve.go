package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidrelay/vidrelay/color"
	"github.com/vidrelay/vidrelay/failover"
	"github.com/vidrelay/vidrelay/icon"
	"github.com/vidrelay/vidrelay/key"
	"github.com/vidrelay/vidrelay/log"
	"github.com/vidrelay/vidrelay/probe"
	"github.com/vidrelay/vidrelay/style"
	"github.com/vidrelay/vidrelay/util"
)

func init() {
	rootCmd.AddCommand(resolveCmd)
	addRequestFlags(resolveCmd)

	resolveCmd.Flags().BoolP("probe", "p", false, "Probe addresses and fail over until one responds")
	resolveCmd.Flags().StringP("provider", "P", "", "Start from this provider instead of the remembered one")
	resolveCmd.Flags().BoolP("json", "j", false, "Print the final snapshot as JSON")
	resolveCmd.Flags().Duration("max-wait", 0, "Give up after waiting this long for retries in total")
	lo.Must0(viper.BindPFlag(key.ResolveMaxWait, resolveCmd.Flags().Lookup("max-wait")))

	resolveCmd.SetOut(os.Stdout)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <content-id>",
	Short: "Print the address of the source to play a title from",
	Long: `Print the address of the source to play a title from.

Without --probe the remembered (or first) provider is printed as is.
With --probe every candidate is checked and the first one that responds is
remembered for next time.`,
	Example: "  vidrelay resolve tt0111161\n  vidrelay resolve tt0944947:1:2 -t series --probe",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		req, err := requestFrom(cmd, args[0])
		handleErr(err)

		store := openStore()
		defer util.Ignore(store.Close)

		deps := dependencies(store)
		ctrl := failover.New(scopeFrom(cmd), deps, controllerOptions()...)

		snap, err := ctrl.Start(req)
		handleErr(err)

		if query := lo.Must(cmd.Flags().GetString("provider")); query != "" {
			id, err := pickProvider(deps.Catalog, query)
			handleErr(err)
			snap, err = ctrl.SwitchTo(id)
			handleErr(err)
		}

		if lo.Must(cmd.Flags().GetBool("probe")) && viper.GetBool(key.ProbeEnabled) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			snap, err = probeUntilSettled(ctx, ctrl, probe.FromConfig(), viper.GetDuration(key.ResolveMaxWait))
			ctrl.Wait()
			if err != nil && !lo.Must(cmd.Flags().GetBool("json")) {
				handleErr(err)
			}
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(snap))
			return
		}

		printSnapshot(cmd, snap)
	},
}

// probeUntilSettled drives ctrl with probe outcomes until a provider
// responds, every provider has failed, or the retry budget runs out.
func probeUntilSettled(ctx context.Context, ctrl *failover.Controller, prober *probe.Prober, maxWait time.Duration) (failover.Snapshot, error) {
	var waited time.Duration
	snap := ctrl.Snapshot()

	for {
		switch snap.Status {
		case failover.StatusSettled:
			return snap, nil
		case failover.StatusExhausted:
			return snap, failover.ErrExhausted
		case failover.StatusThrottled:
			if waited+snap.RetryAfter > maxWait {
				return snap, fmt.Errorf("gave up after waiting %s for retries", waited)
			}

			erase := util.PrintErasable(fmt.Sprintf("%s Too many retries, waiting %s", icon.Get(icon.Throttled), util.Quantify(snap.RetryAfterSeconds(), "second", "seconds")))
			select {
			case <-ctx.Done():
				erase()
				return snap, ctx.Err()
			case <-time.After(snap.RetryAfter):
			}
			erase()

			waited += snap.RetryAfter
			var err error
			if snap, err = ctrl.ReportFailure(); err != nil {
				return snap, err
			}
			continue
		}

		erase := util.PrintErasable(fmt.Sprintf("%s Checking %s", icon.Get(icon.Progress), snap.Label))
		result := prober.Probe(ctx, snap.Address)
		erase()

		if err := ctx.Err(); err != nil {
			return snap, err
		}

		log.WithFields(log.Fields{"provider": snap.ProviderID, "status": result.Status}).Info("probed address")

		var err error
		if result.Playable() {
			snap, err = ctrl.ReportSuccess()
		} else {
			snap, err = ctrl.ReportFailure()
		}
		if err != nil {
			return snap, err
		}
	}
}

func printSnapshot(cmd *cobra.Command, snap failover.Snapshot) {
	if snap.Address == "" {
		cmd.Printf("%s %s\n", icon.Get(icon.ForStatus(snap.Status.String())), style.Status(snap.Status.String()))
		return
	}

	cmd.Printf("%s %s %s\n",
		icon.Get(icon.ForStatus(snap.Status.String())),
		style.Fg(color.Purple)(snap.Label),
		style.Faint("("+snap.ProviderID+")"),
	)
	cmd.Println(snap.Address)
}
