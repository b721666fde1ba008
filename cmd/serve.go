package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidrelay/vidrelay/failover"
	"github.com/vidrelay/vidrelay/key"
	"github.com/vidrelay/vidrelay/log"
	"github.com/vidrelay/vidrelay/preference"
	"github.com/vidrelay/vidrelay/server"
	"github.com/vidrelay/vidrelay/util"
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "A", "", "Listen address")
	lo.Must0(viper.BindPFlag(key.ServerAddress, serveCmd.Flags().Lookup("address")))

	serveCmd.Flags().Duration("session-ttl", 0, "Discard sessions untouched for this long")
	lo.Must0(viper.BindPFlag(key.ServerSessionTTL, serveCmd.Flags().Lookup("session-ttl")))

	serveCmd.Flags().Bool("ephemeral", false, "Keep remembered providers in memory only")
	serveCmd.Flags().Bool("debug", false, "Run gin in debug mode")

	serveCmd.SetOut(os.Stdout)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the resolution service over HTTP",
	Long: `Run the resolution service over HTTP.

Players open a session per title and report whether the current address
plays. Each scope gets its own retry budget.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !lo.Must(cmd.Flags().GetBool("debug")) {
			gin.SetMode(gin.ReleaseMode)
		}

		var store preference.Store
		if lo.Must(cmd.Flags().GetBool("ephemeral")) {
			store = preference.NewMemory()
		} else {
			store = openStore()
		}
		defer util.Ignore(store.Close)

		deps := dependencies(store)
		sessions := failover.NewSessions(deps, viper.GetDuration(key.ServerSessionTTL), controllerOptions()...)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr := viper.GetString(key.ServerAddress)
		cmd.Printf("Listening on %s with %d providers\n", addr, deps.Catalog.Len())
		log.WithFields(log.Fields{"providers": deps.Catalog.Len(), "backend": viper.GetString(key.PreferenceBackend)}).Info("starting resolution service")

		handleErr(server.New(deps.Catalog, sessions).Run(ctx, addr))
	},
}
