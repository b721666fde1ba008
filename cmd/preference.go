package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidrelay/vidrelay/catalog"
	"github.com/vidrelay/vidrelay/color"
	"github.com/vidrelay/vidrelay/content"
	"github.com/vidrelay/vidrelay/icon"
	"github.com/vidrelay/vidrelay/key"
	"github.com/vidrelay/vidrelay/preference"
	"github.com/vidrelay/vidrelay/style"
	"github.com/vidrelay/vidrelay/util"
)

func init() {
	rootCmd.AddCommand(preferenceCmd)

	preferenceCmd.PersistentFlags().StringP("type", "t", "", "Content type of the record when preference.per_type is on")
}

var preferenceCmd = &cobra.Command{
	Use:     "preference",
	Aliases: []string{"pref"},
	Short:   "Inspect and change remembered providers",
}

// preferenceKey is the record key for the current scope and --type flag.
func preferenceKey(cmd *cobra.Command) string {
	s := scopeFrom(cmd)
	if !viper.GetBool(key.PreferencePerType) {
		return s
	}

	raw := lo.Must(cmd.Flags().GetString("type"))
	if raw == "" {
		handleErr(errors.New("preference.per_type is on, pass --type"))
	}
	t, err := content.ParseType(raw)
	handleErr(err)
	return preference.Key(s, t, true)
}

func init() {
	preferenceCmd.AddCommand(preferenceGetCmd)
	preferenceGetCmd.SetOut(os.Stdout)
}

var preferenceGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the provider remembered for this scope",
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer util.Ignore(store.Close)

		id, err := store.Get(preferenceKey(cmd))
		handleErr(err)

		value, ok := id.Get()
		if !ok {
			cmd.Println(style.Faint("nothing remembered"))
			return
		}

		c := loadCatalog()
		if label := c.Label(value); label != "" {
			cmd.Printf("%s %s\n", style.Fg(color.Purple)(label), style.Faint("("+value+")"))
			return
		}
		cmd.Printf("%s %s\n", value, style.Fg(color.Red)("(no longer in the catalog)"))
	},
}

func init() {
	preferenceCmd.AddCommand(preferenceSetCmd)
}

var preferenceSetCmd = &cobra.Command{
	Use:   "set [provider]",
	Short: "Remember a provider for this scope",
	Long:  "Remember a provider for this scope. Without an argument a picker is shown.",
	Args:  cobra.MaximumNArgs(1),
	ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		c, err := catalog.Load()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return lo.Map(c.All(), func(d catalog.Descriptor, _ int) string { return d.ID }), cobra.ShellCompDirectiveNoFileComp
	},
	Run: func(cmd *cobra.Command, args []string) {
		c := loadCatalog()

		var id string
		if len(args) == 1 {
			var err error
			id, err = pickProvider(c, args[0])
			handleErr(err)
		} else {
			labels := lo.Map(c.All(), func(d catalog.Descriptor, _ int) string {
				return fmt.Sprintf("%s (%s)", c.Label(d.ID), d.ID)
			})

			var index int
			handleErr(survey.AskOne(&survey.Select{
				Message: "Provider to remember:",
				Options: labels,
			}, &index))
			id = c.All()[index].ID
		}

		store := openStore()
		defer util.Ignore(store.Close)
		handleErr(store.Set(preferenceKey(cmd), id))

		fmt.Printf("%s remembered %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), style.Fg(color.Purple)(c.Label(id)))
	},
}

func init() {
	preferenceCmd.AddCommand(preferenceClearCmd)
	preferenceClearCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}

var preferenceClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the provider remembered for this scope",
	Run: func(cmd *cobra.Command, args []string) {
		k := preferenceKey(cmd)

		if !lo.Must(cmd.Flags().GetBool("yes")) {
			var confirmed bool
			handleErr(survey.AskOne(&survey.Confirm{
				Message: fmt.Sprintf("Forget the provider remembered for %s?", k),
				Default: true,
			}, &confirmed))
			if !confirmed {
				return
			}
		}

		store := openStore()
		defer util.Ignore(store.Close)
		handleErr(store.Clear(k))

		fmt.Printf("%s forgot %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), k)
	},
}

func init() {
	preferenceCmd.AddCommand(preferenceListCmd)
	preferenceListCmd.Flags().BoolP("json", "j", false, "Print records as JSON")
	preferenceListCmd.SetOut(os.Stdout)
}

var preferenceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every remembered provider",
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer util.Ignore(store.Close)

		records, err := store.List()
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(records))
			return
		}

		if len(records) == 0 {
			cmd.Println(style.Faint("nothing remembered"))
			return
		}

		c := loadCatalog()
		for _, r := range records {
			label := lo.CoalesceOrEmpty(c.Label(r.ProviderID), r.ProviderID)
			cmd.Printf("%s %s %s\n",
				style.Fg(color.Yellow)(r.Scope),
				style.Fg(color.Purple)(label),
				style.Faint(r.UpdatedAt.Format("2006-01-02 15:04")),
			)
		}
	},
}
