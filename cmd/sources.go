package cmd

import (
	"encoding/json"
	"os"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/vidrelay/vidrelay/catalog"
	"github.com/vidrelay/vidrelay/color"
	"github.com/vidrelay/vidrelay/content"
	"github.com/vidrelay/vidrelay/style"
)

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Inspect the provider catalog",
}

func init() {
	sourcesCmd.AddCommand(sourcesListCmd)

	sourcesListCmd.Flags().BoolP("raw", "r", false, "Print ids only")
	sourcesListCmd.Flags().BoolP("json", "j", false, "Print the catalog as JSON")
	sourcesListCmd.Flags().StringP("type", "t", "", "Only providers serving this content type")
	sourcesListCmd.MarkFlagsMutuallyExclusive("raw", "json")

	sourcesListCmd.SetOut(os.Stdout)
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List providers in trial order",
	Run: func(cmd *cobra.Command, args []string) {
		c := loadCatalog()

		descriptors := c.All()
		if raw := lo.Must(cmd.Flags().GetString("type")); raw != "" {
			t, err := content.ParseType(raw)
			handleErr(err)
			descriptors = c.Providers(t)
		}

		switch {
		case lo.Must(cmd.Flags().GetBool("json")):
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(descriptors))
		case lo.Must(cmd.Flags().GetBool("raw")):
			for _, d := range descriptors {
				cmd.Println(d.ID)
			}
		default:
			label := style.New().Foreground(color.HiBlue).Bold(true).Render
			for _, d := range descriptors {
				types := lo.Map(d.Types, func(t content.Type, _ int) string { return t.String() })
				cmd.Printf("%s %s %s\n", label(c.Label(d.ID)), style.Fg(color.Purple)(d.ID), style.Faint(strings.Join(types, ", ")))
			}
		}
	},
}

func init() {
	sourcesCmd.AddCommand(sourcesSchemaCmd)
	sourcesSchemaCmd.SetOut(os.Stdout)
}

var sourcesSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of a catalog.providers entry",
	Run: func(cmd *cobra.Command, args []string) {
		reflector := new(jsonschema.Reflector)
		reflector.Anonymous = true
		reflector.Namer = func(t reflect.Type) string {
			return "provider." + strings.ToLower(t.Name())
		}

		schema := reflector.Reflect([]catalog.Entry{})
		handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(schema))
	},
}
