package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meltforce/liftlog/internal/config"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List exercises and templates",
	Long: `List the exercise catalog and workout templates.

Examples:
  liftlog catalog                 # exercises
  liftlog catalog --templates     # templates with planned sets`,
	RunE: runCatalog,
}

var catalogTemplates bool

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().BoolVarP(&catalogTemplates, "templates", "t", false, "List templates instead of exercises")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadDevice(configPath)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg.Device.CatalogPath)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	if catalogTemplates {
		fmt.Fprintln(w, "ID\tNAME\tEXERCISE\tSETS")
		for _, t := range cat.Templates() {
			for i, ex := range t.Exercises {
				id, name := t.ID, t.Name
				if i > 0 {
					id, name = "", ""
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", id, name, ex.Name, ex.Sets)
			}
		}
		return w.Flush()
	}

	fmt.Fprintln(w, "NAME\tMUSCLE GROUP\tEQUIPMENT")
	for _, ex := range cat.List() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", ex.Name, ex.MuscleGroup, ex.Equipment)
	}
	return w.Flush()
}
