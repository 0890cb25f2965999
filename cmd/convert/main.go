package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/bidmap-converter/backend/internal/app"
	"github.com/bidmap-converter/backend/internal/config"
	"github.com/bidmap-converter/backend/internal/iconstyle"
	"github.com/bidmap-converter/backend/internal/ids"
	"github.com/bidmap-converter/backend/internal/mapping"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "convert",
		Short:        "Convert bid map annotations into deployment icons",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "BidConverter.exe.config", "configuration file")

	loadConfig := func() (*config.AppConfig, error) {
		return config.LoadConfig(configPath)
	}

	rootCmd.AddCommand(runCmd(loadConfig))
	rootCmd.AddCommand(iconsCmd(loadConfig))
	rootCmd.AddCommand(mappingsCmd(loadConfig))
	return rootCmd
}

type configLoader func() (*config.AppConfig, error)

func runCmd(load configLoader) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "run <input> <output>",
		Short: "Convert one single-page bid map",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if mode != "" {
				cfg.Conversion.RenderMode = mode
			}

			a, err := app.Load(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			res, err := a.Engine.Convert(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Converted: %d\n", res.Converted)
			fmt.Fprintf(out, "Skipped:   %d\n", res.Skipped)
			if len(res.SkippedSubjects) > 0 {
				fmt.Fprintln(out, "Skipped subjects:")
				for _, s := range res.SkippedSubjects {
					fmt.Fprintf(out, "  - %s\n", s)
				}
			}
			fmt.Fprintf(out, "Output:    %s\n", args[1])
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "render mode override (compound or combined)")
	return cmd
}

func iconsCmd(load configLoader) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "icons",
		Short: "List deployment icon styles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			catalog := iconstyle.Builtin()
			resolver := iconstyle.NewResolver(catalog, iconstyle.NewStore(cfg.Conversion.IconOverridesFile, catalog))

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SUBJECT\tCATEGORY\tID\tSOURCE")
			for _, r := range resolver.All() {
				if category != "" && r.Category != category {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Subject, r.Category, firstID(r.Subject), r.Source)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only list this category")
	return cmd
}

// firstID is the label the first icon of subject receives, or "-".
func firstID(subject string) string {
	p, ok := ids.Lookup(subject)
	if !ok {
		return "-"
	}
	return p.Label(p.Start)
}

func mappingsCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "mappings",
		Short: "Show and validate the bid to deployment mapping table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			table, err := mapping.Load(cfg.Conversion.MappingFile)
			if err != nil {
				return err
			}
			printMappings(cmd.OutOrStdout(), table)

			if problems := table.Validate(); len(problems) > 0 {
				for _, p := range problems {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", p)
				}
				return fmt.Errorf("%d mapping problems", len(problems))
			}
			return nil
		},
	}
}

func printMappings(out io.Writer, table *mapping.Table) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BID\tDEPLOYMENT\tCATEGORY")
	for _, e := range table.Entries() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Bid, e.Deployment, e.Category)
	}
	w.Flush()
}
