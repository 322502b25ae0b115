package cli

import (
	"fmt"
	"log"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ytetl/internal/report"
	"ytetl/internal/seed"
)

func newSeedCmd(o *options) *cobra.Command {
	var (
		reset bool
		force bool
		kind  string
		dsn   string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Validate the catalogue and load it into the configured database",
		Long: "Validates the catalogue files, then loads them table by table in dependency order.\n" +
			"Refuses to load a catalogue with broken references unless --force is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(o, cmd.Flags().Changed("env-file"))
			if err != nil {
				return err
			}
			if kind != "" {
				cfg.Storage.Kind = kind
			}
			if dsn != "" {
				cfg.Storage.DSN = dsn
			}

			defer setupMetrics(cfg, o.verbose)()
			ctx, cancel := withRunTimeout(cmd.Context(), cfg)
			defer cancel()

			printer := report.NewPrinter(o.stdout)
			datasets, rep, err := validateData(ctx, cfg)
			if err != nil {
				if report.IsFatal(err) {
					printer.PrintFatal(err)
					return exitError{1}
				}
				return err
			}
			if err := seed.Guard(rep, force); err != nil {
				return err
			}
			if !rep.Summary.Clean() {
				log.Printf("seed: loading a catalogue with findings summary=%+v", rep.Summary)
			}

			repo, err := openRepository(ctx, cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			results, err := seed.New(repo, seed.Options{
				BatchSize:  cfg.Storage.BatchSize,
				Reset:      reset,
				AutoCreate: cfg.Storage.AutoCreate,
				Job:        cfg.Job,
			}).Run(ctx, datasets)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(o.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TABLE\tSOURCE\tROWS\tBATCHES\tDUPLICATES")
			for _, r := range results {
				if r.Skipped {
					fmt.Fprintf(tw, "%s\t%s\tskipped\t-\t-\n", r.Table, r.Source)
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", r.Table, r.Source, humanize.Comma(r.Rows), r.Batches, r.Duplicates)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "drop and recreate every table before loading")
	cmd.Flags().BoolVar(&force, "force", false, "load even when references do not resolve")
	cmd.Flags().StringVar(&kind, "kind", "", "storage backend: sqlite, postgres or mssql (overrides config)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "database connection string (overrides config)")
	return cmd
}
