package cli

import (
	"github.com/spf13/cobra"

	"ytetl/internal/ingest"
	"ytetl/internal/report"
)

func newValidateCmd(o *options) *cobra.Command {
	var (
		dataDir      string
		outputDir    string
		sink         string
		failOnValues bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the catalogue CSV files and write a validation report",
		Long: "Runs the structure, referential, duplicate, missing-data and value checks over the\n" +
			"catalogue files. Exits 0 when every check passes and 1 when any check found problems\n" +
			"or the files could not be validated at all.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(o, cmd.Flags().Changed("env-file"))
			if err != nil {
				return err
			}
			if dataDir != "" {
				cfg.DataDir = dataDir
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}
			if sink != "" {
				cfg.Report.Sink = sink
			}
			if cmd.Flags().Changed("fail-on-values") {
				cfg.Report.FailOnValues = failOnValues
			}

			defer setupMetrics(cfg, o.verbose)()
			ctx, cancel := withRunTimeout(cmd.Context(), cfg)
			defer cancel()

			printer := report.NewPrinter(o.stdout)
			if o.verbose {
				if _, err := ingest.VerifyPaths(cfg); err != nil {
					printer.PrintFatal(err)
					return exitError{1}
				}
			}

			_, rep, err := validateData(ctx, cfg)
			if err != nil {
				if report.IsFatal(err) {
					printer.PrintFatal(err)
					return exitError{1}
				}
				return err
			}

			loc, err := writeReport(ctx, cfg, rep)
			if err != nil {
				return err
			}
			if err := printer.Print(rep, loc); err != nil {
				return err
			}
			if code := report.ExitCode(rep, cfg.Report.FailOnValues); code != 0 {
				return exitError{code}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "directory holding the CSV files (overrides config)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "directory for report files (overrides config)")
	cmd.Flags().StringVar(&sink, "sink", "", "report sink: file, minio or none (overrides config)")
	cmd.Flags().BoolVar(&failOnValues, "fail-on-values", false, "fail the run on future dates and invalid metrics")
	return cmd
}
