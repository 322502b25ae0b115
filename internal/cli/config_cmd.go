package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"ytetl/internal/config"
)

func newConfigCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(newConfigCheckCmd(o))
	cmd.AddCommand(newConfigShowCmd(o))
	return cmd
}

func newConfigCheckCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Lint the configuration and exit non-zero on errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadEnvFile(o.envFile, cmd.Flags().Changed("env-file")); err != nil {
				return err
			}
			cfg, err := config.Load(o.configPath)
			if err != nil {
				return err
			}
			issues := config.Validate(cfg)
			for _, iss := range issues {
				fmt.Fprintf(o.stdout, "%-7s %s: %s\n", iss.Severity, iss.Path, iss.Message)
			}
			if config.HasErrors(issues) {
				return exitError{1}
			}
			fmt.Fprintln(o.stdout, "config: ok")
			return nil
		},
	}
}

func newConfigShowCmd(o *options) *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadEnvFile(o.envFile, cmd.Flags().Changed("env-file")); err != nil {
				return err
			}
			cfg, err := config.Load(o.configPath)
			if err != nil {
				return err
			}
			if !reveal {
				cfg.Report.MinIO.SecretKey = maskSecret(cfg.Report.MinIO.SecretKey)
				if cfg.Storage.Kind != "sqlite" {
					cfg.Storage.DSN = maskSecret(cfg.Storage.DSN)
				}
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, err = o.stdout.Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "show sensitive values unmasked")
	return cmd
}

// maskSecret masks a sensitive string, showing the first and last 4 chars.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 10 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}
