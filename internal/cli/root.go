// Package cli wires the ytetl commands: validate, seed, serve and config.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// exitError ends the process with code without printing an error line. The
// command has already reported what went wrong.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// options are the persistent flags shared by every command.
type options struct {
	configPath string
	envFile    string
	verbose    bool

	stdout io.Writer
	stderr io.Writer
}

// Execute runs the root command with os.Args and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(&options{stdout: stdout, stderr: stderr})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		var ee exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(o *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "ytetl",
		Short:         "Validate, seed and serve the YouTuber catalogue",
		Long:          "Checks the catalogue CSV files for structural, referential and value problems,\nloads them into a database and serves them over a REST API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			log.SetOutput(o.stderr)
			if o.verbose {
				log.SetFlags(log.LstdFlags | log.Lmicroseconds)
			}
		},
	}

	root.PersistentFlags().StringVarP(&o.configPath, "config", "c", "", "config file (.json, .yaml); defaults are used when empty")
	root.PersistentFlags().StringVar(&o.envFile, "env-file", ".env", "dotenv file loaded before the config")
	root.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "enable verbose logs")

	root.AddCommand(newValidateCmd(o))
	root.AddCommand(newSeedCmd(o))
	root.AddCommand(newServeCmd(o))
	root.AddCommand(newConfigCmd(o))
	return root
}
