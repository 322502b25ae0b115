package cli

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"ytetl/internal/api"
	"ytetl/internal/config"
	"ytetl/internal/seed"
	"ytetl/internal/storage"
	"ytetl/internal/validation"
)

func newServeCmd(o *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the seeded catalogue over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(o, cmd.Flags().Changed("env-file"))
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			defer setupMetrics(cfg, o.verbose)()

			srv, repo, err := newAPIServer(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer repo.Close()
			return srv.ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

// newAPIServer opens the repository, creates missing catalogue tables when
// storage.auto_create is set, and builds the API server. The caller closes
// the returned repository.
func newAPIServer(ctx context.Context, cfg config.Config) (*api.Server, storage.Repository, error) {
	repo, err := openRepository(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := seed.New(repo, seed.Options{AutoCreate: cfg.Storage.AutoCreate, Job: cfg.Job}).Prepare(ctx); err != nil {
		repo.Close()
		return nil, nil, err
	}

	validate := func(ctx context.Context) (*validation.Report, error) {
		ctx, cancel := withRunTimeout(ctx, cfg)
		defer cancel()
		_, rep, err := validateData(ctx, cfg)
		if err != nil {
			return nil, err
		}
		loc, err := writeReport(ctx, cfg, rep)
		if err != nil {
			return nil, err
		}
		log.Printf("api: validation run_id=%s clean=%t report=%s", rep.RunID, rep.Summary.Clean(), loc)
		return rep, nil
	}

	srv := api.NewServer(api.Config{Addr: cfg.Server.Addr}, api.NewStore(repo.DB(), repo.Dialect()), validate)
	return srv, repo, nil
}
