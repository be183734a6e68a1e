package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	apphttp "offertory/internal/http"
	"offertory/internal/log"
	"offertory/internal/worker"
)

func serveCmd(a *app) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local console server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := a.open(ctx); err != nil {
				return err
			}
			if port == "" {
				port = a.cfg.Port
			}

			writer, release, err := a.tallyWriter(ctx)
			if err != nil {
				return err
			}
			defer release()

			caches := a.startCaches()
			defer caches.Stop()

			n := a.newNotifier()
			defer n.Close()
			unbind := a.session.Bind(n, a.client)
			defer unbind()

			// The relay only records here; cmd/offertory-relay forwards to the broker.
			relay := worker.NewRelay(a.repo, nil, worker.DefaultBatchSize, a.logger)

			srv := apphttp.NewServer(":"+port, apphttp.Deps{
				Tally:         writer,
				Notifier:      n,
				Notifications: a.repo,
				DB:            a.repo,
			}, a.logger)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return relay.Run(gctx, n, time.Minute)
			})
			g.Go(func() error {
				a.logger.Info("Starting offertory server", "port", port, log.FieldOperation, log.OpStartup)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			if err := g.Wait(); err != nil {
				a.logger.Error("Server stopped with error", log.FieldError, err)
				return err
			}
			a.logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (default $PORT)")
	return cmd
}
