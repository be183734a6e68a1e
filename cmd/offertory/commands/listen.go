package commands

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"offertory/internal/cache"
	"offertory/internal/notify"
)

func (a *app) newNotifier() *notify.Client {
	return notify.New(notify.Options{
		URL:         a.cfg.WSURL,
		MaxAttempts: a.cfg.NotifyMaxRetries,
		BaseDelay:   a.cfg.NotifyBaseDelay,
		Logger:      a.logger,
	})
}

// startCaches sweeps expired API responses while a long-running command is up.
func (a *app) startCaches() *cache.Manager {
	m := cache.NewManager(a.logger)
	m.Register(a.client.Cache())
	m.StartCleanup(max(a.cfg.CacheTTL, time.Minute))
	return m
}

func listenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Print live notifications until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := a.requireUser(ctx); err != nil {
				return err
			}

			caches := a.startCaches()
			defer caches.Stop()

			n := a.newNotifier()
			defer n.Close()
			unbind := a.session.Bind(n, a.client)
			defer unbind()

			out := cmd.OutOrStdout()
			for {
				select {
				case <-ctx.Done():
					return nil
				case m, ok := <-n.Messages():
					if !ok {
						return nil
					}
					text := m.Message
					if text == "" && len(m.Data) > 0 {
						text = string(m.Data)
					}
					fmt.Fprintf(out, "%s\t%s\t%s\n", m.Timestamp, m.Type, text)
				}
			}
		},
	}
}
