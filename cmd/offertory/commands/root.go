// Package commands implements the offertory console CLI.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"offertory/internal/api"
	"offertory/internal/cli"
	"offertory/internal/config"
	"offertory/internal/log"
	"offertory/internal/session"
	"offertory/internal/storage"
)

// app is built lazily: words and tally run without touching the backend.
type app struct {
	envFile string
	cfg     *config.Config
	logger  *log.Logger

	repo    *storage.SQLiteRepository
	client  *api.Client
	authed  *api.Client
	session *session.Session
}

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "offertory",
		Short:        "Church donation console",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.envFile != "" {
				cli.LoadEnvFile(a.envFile)
			} else {
				cli.LoadEnvFile()
			}
			a.cfg = config.Load()
			a.logger = cli.SetupLogger(a.cfg.LogLevel, log.ComponentApp)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "dotenv file to load (default .env)")

	root.AddCommand(
		wordsCmd(),
		tallyCmd(a),
		loginCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		dashboardCmd(a),
		listenCmd(a),
		serveCmd(a),
	)
	return root
}

// open validates the configuration, opens the local store and restores the
// saved session.
func (a *app) open(ctx context.Context) error {
	if a.session != nil {
		return nil
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	repo, err := cli.InitSQLite(a.logger, a.cfg.SessionDBPath)
	if err != nil {
		return err
	}
	a.repo = repo

	client, err := api.New(api.Options{
		BaseURL:   a.cfg.APIURL,
		Timeout:   a.cfg.APITimeout,
		RateLimit: a.cfg.APIRateLimit,
		CacheTTL:  a.cfg.CacheTTL,
		Logger:    a.logger,
	})
	if err != nil {
		return err
	}
	a.client = client

	a.session = session.New(client, repo, a.logger)
	a.authed = client.WithTokens(api.TokenFunc(a.session.Token))
	if err := a.session.Restore(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	return nil
}

// requireUser opens the app and fails unless someone is signed in.
func (a *app) requireUser(ctx context.Context) error {
	if err := a.open(ctx); err != nil {
		return err
	}
	if !a.session.IsAuthenticated() {
		return fmt.Errorf("not signed in, run 'offertory login <phone>' first")
	}
	return nil
}

func (a *app) close() error {
	if a.repo != nil {
		err := a.repo.Close()
		a.repo = nil
		return err
	}
	return nil
}
