package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/skilltree/skilltree-e2e/internal/stubapi"
)

func newServeStubCmd(a *app) *cobra.Command {
	var (
		addr  string
		users []string
		roots []string
	)
	cmd := &cobra.Command{
		Use:   "serve-stub",
		Short: "Serve the in-memory SkillTree API stub",
		Long: `serve-stub runs the in-memory stand-in for the SkillTree endpoints the
fixture layer uses, for developing seed plans without a backend. State is
lost on exit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := stubapi.DefaultOptions()
			for _, u := range users {
				opts.Users[u] = a.cfg.Users.Password
			}
			opts.RootUsers = append(opts.RootUsers, roots...)

			srv := &http.Server{
				Addr:              addr,
				Handler:           stubapi.New(opts).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			a.log.Info().Str("addr", addr).Msg("stub API listening")
			fmt.Fprintln(a.out, headerStyle.Render("stub API on http://"+addr))

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")
	cmd.Flags().StringSliceVar(&users, "user", nil, "Extra account (password users.password)")
	cmd.Flags().StringSliceVar(&roots, "root", nil, "Grant root to this account")
	return cmd
}
