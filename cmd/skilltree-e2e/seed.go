package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/skilltree/skilltree-e2e/internal/client"
	"github.com/skilltree/skilltree-e2e/internal/fixtures"
	"github.com/skilltree/skilltree-e2e/internal/metrics"
	"github.com/skilltree/skilltree-e2e/internal/seedplan"
)

func newSeedCmd(a *app) *cobra.Command {
	var (
		user        string
		password    string
		metricsFile string
		validate    bool
	)
	cmd := &cobra.Command{
		Use:   "seed PLAN...",
		Short: "Seed the backend from one or more YAML plans",
		Long: `Seed validates each plan against the seed plan schema and runs its steps
in order through the fixture client. The first failing step stops the run.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plans := make([]*seedplan.Plan, 0, len(args))
			for _, path := range args {
				plan, err := seedplan.Load(path)
				if err != nil {
					return err
				}
				plans = append(plans, plan)
			}
			if validate {
				for i, p := range plans {
					fmt.Fprintf(a.out, "%s %s (%d steps)\n", successStyle.Render("valid"), args[i], len(p.Steps))
				}
				return nil
			}

			if user == "" {
				user = a.cfg.Users.AdminUser
			}
			if password == "" {
				password = a.cfg.Users.Password
			}
			rec := metrics.NewRecorder()
			c := client.New(&client.Config{
				BaseURL: a.cfg.App.BaseURL,
				Timeout: a.cfg.App.RequestTimeout,
				Debug:   a.cfg.App.Debug,
				Logger:  &a.log,
				Metrics: rec,
			})
			ctx := cmd.Context()
			if err := c.Login(ctx, user, password); err != nil {
				return fmt.Errorf("login as %s: %w", user, err)
			}
			b := fixtures.New(c, fixtures.WithLogger(a.log), fixtures.WithFixturesDir(a.cfg.Fixtures.Dir))

			for _, plan := range plans {
				report, err := seedplan.Execute(ctx, b, plan, a.log)
				if err != nil {
					fmt.Fprintln(a.out, summary("seed "+plan.Name, [][2]string{{"result", passFail(false)}, {"error", err.Error()}}))
					return err
				}
				fmt.Fprintln(a.out, summary("seed "+plan.Name, [][2]string{
					{"result", passFail(true)},
					{"steps", strconv.Itoa(report.Steps)},
					{"took", report.Took.Round(1e6).String()},
				}))
			}

			if metricsFile != "" {
				if err := rec.WriteTextfile(metricsFile); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User to seed as (default users.admin_user)")
	cmd.Flags().StringVar(&password, "password", "", "Password for --user (default users.password)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write fixture request metrics to this textfile")
	cmd.Flags().BoolVar(&validate, "validate", false, "Only validate the plans")
	return cmd
}
