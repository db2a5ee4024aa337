package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/skilltree/skilltree-e2e/internal/config"
	"github.com/skilltree/skilltree-e2e/internal/logger"
	"github.com/skilltree/skilltree-e2e/internal/version"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	baseURL    string
	logLevel   string

	cfg *config.Config
	log zerolog.Logger
	out io.Writer
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:   "skilltree-e2e",
		Short: "SkillTree end-to-end harness utilities",
		Long: `skilltree-e2e seeds a SkillTree backend from YAML plans, resets its
database between runs and works with the visual baselines and slide decks
the browser suites use.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.baseURL != "" {
				cfg.App.BaseURL = a.baseURL
			}
			if a.logLevel != "" {
				cfg.Logging.Level = a.logLevel
			}
			a.cfg = cfg
			a.log = logger.NewWithWriter(cfg.Logging, errOut)
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "SkillTree base URL (overrides app.base_url)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newSeedCmd(a),
		newResetDBCmd(a),
		newSnapshotCmd(a),
		newSlidesCmd(a),
		newLighthouseCmd(a),
		newServeStubCmd(a),
		newVersionCmd(a),
	)
	return root
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "skilltree-e2e %s\n", version.Full())
		},
	}
}
