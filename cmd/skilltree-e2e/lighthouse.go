package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skilltree/skilltree-e2e/internal/audit"
)

func newLighthouseCmd(a *app) *cobra.Command {
	var binary string
	cmd := &cobra.Command{
		Use:   "lighthouse [PATH]",
		Short: "Score a page with lighthouse against audit.lighthouse_scores",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := strings.TrimRight(a.cfg.App.BaseURL, "/") + "/"
			if len(args) == 1 {
				url += strings.TrimLeft(args[0], "/")
			}
			if binary == "" {
				binary = a.cfg.Audit.LighthouseBinary
			}
			thresholds := a.cfg.Audit.LighthouseScores

			scores, err := audit.NewLighthouseRunner(binary, a.log).Run(cmd.Context(), url, thresholds)
			if scores == nil {
				return err
			}
			categories := make([]string, 0, len(scores))
			for c := range scores {
				categories = append(categories, c)
			}
			sort.Strings(categories)
			rows := make([][2]string, 0, len(categories))
			for _, c := range categories {
				score := fmt.Sprintf("%.2f", scores[c])
				if want, ok := thresholds[c]; ok && scores[c] < want {
					score = errorStyle.Render(score) + mutedStyle.Render(fmt.Sprintf(" < %.2f", want))
				} else if ok {
					score = successStyle.Render(score)
				}
				rows = append(rows, [2]string{c, score})
			}
			fmt.Fprintln(a.out, summary("lighthouse "+url, rows))
			return err
		},
	}
	cmd.Flags().StringVar(&binary, "binary", "", "lighthouse executable (default audit.lighthouse_binary)")
	return cmd
}
