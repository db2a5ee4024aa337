package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/skilltree/skilltree-e2e/internal/slides"
)

func newSlidesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slides",
		Short: "Inspect and generate slide deck fixtures",
	}
	cmd.AddCommand(newSlidesInspectCmd(a), newSlidesGenerateCmd(a))
	return cmd
}

func newSlidesInspectCmd(a *app) *cobra.Command {
	var expect int
	cmd := &cobra.Command{
		Use:   "inspect PDF...",
		Short: "Validate decks and print their page counts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				info, err := slides.Inspect(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				pages := strconv.Itoa(info.Pages)
				if expect > 0 && info.Pages != expect {
					fmt.Fprintln(a.out, summary(path, [][2]string{{"pages", errorStyle.Render(pages)}, {"expected", strconv.Itoa(expect)}}))
					return fmt.Errorf("%s has %d pages, expected %d", path, info.Pages, expect)
				}
				fmt.Fprintln(a.out, summary(path, [][2]string{
					{"pages", pages},
					{"bytes", strconv.FormatInt(info.Size, 10)},
				}))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&expect, "pages", 0, "Fail unless every deck has this many pages")
	return cmd
}

func newSlidesGenerateCmd(a *app) *cobra.Command {
	var (
		pages int
		texts []string
	)
	cmd := &cobra.Command{
		Use:   "generate OUTPUT",
		Short: "Write a deck with one text line per page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(texts) == 0 {
				texts = slides.DefaultTexts(pages)
			}
			if err := slides.GenerateDeck(args[0], texts); err != nil {
				return err
			}
			a.log.Info().Str("path", args[0]).Int("pages", len(texts)).Msg("deck generated")
			fmt.Fprintln(a.out, successStyle.Render(fmt.Sprintf("wrote %s (%d pages)", args[0], len(texts))))
			return nil
		},
	}
	cmd.Flags().IntVar(&pages, "pages", 5, "Number of pages when --text is not given")
	cmd.Flags().StringArrayVar(&texts, "text", nil, "Page text, repeat once per page")
	return cmd
}
