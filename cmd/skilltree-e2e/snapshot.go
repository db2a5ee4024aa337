package main

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/skilltree/skilltree-e2e/internal/snapshot"
)

// errSnapshotMismatch makes the process exit non-zero after the summary
// has been printed.
var errSnapshotMismatch = errors.New("snapshot differs from baseline")

func newSnapshotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Work with visual snapshot baselines",
	}
	cmd.AddCommand(newSnapshotCompareCmd(a))
	return cmd
}

func newSnapshotCompareCmd(a *app) *cobra.Command {
	var (
		threshold     float64
		failThreshold float64
		thresholdType string
		diffPath      string
	)
	cmd := &cobra.Command{
		Use:   "compare BASELINE ACTUAL",
		Short: "Compare two PNG captures with the snapshot matcher",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseline, err := decodePNG(args[0])
			if err != nil {
				return err
			}
			actual, err := decodePNG(args[1])
			if err != nil {
				return err
			}

			opts := snapshot.Options{
				Threshold:            a.cfg.Snapshots.Threshold,
				FailureThreshold:     a.cfg.Snapshots.FailureThreshold,
				FailureThresholdType: snapshot.ThresholdType(a.cfg.Snapshots.FailureThresholdType),
			}
			if cmd.Flags().Changed("threshold") {
				opts.Threshold = threshold
			}
			if cmd.Flags().Changed("failure-threshold") {
				opts.FailureThreshold = failThreshold
			}
			if thresholdType != "" {
				opts.FailureThresholdType = snapshot.ThresholdType(thresholdType)
			}

			res, err := snapshot.Compare(baseline, actual, opts)
			if err != nil {
				return err
			}
			rows := [][2]string{
				{"result", passFail(res.Pass)},
				{"diff pixels", fmt.Sprintf("%d of %d", res.DiffPixels, res.TotalPixels)},
				{"diff ratio", strconv.FormatFloat(res.DiffRatio*100, 'f', 3, 64) + "%"},
				{"allowed", fmt.Sprintf("%v %s", opts.FailureThreshold, opts.FailureThresholdType)},
			}
			if diffPath != "" && res.DiffPixels > 0 {
				if err := writeDiff(diffPath, res.Diff); err != nil {
					return err
				}
				rows = append(rows, [2]string{"diff", diffPath})
			}
			fmt.Fprintln(a.out, summary("snapshot compare", rows))
			if !res.Pass {
				return errSnapshotMismatch
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Per-pixel color distance tolerated (0..1)")
	cmd.Flags().Float64Var(&failThreshold, "failure-threshold", 0, "Differing pixels allowed before failing")
	cmd.Flags().StringVar(&thresholdType, "failure-threshold-type", "", "pixel or percent")
	cmd.Flags().StringVar(&diffPath, "diff", "", "Write the diff image to this path")
	return cmd
}

func decodePNG(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func writeDiff(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
