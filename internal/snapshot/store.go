package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/skilltree/skilltree-e2e/internal/config"
)

// MismatchError reports a snapshot that differs from its baseline by more
// than the failure threshold.
type MismatchError struct {
	Name          string
	DiffPixels    int
	DiffRatio     float64
	Threshold     float64
	ThresholdType ThresholdType
	DiffPath      string
}

func (e *MismatchError) Error() string {
	msg := fmt.Sprintf("snapshot %q differs from baseline: %d pixels (%.2f%%), allowed %v %s",
		e.Name, e.DiffPixels, e.DiffRatio*100, e.Threshold, e.ThresholdType)
	if e.DiffPath != "" {
		msg += "; diff written to " + e.DiffPath
	}
	return msg
}

// Store keeps baselines in BaselineDir and writes diffs of failed
// comparisons to DiffDir.
type Store struct {
	BaselineDir string
	DiffDir     string
	// Update overwrites baselines instead of comparing.
	Update   bool
	Defaults Options
	log      zerolog.Logger
}

// NewStore builds a store from the snapshot configuration.
func NewStore(cfg config.SnapshotConfig, log zerolog.Logger) *Store {
	return &Store{
		BaselineDir: cfg.BaselineDir,
		DiffDir:     cfg.DiffDir,
		Update:      cfg.Update,
		Defaults: Options{
			Threshold:            cfg.Threshold,
			FailureThreshold:     cfg.FailureThreshold,
			FailureThresholdType: ThresholdType(cfg.FailureThresholdType),
		},
		log: log.With().Str("component", "snapshot").Logger(),
	}
}

// Options fills unset fields of opts from the store defaults. A zero
// Threshold is unset unless ThresholdSet is true.
func (s *Store) Options(opts Options) Options {
	if opts.Threshold == 0 && !opts.ThresholdSet {
		opts.Threshold = s.Defaults.Threshold
	}
	if opts.FailureThresholdType == "" {
		opts.FailureThresholdType = s.Defaults.FailureThresholdType
		if opts.FailureThreshold == 0 {
			opts.FailureThreshold = s.Defaults.FailureThreshold
		}
	}
	return opts
}

// BaselinePath is where the baseline of name lives.
func (s *Store) BaselinePath(name string) string {
	return filepath.Join(s.BaselineDir, fileName(name)+".png")
}

func fileName(name string) string {
	return strings.NewReplacer("/", "_", " ", "_", ":", "_").Replace(name)
}

// Match compares the PNG capture of name against its baseline. A missing
// baseline, or Update mode, writes the capture as the new baseline.
func (s *Store) Match(name string, capture []byte, opts Options) (Result, error) {
	opts = s.Options(opts)
	actual, err := png.Decode(bytes.NewReader(capture))
	if err != nil {
		return Result{}, fmt.Errorf("decode capture %s: %w", name, err)
	}

	path := s.BaselinePath(name)
	baseline, err := readPNG(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && s.Update) {
		if err := writeFile(path, capture); err != nil {
			return Result{}, err
		}
		s.log.Info().Str("name", name).Str("path", path).Msg("baseline written")
		return Result{Pass: true, Created: true}, nil
	}
	if err != nil {
		return Result{}, err
	}

	res, err := Compare(baseline, actual, opts)
	if err != nil {
		var dim *DimensionError
		if errors.As(err, &dim) {
			_ = writeFile(filepath.Join(s.DiffDir, fileName(name)+".actual.png"), capture)
		}
		return Result{}, fmt.Errorf("snapshot %s: %w", name, err)
	}
	if res.Pass {
		s.log.Debug().Str("name", name).Int("diff_pixels", res.DiffPixels).Msg("snapshot matches")
		return res, nil
	}

	diffPath := filepath.Join(s.DiffDir, fileName(name)+".diff.png")
	var buf bytes.Buffer
	if err := png.Encode(&buf, res.Diff); err == nil {
		if err := writeFile(diffPath, buf.Bytes()); err != nil {
			s.log.Warn().Err(err).Str("name", name).Msg("diff image not written")
			diffPath = ""
		}
	}
	return res, &MismatchError{
		Name:          name,
		DiffPixels:    res.DiffPixels,
		DiffRatio:     res.DiffRatio,
		Threshold:     opts.FailureThreshold,
		ThresholdType: opts.FailureThresholdType,
		DiffPath:      diffPath,
	}
}

func readPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode baseline %s: %w", path, err)
	}
	return img, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
