package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// CategoryScore is one Lighthouse category below its minimum.
type CategoryScore struct {
	Category string
	Score    float64
	Min      float64
	Missing  bool
}

// ScoreError fails the Lighthouse gate.
type ScoreError struct {
	URL      string
	Failures []CategoryScore
}

func (e *ScoreError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		if f.Missing {
			parts[i] = fmt.Sprintf("%s: no score", f.Category)
			continue
		}
		parts[i] = fmt.Sprintf("%s: %.2f < %.2f", f.Category, f.Score, f.Min)
	}
	return fmt.Sprintf("lighthouse %s below threshold: %s", e.URL, strings.Join(parts, ", "))
}

// execFunc runs a command and returns its stdout.
type execFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// LighthouseRunner shells out to the lighthouse CLI.
type LighthouseRunner struct {
	Binary string
	// ChromeFlags are passed through --chrome-flags.
	ChromeFlags string
	log         zerolog.Logger
	exec        execFunc
}

// NewLighthouseRunner uses binary, or "lighthouse" when empty.
func NewLighthouseRunner(binary string, log zerolog.Logger) *LighthouseRunner {
	if binary == "" {
		binary = "lighthouse"
	}
	return &LighthouseRunner{
		Binary:      binary,
		ChromeFlags: "--headless --no-sandbox",
		log:         log,
		exec:        execCommand,
	}
}

// Run audits url and checks every category in thresholds. The parsed
// scores are returned even when the gate fails.
func (l *LighthouseRunner) Run(ctx context.Context, url string, thresholds map[string]float64) (map[string]float64, error) {
	categories := make([]string, 0, len(thresholds))
	for c := range thresholds {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	args := []string{
		url,
		"--output=json",
		"--output-path=stdout",
		"--quiet",
		"--chrome-flags=" + l.ChromeFlags,
	}
	if len(categories) > 0 {
		args = append(args, "--only-categories="+strings.Join(categories, ","))
	}

	out, err := l.exec(ctx, l.Binary, args...)
	if err != nil {
		return nil, fmt.Errorf("run lighthouse: %w", err)
	}
	scores, err := ParseScores(out)
	if err != nil {
		return nil, err
	}
	l.log.Info().Str("url", url).Interface("scores", scores).Msg("lighthouse audit finished")
	if err := CheckScores(url, scores, thresholds); err != nil {
		return scores, err
	}
	return scores, nil
}

// Lighthouse runs the default lighthouse binary against url.
func Lighthouse(ctx context.Context, url string, thresholds map[string]float64) (map[string]float64, error) {
	return NewLighthouseRunner("", zerolog.Nop()).Run(ctx, url, thresholds)
}

// ParseScores extracts category scores (0..1) from a JSON report.
// Categories whose score is null are left out.
func ParseScores(report []byte) (map[string]float64, error) {
	var lhr struct {
		Categories map[string]struct {
			Score *float64 `json:"score"`
		} `json:"categories"`
	}
	if err := json.Unmarshal(report, &lhr); err != nil {
		return nil, fmt.Errorf("decode lighthouse report: %w", err)
	}
	if len(lhr.Categories) == 0 {
		return nil, fmt.Errorf("lighthouse report has no categories")
	}
	scores := make(map[string]float64, len(lhr.Categories))
	for id, c := range lhr.Categories {
		if c.Score != nil {
			scores[id] = *c.Score
		}
	}
	return scores, nil
}

// CheckScores returns a *ScoreError listing every category under its
// minimum or without a score.
func CheckScores(url string, scores, thresholds map[string]float64) error {
	var failures []CategoryScore
	for cat, min := range thresholds {
		score, ok := scores[cat]
		switch {
		case !ok:
			failures = append(failures, CategoryScore{Category: cat, Min: min, Missing: true})
		case score < min:
			failures = append(failures, CategoryScore{Category: cat, Score: score, Min: min})
		}
	}
	if len(failures) == 0 {
		return nil
	}
	sort.Slice(failures, func(i, j int) bool { return failures[i].Category < failures[j].Category })
	return &ScoreError{URL: url, Failures: failures}
}
