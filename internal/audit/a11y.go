// Package audit gates pages on axe-core accessibility violations and on
// Lighthouse category scores. Both gates are pass/fail; the reports are
// kept only as far as needed to explain a failure.
package audit

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/skilltree/skilltree-e2e/internal/config"
)

const axeRun = `async ([scope, disabled]) => {
  const rules = {};
  for (const id of disabled) rules[id] = { enabled: false };
  const results = await axe.run(scope || document, { rules });
  return results.violations.map(v => ({
    id: v.id,
    impact: v.impact,
    description: v.description,
    help: v.help,
    targets: v.nodes.map(n => n.target.join(' '))
  }));
}`

// A11yOptions configure one accessibility scan.
type A11yOptions struct {
	// Script is a local axe-core file; ScriptURL is used when it is empty.
	Script    string
	ScriptURL string
	// Scope limits the scan to one selector.
	Scope string
	// FailImpacts lists the impacts that fail the gate.
	FailImpacts   []string
	DisabledRules []string
}

// A11yOptionsFrom builds scan options from the audit configuration.
func A11yOptionsFrom(cfg config.AuditConfig) A11yOptions {
	return A11yOptions{Script: cfg.AxeScript, ScriptURL: cfg.AxeURL, FailImpacts: cfg.FailImpacts}
}

// Violation is one failed axe rule.
type Violation struct {
	ID          string   `json:"id"`
	Impact      string   `json:"impact"`
	Description string   `json:"description"`
	Help        string   `json:"help"`
	Targets     []string `json:"targets"`
}

// ViolationsError fails the accessibility gate.
type ViolationsError struct {
	Violations []Violation
}

func (e *ViolationsError) Error() string {
	ids := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		ids[i] = fmt.Sprintf("%s (%s, %d nodes)", v.ID, v.Impact, len(v.Targets))
	}
	return fmt.Sprintf("%d accessibility violation(s): %s", len(e.Violations), strings.Join(ids, ", "))
}

// A11y injects axe-core into page, scans it and fails with a
// *ViolationsError when a violation has one of opts.FailImpacts. All
// violations are returned either way.
func A11y(page playwright.Page, opts A11yOptions) ([]Violation, error) {
	tag := playwright.PageAddScriptTagOptions{}
	switch {
	case opts.Script != "":
		tag.Path = playwright.String(opts.Script)
	case opts.ScriptURL != "":
		tag.URL = playwright.String(opts.ScriptURL)
	default:
		return nil, fmt.Errorf("a11y: no axe-core script configured")
	}
	if _, err := page.AddScriptTag(tag); err != nil {
		return nil, fmt.Errorf("inject axe-core: %w", err)
	}

	disabled := opts.DisabledRules
	if disabled == nil {
		disabled = []string{}
	}
	raw, err := page.Evaluate(axeRun, []interface{}{opts.Scope, disabled})
	if err != nil {
		return nil, fmt.Errorf("run axe: %w", err)
	}
	all, err := parseViolations(raw)
	if err != nil {
		return nil, err
	}
	if failing := FilterViolations(all, opts.FailImpacts); len(failing) > 0 {
		return all, &ViolationsError{Violations: failing}
	}
	return all, nil
}

// parseViolations converts the evaluated JS value.
func parseViolations(raw interface{}) ([]Violation, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode axe result: %w", err)
	}
	var out []Violation
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode axe result: %w", err)
	}
	return out, nil
}

// FilterViolations keeps violations whose impact is in impacts.
func FilterViolations(all []Violation, impacts []string) []Violation {
	want := make(map[string]bool, len(impacts))
	for _, i := range impacts {
		want[strings.ToLower(i)] = true
	}
	var out []Violation
	for _, v := range all {
		if want[strings.ToLower(v.Impact)] {
			out = append(out, v)
		}
	}
	return out
}
