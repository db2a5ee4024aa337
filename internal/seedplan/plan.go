// Package seedplan loads YAML seed plans, validates them against a JSON
// schema and runs their steps through the fixture builders.
package seedplan

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/skilltree/skilltree-e2e/internal/fixtures"
)

//go:embed schema.json
var schemaJSON []byte

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// Plan is a named, ordered list of fixture steps.
type Plan struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one fixture builder call.
type Step struct {
	Op        string             `yaml:"op"`
	Args      Args               `yaml:"args"`
	Overrides fixtures.Overrides `yaml:"overrides"`
}

// Args are the numeric fixture references and strings a step needs.
// Subject defaults to 1.
type Args struct {
	Project     int       `yaml:"project"`
	Subject     int       `yaml:"subject"`
	Skill       int       `yaml:"skill"`
	Group       int       `yaml:"group"`
	Badge       int       `yaml:"badge"`
	Quiz        int       `yaml:"quiz"`
	Question    int       `yaml:"question"`
	FromProject int       `yaml:"fromProject"`
	FromSkill   int       `yaml:"fromSkill"`
	From        *PathItem `yaml:"from"`
	To          *PathItem `yaml:"to"`
	User        string    `yaml:"user"`
	Password    string    `yaml:"password"`
	When        string    `yaml:"when"`
	File        string    `yaml:"file"`
	URL         string    `yaml:"url"`
	Width       int       `yaml:"width"`
}

// PathItem is a learning-path endpoint.
type PathItem struct {
	Num     int  `yaml:"num"`
	Subject int  `yaml:"subject"`
	Badge   bool `yaml:"badge"`
}

func (p PathItem) fixture() fixtures.PathItem {
	if p.Badge {
		return fixtures.BadgeItem(p.Num)
	}
	s := p.Subject
	if s == 0 {
		s = 1
	}
	return fixtures.SubjectSkillItem(p.Num, s)
}

// ValidationError is one schema violation.
type ValidationError struct {
	Path    string
	Message string
	Code    string
}

// InvalidPlanError lists every schema violation of a plan document.
type InvalidPlanError struct {
	Errors []ValidationError
}

func (e *InvalidPlanError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, v := range e.Errors {
		msgs[i] = fmt.Sprintf("%s: %s", v.Path, v.Message)
	}
	return "invalid seed plan: " + strings.Join(msgs, "; ")
}

// Load reads and parses the plan at path.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed plan: %w", err)
	}
	plan, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return plan, nil
}

// Parse validates a YAML plan against the schema and decodes it.
func Parse(data []byte) (*Plan, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse seed plan yaml: %w", err)
	}
	if err := validate(doc); err != nil {
		return nil, err
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("decode seed plan: %w", err)
	}
	for i := range plan.Steps {
		if plan.Steps[i].Args.Subject == 0 {
			plan.Steps[i].Args.Subject = 1
		}
		if err := plan.Steps[i].checkArgs(); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, plan.Steps[i].Op, err)
		}
	}
	return &plan, nil
}

func validate(doc interface{}) error {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(docJSON))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	invalid := &InvalidPlanError{}
	for _, e := range result.Errors() {
		invalid.Errors = append(invalid.Errors, ValidationError{
			Path:    e.Field(),
			Message: e.Description(),
			Code:    e.Type(),
		})
	}
	return invalid
}
