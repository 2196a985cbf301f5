package design

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

const (
	StepText   = "text"
	StepChoice = "choice"
)

type Step struct {
	Field       string   `yaml:"field" json:"id"`
	Kind        string   `yaml:"kind" json:"kind"`
	Title       string   `yaml:"title" json:"title"`
	Question    string   `yaml:"question" json:"question"`
	Placeholder string   `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Options     []string `yaml:"options,omitempty" json:"options,omitempty"`
}

// Questionnaire is the ordered step list shown to the user. Step i answers
// the i-th UserStory field.
type Questionnaire struct {
	TotalSteps int    `yaml:"total_steps" json:"totalSteps"`
	Steps      []Step `yaml:"steps" json:"steps"`
}

var catalog = mustParseCatalog(catalogYAML)

func Catalog() Questionnaire {
	out := Questionnaire{TotalSteps: catalog.TotalSteps, Steps: make([]Step, len(catalog.Steps))}
	for i, st := range catalog.Steps {
		st.Options = append([]string(nil), st.Options...)
		out.Steps[i] = st
	}
	return out
}

func (q Questionnaire) Step(idx int) (Step, bool) {
	if idx < 0 || idx >= len(q.Steps) {
		return Step{}, false
	}
	return q.Steps[idx], true
}

// Option returns the option at idx for choice steps.
func (s Step) Option(idx int) (string, bool) {
	if idx < 0 || idx >= len(s.Options) {
		return "", false
	}
	return s.Options[idx], true
}

// HasOption reports whether value is one of the step's listed options,
// ignoring case and surrounding space.
func (s Step) HasOption(value string) bool {
	value = strings.TrimSpace(value)
	for _, opt := range s.Options {
		if strings.EqualFold(opt, value) {
			return true
		}
	}
	return false
}

func ParseCatalog(raw []byte) (Questionnaire, error) {
	var q Questionnaire
	if err := yaml.Unmarshal(raw, &q); err != nil {
		return Questionnaire{}, fmt.Errorf("decode catalog: %w", err)
	}

	if len(q.Steps) != len(storyFields) {
		return Questionnaire{}, fmt.Errorf("catalog has %d steps, want %d", len(q.Steps), len(storyFields))
	}
	if q.TotalSteps == 0 {
		q.TotalSteps = len(q.Steps)
	}

	for i, st := range q.Steps {
		if st.Field != storyFields[i] {
			return Questionnaire{}, fmt.Errorf("catalog step %d answers %q, want %q", i+1, st.Field, storyFields[i])
		}
		switch st.Kind {
		case StepText:
		case StepChoice:
			if len(st.Options) == 0 {
				return Questionnaire{}, fmt.Errorf("catalog step %q has no options", st.Field)
			}
		default:
			return Questionnaire{}, fmt.Errorf("catalog step %q has unknown kind %q", st.Field, st.Kind)
		}
	}

	return q, nil
}

func mustParseCatalog(raw []byte) Questionnaire {
	q, err := ParseCatalog(raw)
	if err != nil {
		panic(err)
	}
	return q
}
