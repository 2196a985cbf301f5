package design

import "strings"

// Field names of a UserStory in declaration order. Validation reports missing
// fields in this order.
const (
	FieldLifeJourney       = "life_journey"
	FieldValuesPassion     = "values_passion"
	FieldInspirationMemory = "inspiration_memory"
	FieldFutureVision      = "future_vision"
	FieldPlacement         = "placement"
	FieldSize              = "size"
	FieldColor             = "color"
	FieldStyle             = "style"
)

var storyFields = []string{
	FieldLifeJourney,
	FieldValuesPassion,
	FieldInspirationMemory,
	FieldFutureVision,
	FieldPlacement,
	FieldSize,
	FieldColor,
	FieldStyle,
}

// UserStory is the questionnaire answer set: four narrative answers and four
// design preferences.
type UserStory struct {
	LifeJourney       string `json:"life_journey"`
	ValuesPassion     string `json:"values_passion"`
	InspirationMemory string `json:"inspiration_memory"`
	FutureVision      string `json:"future_vision"`
	Placement         string `json:"placement"`
	Size              string `json:"size"`
	Color             string `json:"color"`
	Style             string `json:"style"`
}

func Fields() []string {
	out := make([]string, len(storyFields))
	copy(out, storyFields)
	return out
}

func (s UserStory) Get(field string) string {
	switch field {
	case FieldLifeJourney:
		return s.LifeJourney
	case FieldValuesPassion:
		return s.ValuesPassion
	case FieldInspirationMemory:
		return s.InspirationMemory
	case FieldFutureVision:
		return s.FutureVision
	case FieldPlacement:
		return s.Placement
	case FieldSize:
		return s.Size
	case FieldColor:
		return s.Color
	case FieldStyle:
		return s.Style
	}
	return ""
}

// Set assigns value to the named field. It reports false for unknown names.
func (s *UserStory) Set(field, value string) bool {
	switch field {
	case FieldLifeJourney:
		s.LifeJourney = value
	case FieldValuesPassion:
		s.ValuesPassion = value
	case FieldInspirationMemory:
		s.InspirationMemory = value
	case FieldFutureVision:
		s.FutureVision = value
	case FieldPlacement:
		s.Placement = value
	case FieldSize:
		s.Size = value
	case FieldColor:
		s.Color = value
	case FieldStyle:
		s.Style = value
	default:
		return false
	}
	return true
}

// Missing returns the names of fields that are empty after trimming.
func (s UserStory) Missing() []string {
	var missing []string
	for _, field := range storyFields {
		if strings.TrimSpace(s.Get(field)) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

func (s UserStory) Complete() bool {
	return len(s.Missing()) == 0
}
