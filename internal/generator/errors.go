package generator

import (
	"fmt"
	"strings"
)

type Stage string

const (
	StagePrompt Stage = "prompt"
	StageImage  Stage = "image"
)

// ConfigurationError is returned by New when a required collaborator is
// missing.
type ConfigurationError struct {
	Component string
}

func (e *ConfigurationError) Error() string {
	return e.Component + " is not configured"
}

// ValidationError lists answer fields that were empty, in declaration order.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "Missing: " + strings.Join(e.Missing, ", ")
}

// UpstreamError wraps a failure of one of the two external services.
type UpstreamError struct {
	Stage Stage
	Err   error
}

func (e *UpstreamError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s stage failed", e.Stage)
	}
	return e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
