package advice

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Parse decodes and validates a raw advice answer.
func Parse(raw string) (*Result, error) {
	raw = strings.TrimSpace(raw)
	var res Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return &res, nil
}

// Validate checks the stage label and every step.
func (r *Result) Validate() error {
	if r.EstimatedStage == "" {
		return fmt.Errorf("%w: estimated_stage is missing", ErrMalformedResponse)
	}
	if !slices.Contains(Stages, r.EstimatedStage) {
		return fmt.Errorf("%w: unknown estimated_stage %q", ErrMalformedResponse, r.EstimatedStage)
	}
	if err := validateSteps("processing_structure", r.ProcessingStructure); err != nil {
		return err
	}
	return validateSteps("advice", r.Advice)
}

func validateSteps(field string, steps []Step) error {
	for i, s := range steps {
		if s.Level < 1 {
			return fmt.Errorf("%w: %s[%d].level must be >= 1", ErrMalformedResponse, field, i)
		}
		switch s.Status {
		case "", StatusDone, StatusInProgress, StatusTodo:
		default:
			return fmt.Errorf("%w: %s[%d].status %q is invalid", ErrMalformedResponse, field, i, s.Status)
		}
	}
	return nil
}
