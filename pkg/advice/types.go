// Package advice requests stepwise-refinement tutoring advice for student
// code from an LLM backend and validates the structured answer.
package advice

import "context"

// Stage is the learner's estimated position in the stepwise refinement
// process. Values are the labels the tutor is instructed to answer with.
type Stage string

// Pedagogical stages, in order.
const (
	StageUnderstanding Stage = "課題の理解"
	StageOutline       Stage = "処理の大枠決定"
	StageDetailing     Stage = "処理の詳細化"
	StageCoding        Stage = "コード化"
	StageConsistency   Stage = "コードの整合性確認"
)

// Stages lists every valid Stage in order.
var Stages = []Stage{
	StageUnderstanding,
	StageOutline,
	StageDetailing,
	StageCoding,
	StageConsistency,
}

// Step statuses.
const (
	StatusDone       = "done"
	StatusInProgress = "in_progress"
	StatusTodo       = "todo"
)

// Step is one entry of a leveled outline.
type Step struct {
	Level  int    `json:"level"`
	Text   string `json:"text"`
	Status string `json:"status,omitempty"`
}

// Result is the structured advice returned to the student.
type Result struct {
	EstimatedStage      Stage  `json:"estimated_stage"`
	ProcessingStructure []Step `json:"processing_structure"`
	Advice              []Step `json:"advice"`
}

// Request carries the assignment and the student's current code.
type Request struct {
	Task        string
	StudentCode string
}

// Client produces advice for a request.
type Client interface {
	// Advise returns validated advice. Transport and status failures are
	// *upstream.Error; unusable answers wrap ErrMalformedResponse.
	Advise(ctx context.Context, req Request) (*Result, error)
}
