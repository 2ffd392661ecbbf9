// Package activity records student activity (runs, advice requests and
// explicit saves) as immutable JSON envelopes in an object store and
// resolves the latest saved code per student per task.
package activity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/iamharada/stepwise-system/pkg/advice"
)

// EventType categorizes envelopes.
type EventType string

const (
	// EventRun records a code execution.
	EventRun EventType = "run"

	// EventAIHelp records an advice request that produced valid advice.
	EventAIHelp EventType = "ai-help"

	// EventSave records an explicit save.
	EventSave EventType = "save"
)

// Scope identifies whose activity an envelope belongs to. It is passed
// explicitly to every builder.
type Scope struct {
	UserID     string
	Username   string
	TaskNumber int
}

func (s Scope) validate() error {
	if s.UserID == "" || s.TaskNumber < 1 {
		return ErrInvalidScope
	}
	return nil
}

// Envelope is one immutable activity record.
type Envelope struct {
	Timestamp  time.Time `json:"timestamp"`
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	UserID     string    `json:"userId"`
	TaskNumber int       `json:"taskNumber"`
	Event      EventType `json:"event"`
	Code       string    `json:"code"`

	// run
	Stdout string `json:"stdout,omitempty"`
	Stderr string `json:"stderr,omitempty"`

	// ai-help
	EstimatedStage      advice.Stage  `json:"estimated_stage,omitempty"`
	ProcessingStructure []advice.Step `json:"processing_structure,omitempty"`
	Advice              []advice.Step `json:"advice,omitempty"`
	HintsUsed           *int          `json:"hintsUsed,omitempty"`

	// save
	Checkpoint string          `json:"checkpoint,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
}

// MarshalJSON writes the timestamp in its fixed-width form.
func (e Envelope) MarshalJSON() ([]byte, error) {
	type plain Envelope
	return json.Marshal(struct {
		Timestamp string `json:"timestamp"`
		plain
	}{
		Timestamp: FormatTimestamp(e.Timestamp),
		plain:     plain(e),
	})
}

// Key returns the object key the envelope is stored under.
func (e Envelope) Key() string {
	return PartitionPrefix(e.UserID, e.TaskNumber) +
		FormatTimestamp(e.Timestamp) + "_" + string(e.Event) + "_" + e.ID + ".json"
}

var checkpointPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// ValidateCheckpoint checks that name can be used as a key segment.
func ValidateCheckpoint(name string) error {
	if name == "." || name == ".." || !checkpointPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidCheckpoint, name)
	}
	return nil
}

// Builder creates envelopes. Each call captures its own timestamp.
type Builder struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// NewID returns a time-ordered unique id. Defaults to a UUIDv7.
	NewID func() string
}

// NewBuilder returns a Builder using the wall clock and UUIDv7 ids.
func NewBuilder() *Builder {
	return &Builder{Now: time.Now, NewID: newV7}
}

var defaultBuilder = NewBuilder()

func newV7() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (b *Builder) base(scope Scope, event EventType, code string) Envelope {
	return Envelope{
		Timestamp:  b.Now().UTC(),
		Username:   scope.Username,
		UserID:     scope.UserID,
		TaskNumber: scope.TaskNumber,
		Event:      event,
		Code:       code,
	}
}

// Run builds a run envelope.
func (b *Builder) Run(scope Scope, code, stdout, stderr string) Envelope {
	env := b.base(scope, EventRun, code)
	env.ID = b.NewID()
	env.Stdout = stdout
	env.Stderr = stderr
	return env
}

// Advice builds an ai-help envelope copying the advice fields verbatim.
func (b *Builder) Advice(scope Scope, code string, res *advice.Result, hintsUsed *int) Envelope {
	env := b.base(scope, EventAIHelp, code)
	env.ID = b.NewID()
	if res != nil {
		env.EstimatedStage = res.EstimatedStage
		env.ProcessingStructure = res.ProcessingStructure
		env.Advice = res.Advice
	}
	env.HintsUsed = hintsUsed
	return env
}

// Save builds a save envelope. The body must be a JSON object; its "code"
// member, when a string, becomes the envelope code. The key carries the
// checkpoint followed by a fresh id, so repeated saves of one checkpoint
// never replace each other.
func (b *Builder) Save(scope Scope, checkpoint string, body json.RawMessage) (Envelope, error) {
	if err := ValidateCheckpoint(checkpoint); err != nil {
		return Envelope{}, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Envelope{}, ErrInvalidBody
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}

	code, _ := stringMember(fields, "code")

	env := b.base(scope, EventSave, code)
	env.ID = checkpoint + "_" + b.NewID()
	env.Checkpoint = checkpoint
	env.Body = json.RawMessage(append([]byte(nil), trimmed...))
	return env, nil
}

// HasCode reports whether the envelope carries student code. Run and
// ai-help envelopes always do; a save only when its body has a string
// "code" member.
func (e Envelope) HasCode() bool {
	if e.Event != EventSave {
		return true
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(e.Body, &fields); err != nil {
		return false
	}
	_, ok := stringMember(fields, "code")
	return ok
}

func stringMember(fields map[string]json.RawMessage, name string) (string, bool) {
	raw, ok := fields[name]
	if !ok {
		return "", false
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	return v, true
}

// NewRunEnvelope builds a run envelope with the default builder.
func NewRunEnvelope(scope Scope, code, stdout, stderr string) Envelope {
	return defaultBuilder.Run(scope, code, stdout, stderr)
}

// NewAdviceEnvelope builds an ai-help envelope with the default builder.
func NewAdviceEnvelope(scope Scope, code string, res *advice.Result, hintsUsed *int) Envelope {
	return defaultBuilder.Advice(scope, code, res, hintsUsed)
}

// NewSaveEnvelope builds a save envelope with the default builder.
func NewSaveEnvelope(scope Scope, checkpoint string, body json.RawMessage) (Envelope, error) {
	return defaultBuilder.Save(scope, checkpoint, body)
}
