package activity

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamharada/stepwise-system/pkg/advice"
)

const (
	activityTestUserID   = "user_001"
	activityTestUsername = "alice"
	activityTestCode     = "int main(void) { return 0; }"
)

var activityTestScope = Scope{UserID: activityTestUserID, Username: activityTestUsername, TaskNumber: 2}

// fixedBuilder returns a Builder whose clock and ids are controlled by the
// test.
func fixedBuilder(now time.Time) (*Builder, *time.Time) {
	clock := now
	seq := 0
	return &Builder{
		Now: func() time.Time { return clock },
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%04d", seq)
		},
	}, &clock
}

func TestBuilder_Run(t *testing.T) {
	ts := time.Date(2026, 4, 1, 9, 30, 0, 5, time.UTC)
	b, _ := fixedBuilder(ts)

	env := b.Run(activityTestScope, activityTestCode, "3\n", "")
	assert.Equal(t, EventRun, env.Event)
	assert.Equal(t, ts, env.Timestamp)
	assert.Equal(t, "id-0001", env.ID)
	assert.Equal(t, activityTestUserID, env.UserID)
	assert.Equal(t, activityTestUsername, env.Username)
	assert.Equal(t, 2, env.TaskNumber)
	assert.Equal(t, "3\n", env.Stdout)
	assert.Equal(t, "log/user_001/task_2/2026-04-01T09:30:00.000000005Z_run_id-0001.json", env.Key())
}

func TestBuilder_TimestampIsUTC(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	b, _ := fixedBuilder(time.Date(2026, 4, 1, 18, 0, 0, 0, tokyo))

	env := b.Run(activityTestScope, "", "", "")
	assert.Equal(t, time.UTC, env.Timestamp.Location())
	assert.Contains(t, env.Key(), "2026-04-01T09:00:00.000000000Z_run_")
}

func TestBuilder_Advice(t *testing.T) {
	b, _ := fixedBuilder(time.Now())
	res := &advice.Result{
		EstimatedStage:      advice.StageCoding,
		ProcessingStructure: []advice.Step{{Level: 1, Text: "入力", Status: advice.StatusDone}},
		Advice:              []advice.Step{{Level: 1, Text: "ループを考えよう"}},
	}
	hints := 2

	env := b.Advice(activityTestScope, activityTestCode, res, &hints)
	assert.Equal(t, EventAIHelp, env.Event)
	assert.Equal(t, advice.StageCoding, env.EstimatedStage)
	assert.Equal(t, res.ProcessingStructure, env.ProcessingStructure)
	assert.Equal(t, res.Advice, env.Advice)
	require.NotNil(t, env.HintsUsed)
	assert.Equal(t, 2, *env.HintsUsed)
	assert.True(t, strings.HasSuffix(env.Key(), "_ai-help_id-0001.json"))
}

func TestBuilder_Save(t *testing.T) {
	b, _ := fixedBuilder(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))

	env, err := b.Save(activityTestScope, "manual-save", json.RawMessage(` {"code": "x = 1", "cursor": 4} `))
	require.NoError(t, err)
	assert.Equal(t, EventSave, env.Event)
	assert.Equal(t, "x = 1", env.Code)
	assert.Equal(t, "manual-save", env.Checkpoint)
	assert.JSONEq(t, `{"code": "x = 1", "cursor": 4}`, string(env.Body))
	assert.Equal(t, "log/user_001/task_2/2026-04-01T00:00:00.000000000Z_save_manual-save_id-0001.json", env.Key())
	assert.True(t, env.HasCode())
}

func TestBuilder_SaveSameCheckpointSameInstant(t *testing.T) {
	b, _ := fixedBuilder(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))

	first, err := b.Save(activityTestScope, "autosave", json.RawMessage(`{"code": "a"}`))
	require.NoError(t, err)
	second, err := b.Save(activityTestScope, "autosave", json.RawMessage(`{"code": "b"}`))
	require.NoError(t, err)
	assert.NotEqual(t, first.Key(), second.Key())
	assert.Less(t, first.Key(), second.Key())
}

func TestEnvelope_HasCode(t *testing.T) {
	b, _ := fixedBuilder(time.Now())

	assert.True(t, b.Run(activityTestScope, "", "", "").HasCode())
	assert.True(t, b.Advice(activityTestScope, "", nil, nil).HasCode())

	bodies := map[string]bool{
		`{"code": ""}`:   true,
		`{"code": "x"}`:  true,
		`{"note": "hi"}`: false,
		`{"code": 42}`:   false,
		`{"code": null}`: false,
	}
	for body, want := range bodies {
		env, err := b.Save(activityTestScope, "cp", json.RawMessage(body))
		require.NoError(t, err)
		assert.Equal(t, want, env.HasCode(), "body %s", body)
	}
}

func TestBuilder_SaveNonStringCode(t *testing.T) {
	b, _ := fixedBuilder(time.Now())
	env, err := b.Save(activityTestScope, "snap", json.RawMessage(`{"code": 42}`))
	require.NoError(t, err)
	assert.Empty(t, env.Code)
}

func TestBuilder_SaveInvalid(t *testing.T) {
	b, _ := fixedBuilder(time.Now())

	checkpoints := []string{"", ".", "..", "a/b", "has space", strings.Repeat("a", 129), "日本語"}
	for _, cp := range checkpoints {
		_, err := b.Save(activityTestScope, cp, json.RawMessage(`{}`))
		assert.ErrorIs(t, err, ErrInvalidCheckpoint, "checkpoint %q", cp)
	}

	bodies := []string{"", "null", `"code"`, `[1]`, `{"code": `}
	for _, body := range bodies {
		_, err := b.Save(activityTestScope, "ok", json.RawMessage(body))
		assert.ErrorIs(t, err, ErrInvalidBody, "body %q", body)
	}
}

func TestEnvelope_MarshalFixedWidthTimestamp(t *testing.T) {
	b, _ := fixedBuilder(time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC))
	data, err := json.Marshal(b.Run(activityTestScope, "c", "", ""))
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "2026-04-01T09:30:00.000000000Z", fields["timestamp"])
	assert.Equal(t, "run", fields["event"])
	assert.Equal(t, "user_001", fields["userId"])
	assert.EqualValues(t, 2, fields["taskNumber"])
	assert.NotContains(t, fields, "hintsUsed")
}

func TestPackageBuilders(t *testing.T) {
	a := NewRunEnvelope(activityTestScope, "a", "", "")
	b := NewRunEnvelope(activityTestScope, "b", "", "")
	assert.NotEqual(t, a.Key(), b.Key())
	assert.Less(t, a.ID, b.ID, "UUIDv7 ids are time ordered")

	env := NewAdviceEnvelope(activityTestScope, "a", nil, nil)
	assert.Equal(t, EventAIHelp, env.Event)

	_, err := NewSaveEnvelope(activityTestScope, "..", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrInvalidCheckpoint)
}
