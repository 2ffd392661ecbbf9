package activity

import (
	"fmt"
	"strings"
	"time"
)

const (
	keyRoot = "log"

	// timestampLayout is fixed width so lexical order equals time order.
	timestampLayout = "2006-01-02T15:04:05.000000000Z"
)

// PartitionPrefix returns the key prefix holding one student's activity
// for one task. The trailing slash keeps task_1 from matching task_10.
func PartitionPrefix(userID string, taskNumber int) string {
	return fmt.Sprintf("%s/%s/task_%d/", keyRoot, userID, taskNumber)
}

// FormatTimestamp renders t in the fixed-width UTC form used in keys and
// envelope bodies.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// keyInfo is the ordering information recovered from a stored key.
type keyInfo struct {
	Key       string
	Timestamp time.Time
	Event     EventType
	ID        string
}

// after reports whether k sorts after o: later timestamp first, then the
// greater full key.
func (k keyInfo) after(o keyInfo) bool {
	if !k.Timestamp.Equal(o.Timestamp) {
		return k.Timestamp.After(o.Timestamp)
	}
	return k.Key > o.Key
}

// parseKey extracts ordering information from a key inside prefix. Keys
// that do not follow the naming scheme report false.
func parseKey(prefix, key string) (keyInfo, bool) {
	name, ok := strings.CutPrefix(key, prefix)
	if !ok || strings.Contains(name, "/") {
		return keyInfo{}, false
	}
	name, ok = strings.CutSuffix(name, ".json")
	if !ok || len(name) < len(timestampLayout)+1 {
		return keyInfo{}, false
	}

	ts, err := time.Parse(timestampLayout, name[:len(timestampLayout)])
	if err != nil {
		return keyInfo{}, false
	}
	rest, ok := strings.CutPrefix(name[len(timestampLayout):], "_")
	if !ok {
		return keyInfo{}, false
	}
	event, id, ok := strings.Cut(rest, "_")
	if !ok || id == "" {
		return keyInfo{}, false
	}
	switch EventType(event) {
	case EventRun, EventAIHelp, EventSave:
	default:
		return keyInfo{}, false
	}

	return keyInfo{Key: key, Timestamp: ts, Event: EventType(event), ID: id}, true
}
