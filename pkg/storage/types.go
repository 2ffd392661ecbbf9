// Package storage provides abstractions for the object stores that back the
// activity log.
package storage

import (
	"errors"
	"time"
)

// ContentTypeJSON is the content type used for log objects.
const ContentTypeJSON = "application/json"

// ErrObjectNotFound is returned by Get when no object exists under the key.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo provides information about a storage object.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Object is a fetched object body with its metadata.
type Object struct {
	ObjectInfo
	ContentType string `json:"content_type,omitempty"`
	Data        []byte `json:"data"`
}
