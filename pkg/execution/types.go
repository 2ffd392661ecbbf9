// Package execution runs student programs on a remote sandbox.
package execution

import "context"

// Request describes one program run.
type Request struct {
	Language string
	Version  string
	Source   string
	Stdin    string
}

// Stage is the output of one compile or run phase.
type Stage struct {
	Stdout string  `json:"stdout"`
	Stderr string  `json:"stderr"`
	Output string  `json:"output"`
	Code   *int    `json:"code"`
	Signal *string `json:"signal"`
}

// Result is the sandbox answer. It is returned to the browser as is.
type Result struct {
	Language string `json:"language"`
	Version  string `json:"version"`
	Run      Stage  `json:"run"`
	Compile  *Stage `json:"compile,omitempty"`
}

// Client executes code.
type Client interface {
	// Execute runs the request. Transport and status failures are
	// *upstream.Error.
	Execute(ctx context.Context, req Request) (*Result, error)
}
