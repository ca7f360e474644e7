// Package carcin is a client for the carc.in remote code execution service.
package carcin

import (
	"context"
	"time"
)

// DefaultBaseURL is the public carc.in instance.
const DefaultBaseURL = "https://carc.in"

// Options are the execution options sent alongside the code, e.g.
// {"language": "crystal", "version": "1.11.2"}.
type Options map[string]any

// Language returns the "language" option or "" if unset.
func (o Options) Language() string {
	s, _ := o["language"].(string)
	return s
}

// Merge returns a copy of o with the keys of other layered on top.
func (o Options) Merge(other Options) Options {
	out := make(Options, len(o)+len(other))
	for k, v := range o {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Run is a completed run record as returned by the service.
type Run struct {
	ID        string `json:"id" yaml:"id"`
	Language  string `json:"language" yaml:"language"`
	Version   string `json:"version" yaml:"version"`
	Stdout    string `json:"stdout" yaml:"stdout"`
	Stderr    string `json:"stderr" yaml:"stderr"`
	ExitCode  int    `json:"exit_code" yaml:"exit_code"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
	HTMLURL   string `json:"html_url" yaml:"html_url"`
}

// Created parses CreatedAt. The service emits RFC 3339 timestamps; ok is
// false for anything else.
func (r *Run) Created() (t time.Time, ok bool) {
	t, err := time.Parse(time.RFC3339, r.CreatedAt)
	return t, err == nil
}

// Succeeded reports whether the program exited with status 0.
func (r *Run) Succeeded() bool {
	return r.ExitCode == 0
}

// Runner submits code for execution.
type Runner interface {
	Submit(ctx context.Context, code string, opts Options) (*Run, error)
}
