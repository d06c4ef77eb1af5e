package report

import (
	"encoding/json"
	"io"
)

// Event is one line of JSON output.
type Event struct {
	Event      string   `json:"event"`
	State      string   `json:"state,omitempty"`
	Message    string   `json:"message,omitempty"`
	Tag        string   `json:"tag,omitempty"`
	Path       string   `json:"path,omitempty"`
	Host       string   `json:"host,omitempty"`
	Pruned     []string `json:"pruned,omitempty"`
	Code       string   `json:"code,omitempty"`
	Command    string   `json:"command,omitempty"`
	Stderr     string   `json:"stderr,omitempty"`
	ExitStatus *int     `json:"exit_status,omitempty"`
}

// Event names
const (
	EventStep     = "step"
	EventDetail   = "detail"
	EventDeployed = "deployed"
	EventRemoved  = "removed"
	EventDryRun   = "dry_run"
	EventFailed   = "failed"
)

// eventWriter writes events as JSON lines.
type eventWriter struct {
	encoder *json.Encoder
}

func newEventWriter(w io.Writer) *eventWriter {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	return &eventWriter{encoder: encoder}
}

func (e *eventWriter) emit(ev Event) {
	_ = e.encoder.Encode(ev)
}
