package dispatch

import (
	"github.com/google/uuid"

	"github.com/papercomputeco/toolrelay/pkg/tool"
)

// Status is the outcome of a dispatched call.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// FileArtifact is a file the client should save on the user's behalf.
type FileArtifact struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"`
}

// Response is the interpreted result of one tool call. ID gives every
// response its own identity, so side effects can be keyed on it.
type Response struct {
	ID       uuid.UUID     `json:"id"`
	Tool     tool.ID       `json:"tool"`
	Status   Status        `json:"status"`
	Payload  string        `json:"payload"`
	Artifact *FileArtifact `json:"artifact,omitempty"`
}

func newResponse(id tool.ID, payload string) *Response {
	return &Response{
		ID:      uuid.New(),
		Tool:    id,
		Status:  StatusSuccess,
		Payload: payload,
	}
}

// Failure is a dispatch error. Message is what the user gets to see; Err is
// the underlying cause, which may carry more detail than Message exposes.
type Failure struct {
	Tool    tool.ID
	Message string
	Err     error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}
