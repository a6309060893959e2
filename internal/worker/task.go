package worker

import "time"

// Op is the kind of backend call a task performs.
type Op string

const (
	// OpIndex uploads a content snapshot for embedding.
	OpIndex Op = "index"

	// OpDelete removes a file's embeddings from the backend.
	OpDelete Op = "delete"
)

// IndexTask is one unit of dispatch work. Content is snapshotted at
// enqueue time and never re-read, so concurrent edits to the checkout
// cannot race the upload.
type IndexTask struct {
	Op      Op
	Path    string
	Content []byte
	Hash    string
	ModTime time.Time
}

// Result is the outcome of dispatching one task.
type Result struct {
	Task IndexTask
	Err  error
}

// Ok reports whether the task succeeded.
func (r Result) Ok() bool {
	return r.Err == nil
}
