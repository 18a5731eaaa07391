// Package telemetry provides the progrock progress recorder.
package telemetry

import (
	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"

	"github.com/ziplock/relkit/internal/core/ports"
)

// Recorder implements ports.Telemetry using progrock: one vertex per
// recorded pipeline unit, completed when the unit finishes.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder
}

// New creates a Recorder with a default tape.
func New() *Recorder {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a Recorder with the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{
		w:   w,
		rec: progrock.NewRecorder(w),
	}
}

// Record starts a vertex named after the pipeline unit.
func (r *Recorder) Record(name string) ports.Vertex {
	v := r.rec.Vertex(digest.FromString(name), name)
	return &vertex{vertex: v}
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

type vertex struct {
	vertex *progrock.VertexRecorder
}

func (v *vertex) Complete(err error) {
	v.vertex.Done(err)
}
