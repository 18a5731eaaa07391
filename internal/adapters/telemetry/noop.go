package telemetry

import "github.com/ziplock/relkit/internal/core/ports"

// Noop discards all telemetry. Used when the progress UI is disabled
// and in tests.
type Noop struct{}

// NewNoop creates a Noop telemetry sink.
func NewNoop() *Noop { return &Noop{} }

// Record implements ports.Telemetry.
func (*Noop) Record(string) ports.Vertex { return noopVertex{} }

// Close implements ports.Telemetry.
func (*Noop) Close() error { return nil }

type noopVertex struct{}

func (noopVertex) Complete(error) {}
