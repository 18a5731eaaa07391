package ports

// Vertex is one recorded unit of pipeline progress, typically a
// (target, stage) pair.
type Vertex interface {
	// Complete marks the vertex finished, with err nil on success.
	Complete(err error)
}

// Telemetry records pipeline progress for the console UI.
//
//go:generate go run go.uber.org/mock/mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks
type Telemetry interface {
	Record(name string) Vertex
	Close() error
}
