package ports

import "github.com/ziplock/relkit/internal/core/domain"

// BinaryInfo is what the inspector reads out of an object file header.
// Arch is normalized to the same names BuildTarget.CPUArch uses.
type BinaryInfo struct {
	Format domain.BinaryFormat
	Arch   string
}

// Inspector reads binary formats directly. Verification never trusts
// the toolchain's claimed target; it checks the produced file.
//
//go:generate go run go.uber.org/mock/mockgen -source=inspector.go -destination=mocks/mock_inspector.go -package=mocks
type Inspector interface {
	// Inspect detects the object format and machine architecture.
	Inspect(path string) (BinaryInfo, error)

	// ExportedSymbols lists the dynamic symbols a shared library
	// exports.
	ExportedSymbols(path string) ([]string, error)
}
