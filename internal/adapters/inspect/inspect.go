// Package inspect reads object file headers and symbols.
//
// Verification never trusts the toolchain's claimed target: the format
// and machine architecture are read from the produced file itself.
package inspect

import (
	"debug/elf"
	"debug/pe"
	"encoding/binary"
	"io"
	"os"

	"github.com/ziplock/relkit/internal/core/domain"
	"github.com/ziplock/relkit/internal/core/ports"
	"go.trai.ch/zerr"
)

// Inspector implements ports.Inspector for ELF and PE binaries, the two
// formats this pipeline produces (.so for Linux/Android, .dll for
// Windows).
type Inspector struct{}

// New creates an Inspector.
func New() *Inspector {
	return &Inspector{}
}

// Inspect detects the object format from the file's magic bytes and
// maps the machine field to a normalized architecture name.
func (i *Inspector) Inspect(path string) (ports.BinaryInfo, error) {
	f, err := os.Open(path) //nolint:gosec // artifact path produced by the pipeline
	if err != nil {
		return ports.BinaryInfo{}, zerr.With(zerr.Wrap(err, "failed to open artifact"), "path", path)
	}
	defer f.Close() //nolint:errcheck // read-only

	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		return ports.BinaryInfo{}, zerr.With(zerr.Wrap(err, "failed to read file header"), "path", path)
	}

	switch {
	case string(magic) == elf.ELFMAG:
		return inspectELF(path)
	case magic[0] == 'M' && magic[1] == 'Z':
		return inspectPE(path)
	case binary.LittleEndian.Uint32(magic) == 0xFEEDFACF || binary.BigEndian.Uint32(magic) == 0xFEEDFACF:
		return ports.BinaryInfo{Format: domain.FormatMachO}, nil
	default:
		return ports.BinaryInfo{Format: domain.FormatUnknown}, nil
	}
}

// ExportedSymbols lists the dynamic symbols of an ELF shared library.
// PE exports are not needed: the Windows packaging path consumes the
// DLL as-is and the FFI symbol contract is checked on the ELF builds.
func (i *Inspector) ExportedSymbols(path string) ([]string, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse ELF"), "path", path)
	}
	defer f.Close() //nolint:errcheck // read-only

	symbols, err := f.DynamicSymbols()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read dynamic symbols"), "path", path)
	}

	names := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		// Only defined symbols count as exports; undefined entries are
		// imports from the dynamic linker's point of view.
		if sym.Section != elf.SHN_UNDEF && sym.Name != "" {
			names = append(names, sym.Name)
		}
	}
	return names, nil
}

func inspectELF(path string) (ports.BinaryInfo, error) {
	f, err := elf.Open(path)
	if err != nil {
		return ports.BinaryInfo{}, zerr.With(zerr.Wrap(err, "failed to parse ELF"), "path", path)
	}
	defer f.Close() //nolint:errcheck // read-only

	info := ports.BinaryInfo{Format: domain.FormatELF}
	switch f.Machine {
	case elf.EM_X86_64:
		info.Arch = "x86_64"
	case elf.EM_AARCH64:
		info.Arch = "aarch64"
	case elf.EM_ARM:
		info.Arch = "armv7"
	case elf.EM_386:
		info.Arch = "i686"
	default:
		info.Arch = f.Machine.String()
	}
	return info, nil
}

func inspectPE(path string) (ports.BinaryInfo, error) {
	f, err := pe.Open(path)
	if err != nil {
		return ports.BinaryInfo{}, zerr.With(zerr.Wrap(err, "failed to parse PE"), "path", path)
	}
	defer f.Close() //nolint:errcheck // read-only

	info := ports.BinaryInfo{Format: domain.FormatPE}
	switch f.Machine {
	case pe.IMAGE_FILE_MACHINE_AMD64:
		info.Arch = "x86_64"
	case pe.IMAGE_FILE_MACHINE_ARM64:
		info.Arch = "aarch64"
	case pe.IMAGE_FILE_MACHINE_I386:
		info.Arch = "i686"
	default:
		info.Arch = "unknown"
	}
	return info, nil
}
