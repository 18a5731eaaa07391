package verify_test

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ziplock/relkit/internal/adapters/verify"
	"github.com/ziplock/relkit/internal/core/domain"
	"github.com/ziplock/relkit/internal/core/ports"
	"github.com/ziplock/relkit/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

var requiredSymbols = []string{"ziplock_init", "ziplock_last_error"}

func expectations() verify.Expectations {
	return verify.Expectations{
		MinSize:         8,
		MaxSize:         1 << 20,
		RequiredSymbols: requiredSymbols,
		OptionalSymbols: []string{"ziplock_enable_debug_logging"},
	}
}

func sharedLibrary(t *testing.T, content string) domain.Artifact {
	t.Helper()
	path := filepath.Join(t.TempDir(), "libziplock_shared.so")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return domain.Artifact{
		Kind: domain.ArtifactSharedLibrary,
		Path: path,
		Target: domain.BuildTarget{
			Platform: domain.PlatformLinux,
			Arch:     "x86_64",
			Profile:  domain.ProfileRelease,
		},
	}
}

func quietLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	return logger
}

func TestVerify_PassingArtifact(t *testing.T) {
	ctrl := gomock.NewController(t)
	content := "a perfectly fine shared object"
	artifact := sharedLibrary(t, content)

	inspector := mocks.NewMockInspector(ctrl)
	inspector.EXPECT().Inspect(artifact.Path).Return(ports.BinaryInfo{Format: domain.FormatELF, Arch: "x86_64"}, nil)
	inspector.EXPECT().ExportedSymbols(artifact.Path).Return(requiredSymbols, nil)

	v := verify.New(inspector, quietLogger(ctrl), expectations())
	verdict := v.Verify(artifact)

	assert.True(t, verdict.Passed)
	assert.Empty(t, verdict.Reasons)
	assert.Equal(t, int64(len(content)), verdict.Artifact.Size)

	sum := sha256.Sum256([]byte(content))
	assert.Equal(t, hex.EncodeToString(sum[:]), verdict.Artifact.Checksum)
	assert.Len(t, verdict.Artifact.Checksum, 64)
}

func TestVerify_MissingArtifact(t *testing.T) {
	ctrl := gomock.NewController(t)

	// The inspector must never be asked about a nonexistent file.
	inspector := mocks.NewMockInspector(ctrl)

	v := verify.New(inspector, quietLogger(ctrl), expectations())
	verdict := v.Verify(domain.Artifact{
		Kind:   domain.ArtifactSharedLibrary,
		Path:   filepath.Join(t.TempDir(), "absent.so"),
		Target: domain.BuildTarget{Platform: domain.PlatformLinux, Arch: "x86_64"},
	})

	assert.False(t, verdict.Passed)
	require.Len(t, verdict.Reasons, 1)
	assert.Contains(t, verdict.Reasons[0], "does not exist")
}

func TestVerify_CollectsIndependentReasons(t *testing.T) {
	ctrl := gomock.NewController(t)
	artifact := sharedLibrary(t, "tiny") // below MinSize

	inspector := mocks.NewMockInspector(ctrl)
	// Wrong architecture on top of the size failure.
	inspector.EXPECT().Inspect(artifact.Path).Return(ports.BinaryInfo{Format: domain.FormatELF, Arch: "aarch64"}, nil)
	inspector.EXPECT().ExportedSymbols(artifact.Path).Return([]string{"ziplock_init"}, nil)

	v := verify.New(inspector, quietLogger(ctrl), expectations())
	verdict := v.Verify(artifact)

	assert.False(t, verdict.Passed)
	require.Len(t, verdict.Reasons, 3)
	assert.Contains(t, verdict.Reasons[0], "below minimum")
	assert.Contains(t, verdict.Reasons[1], "binary architecture aarch64, expected x86_64")
	assert.Contains(t, verdict.Reasons[2], "required symbol missing: ziplock_last_error")
}

func TestVerify_WrongFormat(t *testing.T) {
	ctrl := gomock.NewController(t)
	artifact := sharedLibrary(t, "a pe file posing as a shared object")

	inspector := mocks.NewMockInspector(ctrl)
	inspector.EXPECT().Inspect(artifact.Path).Return(ports.BinaryInfo{Format: domain.FormatPE, Arch: "x86_64"}, nil)
	inspector.EXPECT().ExportedSymbols(artifact.Path).Return(requiredSymbols, nil)

	v := verify.New(inspector, quietLogger(ctrl), expectations())
	verdict := v.Verify(artifact)

	assert.False(t, verdict.Passed)
	assert.Contains(t, verdict.Reasons[0], "binary format pe, expected elf")
}

func TestVerify_WindowsExpectsPEAndSkipsSymbols(t *testing.T) {
	ctrl := gomock.NewController(t)
	path := filepath.Join(t.TempDir(), "ziplock_shared.dll")
	require.NoError(t, os.WriteFile(path, []byte("a windows shared object"), 0o644))

	artifact := domain.Artifact{
		Kind:   domain.ArtifactSharedLibrary,
		Path:   path,
		Target: domain.BuildTarget{Platform: domain.PlatformWindows, Arch: "x86_64"},
	}

	inspector := mocks.NewMockInspector(ctrl)
	inspector.EXPECT().Inspect(path).Return(ports.BinaryInfo{Format: domain.FormatPE, Arch: "x86_64"}, nil)
	// ExportedSymbols must not be called for PE binaries.

	v := verify.New(inspector, quietLogger(ctrl), expectations())
	verdict := v.Verify(artifact)
	assert.True(t, verdict.Passed)
}

func TestVerify_OptionalSymbolLogged(t *testing.T) {
	ctrl := gomock.NewController(t)
	artifact := sharedLibrary(t, "a perfectly fine shared object")

	inspector := mocks.NewMockInspector(ctrl)
	inspector.EXPECT().Inspect(artifact.Path).Return(ports.BinaryInfo{Format: domain.FormatELF, Arch: "x86_64"}, nil)
	inspector.EXPECT().ExportedSymbols(artifact.Path).Return(
		append([]string{"ziplock_enable_debug_logging"}, requiredSymbols...), nil)

	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Regex("optional symbol present")).Times(1)

	v := verify.New(inspector, logger, expectations())
	verdict := v.Verify(artifact)
	assert.True(t, verdict.Passed)
}
