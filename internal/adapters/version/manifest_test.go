package version_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ziplock/relkit/internal/adapters/version"
	"github.com/ziplock/relkit/internal/core/domain"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Cargo.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadVersion(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		want     domain.ReleaseVersion
		wantErr  bool
	}{
		{
			name: "workspace package section",
			manifest: `[workspace.package]
version = "0.3.0"
edition = "2021"
`,
			want: "0.3.0",
		},
		{
			name: "pre-release suffix kept",
			manifest: `[package]
name = "ziplock-shared"
version = "1.2.3-rc.1"
`,
			want: "1.2.3-rc.1",
		},
		{
			name: "first version field wins",
			manifest: `version = "0.3.0"
[dependencies]
serde = { version = "1.0.200" }
`,
			want: "0.3.0",
		},
		{
			name: "dependency-style version is not a release version",
			manifest: `[dependencies]
serde = { version = "1.0" }
`,
			wantErr: true,
		},
		{
			name:     "no version field",
			manifest: "[package]\nname = \"ziplock\"\n",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := version.ReadVersion(writeManifest(t, tt.manifest))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadVersion_MissingManifest(t *testing.T) {
	_, err := version.ReadVersion(filepath.Join(t.TempDir(), "Cargo.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read canonical manifest")
}
