package release

import (
	"archive/tar"
	"compress/gzip"
	"crypto/md5" //nolint:gosec // md5 sidecar is part of the release contract
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/zerr"
)

// writeArchive produces one tar.gz of the whole release tree. The
// archive is written to a temporary path and renamed on success so an
// abort never leaves a partial archive behind.
func writeArchive(tree, dest string) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".archive-*")
	if err != nil {
		return zerr.Wrap(err, "failed to create temp archive")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // best effort cleanup

	gz := gzip.NewWriter(tmp)
	tw := tar.NewWriter(gz)

	walkErr := filepath.WalkDir(tree, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(tree, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(filepath.Join(filepath.Base(tree), rel))
		if err := tw.WriteHeader(header); err != nil {
			return err
		}

		f, err := os.Open(path) //nolint:gosec // walked path under tree
		if err != nil {
			return err
		}
		_, err = io.Copy(tw, f)
		_ = f.Close()
		return err
	})
	if walkErr != nil {
		_ = tmp.Close()
		return zerr.Wrap(walkErr, "failed to archive release tree")
	}

	if err := tw.Close(); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, "failed to finalize tar stream")
	}
	if err := gz.Close(); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, "failed to finalize gzip stream")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to flush archive")
	}

	return os.Rename(tmp.Name(), dest)
}

// writeSidecars writes the .sha256 and .md5 checksum files next to the
// archive, in the "<digest>  <filename>" shape checksum tools expect.
func writeSidecars(archive string) error {
	for suffix, h := range map[string]hash.Hash{
		".sha256": sha256.New(),
		".md5":    md5.New(), //nolint:gosec // md5 sidecar is part of the release contract
	} {
		digest, err := digestFile(archive, h)
		if err != nil {
			return err
		}
		line := fmt.Sprintf("%s  %s\n", digest, filepath.Base(archive))
		if err := os.WriteFile(archive+suffix, []byte(line), 0o644); err != nil {
			return zerr.Wrap(err, "failed to write checksum sidecar")
		}
	}
	return nil
}

func digestFile(path string, h hash.Hash) (string, error) {
	f, err := os.Open(path) //nolint:gosec // pipeline-produced path
	if err != nil {
		return "", zerr.Wrap(err, "failed to open archive")
	}
	defer f.Close() //nolint:errcheck // read-only

	if _, err := io.Copy(h, f); err != nil {
		return "", zerr.Wrap(err, "failed to hash archive")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
