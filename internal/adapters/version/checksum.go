package version

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"
)

// excludedDirs are never part of the source checksum: build artifacts
// and version-control metadata would make the hash unstable across
// otherwise identical trees.
var excludedDirs = []string{".git", "target", "release", "node_modules"}

// sourceChecksum deterministically hashes the source tree: sorted walk,
// each file contributing its relative path, mode and content. Two runs
// over an unchanged tree produce the same 64-hex-character digest.
// excludeFiles lists slash-separated relative paths left out of the
// hash.
func sourceChecksum(root string, extraExcludes, excludeFiles []string) (string, error) {
	paths, err := sourcePaths(root, extraExcludes, excludeFiles)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	for _, rel := range paths {
		full := filepath.Join(root, rel)
		info, err := os.Lstat(full)
		if err != nil {
			return "", zerr.Wrap(err, "failed to stat source file")
		}

		_, _ = io.WriteString(h, rel)
		_ = binary.Write(h, binary.LittleEndian, uint32(info.Mode().Perm()))

		f, err := os.Open(full) //nolint:gosec // walked path under root
		if err != nil {
			return "", zerr.Wrap(err, "failed to open source file")
		}
		_, err = io.Copy(h, f)
		_ = f.Close()
		if err != nil {
			return "", zerr.Wrap(err, "failed to hash source file")
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// treeFingerprint is a cheap xxhash over paths, sizes and mtimes, used
// to key the checksum cache so an unchanged tree is not re-hashed.
func treeFingerprint(root string, extraExcludes, excludeFiles []string) (uint64, error) {
	paths, err := sourcePaths(root, extraExcludes, excludeFiles)
	if err != nil {
		return 0, err
	}

	h := xxhash.New()
	for _, rel := range paths {
		info, err := os.Lstat(filepath.Join(root, rel))
		if err != nil {
			return 0, zerr.Wrap(err, "failed to stat source file")
		}
		_, _ = h.WriteString(rel)
		_ = binary.Write(h, binary.LittleEndian, info.Size())
		_ = binary.Write(h, binary.LittleEndian, info.ModTime().UnixNano())
	}
	return h.Sum64(), nil
}

func sourcePaths(root string, extraExcludes, excludeFiles []string) ([]string, error) {
	excluded := append(slices.Clone(excludedDirs), extraExcludes...)

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if rel != "." && slices.Contains(excluded, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if slices.Contains(excludeFiles, filepath.ToSlash(rel)) {
			return nil
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to walk source tree"), "root", root)
	}

	slices.SortFunc(paths, strings.Compare)
	return paths, nil
}
