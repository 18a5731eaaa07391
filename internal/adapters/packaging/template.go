// Package packaging implements the per-format packagers.
package packaging

import (
	"os"
	"path/filepath"
	"sync"
	"text/template"

	"go.trai.ch/zerr"
)

// Variables is the fixed substitution set available to package
// descriptor templates and lifecycle scripts. The orchestrator never
// introduces new variables dynamically; script logic is an opaque
// payload.
type Variables struct {
	Name         string
	Version      string
	Architecture string
	Checksum     string
	Dependencies []string
	Description  string
}

// renderMu serializes template rendering. Multiple targets may share
// the same template file under parallel execution.
var renderMu sync.Mutex

// Render executes the template at templatePath with the fixed variable
// set and atomically swaps the result into destPath. The fresh-file-
// plus-rename shape guarantees an abort never leaves a partially
// written descriptor behind.
func Render(templatePath, destPath string, vars Variables) error {
	renderMu.Lock()
	defer renderMu.Unlock()

	tmpl, err := template.New(filepath.Base(templatePath)).Option("missingkey=error").ParseFiles(templatePath)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to parse template"), "template", templatePath)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return zerr.Wrap(err, "failed to create destination directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".render-*")
	if err != nil {
		return zerr.Wrap(err, "failed to create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // best effort cleanup

	if err := tmpl.Execute(tmp, vars); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(err, "failed to render template"), "template", templatePath)
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to flush rendered template")
	}

	if err := os.Rename(tmp.Name(), destPath); err != nil {
		return zerr.Wrap(err, "failed to swap rendered template into place")
	}
	return nil
}
