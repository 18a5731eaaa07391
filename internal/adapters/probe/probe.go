// Package probe implements external tool detection.
package probe

import (
	"context"
	"strings"
	"sync"

	"github.com/ziplock/relkit/internal/core/domain"
	"github.com/ziplock/relkit/internal/core/ports"
)

// Prober implements ports.Prober on top of the subprocess runner.
// Results are cached for the duration of the run; nothing persists
// between runs.
type Prober struct {
	runner ports.Runner

	mu    sync.Mutex
	cache map[string]domain.ToolProbe
}

// New creates a Prober.
func New(runner ports.Runner) *Prober {
	return &Prober{
		runner: runner,
		cache:  make(map[string]domain.ToolProbe),
	}
}

// Probe reports whether a tool is available and, when it is, the first
// line of its --version output. Absence is data: Probe never fails the
// run by itself.
func (p *Prober) Probe(ctx context.Context, tool string) domain.ToolProbe {
	p.mu.Lock()
	if cached, ok := p.cache[tool]; ok {
		p.mu.Unlock()
		return cached
	}
	p.mu.Unlock()

	result := domain.ToolProbe{Tool: tool}
	res, err := p.runner.Run(ctx, ports.RunRequest{Command: []string{tool, "--version"}})
	if err == nil {
		result.Available = true
		result.Version = firstLine(res.Stdout)
		if result.Version == "" {
			result.Version = firstLine(res.Stderr)
		}
	}

	p.mu.Lock()
	p.cache[tool] = result
	p.mu.Unlock()
	return result
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}
