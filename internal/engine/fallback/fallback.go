// Package fallback implements the generic ordered-alternatives driver.
//
// Every fallback in the pipeline (registry-then-local image, MSVC-then-
// GNU, tool-missing-then-skip) goes through the same mechanism: try the
// alternatives in order, advance on failure, never retry a failed
// alternative.
package fallback

import (
	"context"
	"errors"
	"fmt"

	"go.trai.ch/zerr"
)

// Outcome records which alternative of a chain ultimately succeeded.
// Later stages depend on the selection (packaging, output paths), so it
// is returned alongside the warnings emitted while advancing.
type Outcome[T any] struct {
	Selected T
	Index    int
	Warnings []string
}

// Run tries the alternatives in order until one attempt succeeds.
// Each failed alternative contributes a warning naming the failure and
// the next alternative tried. If every alternative fails, the joined
// attempt errors are returned.
func Run[T any](
	ctx context.Context,
	alts []T,
	describe func(T) string,
	attempt func(context.Context, T) error,
) (Outcome[T], error) {
	var out Outcome[T]
	if len(alts) == 0 {
		return out, zerr.New("no alternatives to try")
	}

	var errs error
	for i, alt := range alts {
		if err := ctx.Err(); err != nil {
			return out, errors.Join(errs, err)
		}

		err := attempt(ctx, alt)
		if err == nil {
			out.Selected = alt
			out.Index = i
			return out, nil
		}

		errs = errors.Join(errs, zerr.With(err, "alternative", describe(alt)))
		if i+1 < len(alts) {
			out.Warnings = append(out.Warnings, fmt.Sprintf(
				"%s failed, falling back to %s", describe(alt), describe(alts[i+1])))
		}
	}

	return out, zerr.Wrap(errs, "all alternatives failed")
}
