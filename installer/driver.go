// Package installer defines the boundary between a produced Plan and the
// external program that actually invokes dpkg. No concrete
// dpkg-invoking driver ships here: the real package-installation step
// stays out of scope, and the wire shape of a dpkg-invocation plan is
// deliberately left unconstrained beyond the ordered action groups the
// scheduler already produces.
package installer

import (
	"context"
	"fmt"

	"github.com/debcore/debcore/scheduler"
)

// Driver applies one Changeset's worth of action groups, in order. A
// concrete implementation shells out to dpkg (or to a sandboxed
// stand-in, for tests); callers of Apply must treat a non-nil error as
// a HookFailure/InternalInvariant-class abort: the first failing
// changeset aborts the whole run.
type Driver interface {
	Apply(ctx context.Context, changeset scheduler.Changeset, force scheduler.ForceFlags) error
}

// RunPlan applies every changeset of a Plan in order through driver,
// stopping at the first failure.
func RunPlan(ctx context.Context, driver Driver, plan scheduler.Plan) error {
	for i, cs := range plan.Changesets {
		if err := driver.Apply(ctx, cs, plan.Force); err != nil {
			return fmt.Errorf("installer: applying changeset %d of %d: %w", i+1, len(plan.Changesets), err)
		}
	}
	return nil
}
