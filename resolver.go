package modhost

// unsatisfied prunes every dependency already satisfied by a mod in the
// registry snapshot and returns the ones still outstanding. A mod being
// present in the snapshot implies it already reached Enabled, so ordering
// between a mod and its dependencies falls out of checking committed
// entries only.
//
// The check is O(snapshot x remaining deps) and runs repeatedly; that is
// intentional, since dependency sets shrink monotonically and each check is
// cheap relative to the wakeup interval. The resolver never errors; it only
// reports satisfaction state.
func unsatisfied(deps []ModDependency, snapshot []ModID) []ModDependency {
	if len(deps) == 0 {
		return nil
	}
	remaining := make([]ModDependency, len(deps))
	copy(remaining, deps)

	for _, id := range snapshot {
		n := 0
		for _, dep := range remaining {
			if !id.Matches(dep) {
				remaining[n] = dep
				n++
			}
		}
		remaining = remaining[:n]
		if len(remaining) == 0 {
			break
		}
	}
	return remaining
}

// pendingDeps tracks a single mod's outstanding hard and soft dependency
// lists across wait-loop re-checks. Removal is monotonic: once a dependency
// is pruned it is never re-added.
type pendingDeps struct {
	hard []ModDependency
	soft []ModDependency
}

// check prunes both lists against the snapshot and reports whether the mod
// is load-ready, which requires both lists to be empty.
func (p *pendingDeps) check(snapshot []ModID) bool {
	p.hard = unsatisfied(p.hard, snapshot)
	p.soft = unsatisfied(p.soft, snapshot)
	return len(p.hard) == 0 && len(p.soft) == 0
}
