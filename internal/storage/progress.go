package storage

// ProgressFunc receives fractional progress in (0, 1] from long-running
// stages (bootstrap, FTS batch build). Each stage emits a strictly
// increasing single-pass sequence terminating at 1.0. A nil func is allowed.
type ProgressFunc func(fraction float64)

func emitProgress(fn ProgressFunc, fraction float64) {
	if fn == nil {
		return
	}
	if fraction > 1.0 {
		fraction = 1.0
	}
	fn(fraction)
}
