package middleware

// NoopApply and NoopSnapshot are handlers that do nothing, for callers
// that want a WithApply/WithSnapshot wrapper without a real handler
// underneath (benchmarks, tests exercising just the timing path).
var (
	NoopApply    = func() {}
	NoopSnapshot = func() {}
)
