package middleware

// Chain composes wrappers right-to-left, so the first wrapper in the
// argument list runs outermost around handler.
func Chain[T any](wrappers ...func(T) T) func(T) T {
	return func(handler T) T {
		for i := len(wrappers) - 1; i >= 0; i-- {
			handler = wrappers[i](handler)
		}
		return handler
	}
}
