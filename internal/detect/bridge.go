package detect

// SearchPathSource notifies when the configured search paths change
type SearchPathSource interface {
	OnSearchPathsChange(fn func(paths []string)) (unsubscribe func())
}

// BindSearchPaths forwards every search path change from src to the engine.
// Paths are passed through untouched; the returned function detaches.
func BindSearchPaths(src SearchPathSource, e *Engine) func() {
	return src.OnSearchPathsChange(func(paths []string) {
		e.logger.Info().Strs("paths", paths).Msg("search paths changed")
		e.SetSearchPaths(paths)
	})
}
