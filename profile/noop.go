//go:build !pprof

package profile

// Modes returns no modes when profiling is not compiled in.
func Modes() []string { return nil }

func start(Profiler) Stopper { return ignore{} }
