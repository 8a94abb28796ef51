package search

// Options toggles the selectivity heuristics of §4.4 independently,
// the way the teacher's Options struct (pkg/engine/options.go) lets
// each pruning technique be disabled for testing or tuning without
// touching the control flow that implements it.
type Options struct {
	Hash    int
	Threads int

	AspirationWindows        bool
	Razoring                 bool
	ReverseFutility          bool
	NullMovePruning          bool
	Probcut                  bool
	SingularExt              bool
	Lmp                      bool
	See                      bool
	CheckExt                 bool
	InternalIterativeReduce  bool
}

// NewOptions returns every heuristic enabled, one thread, and a 16 MB
// table — the teacher's NewOptions defaults (pkg/engine/options.go).
func NewOptions() Options {
	return Options{
		Hash:                    16,
		Threads:                 1,
		AspirationWindows:       true,
		Razoring:                true,
		ReverseFutility:         true,
		NullMovePruning:         true,
		Probcut:                 true,
		SingularExt:             true,
		Lmp:                     true,
		See:                     true,
		CheckExt:                true,
		InternalIterativeReduce: true,
	}
}
