package search

import (
	"time"

	"github.com/kestrel-chess/kestrel/internal/board"
)

// Limits is the configuration record §3 names: the recognized
// search-time options a front end can set per search.
type Limits struct {
	Depth       int // hard depth ceiling, 0 = MaxPly
	Nodes       int64
	MoveTime    time.Duration
	WhiteTime   time.Duration
	BlackTime   time.Duration
	WhiteInc    time.Duration
	BlackInc    time.Duration
	MovesToGo   int
	SearchMoves []board.Move
	Infinite    bool
}
