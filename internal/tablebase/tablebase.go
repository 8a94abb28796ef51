// Package tablebase abstracts endgame tablebase probing behind a
// narrow collaborator interface. No table-format binding lives here —
// the search core only ever sees WDL/DTZ classes, never a table
// layout, matching §4.7's "the core must not assume a specific table
// layout" requirement.
package tablebase

import "github.com/kestrel-chess/kestrel/internal/board"

// WDL is the outcome class an interior-node probe returns.
type WDL int

const (
	Unavailable WDL = iota
	Loss
	Draw
	Win
)

// RootResult is what a root DTZ probe returns: a specific move to
// play plus the WDL class and distance-to-zero it was chosen under.
type RootResult struct {
	From, To, Promotion int
	WDL                 WDL
	DTZ                 int
	OK                  bool
}

// Prober is the tablebase collaborator contract of §4.7: a WDL probe
// for interior nodes and a DTZ probe for the root, both keyed by the
// exact fields the underlying table format needs (bitboards, halfmove
// clock, castling rights, en-passant square, side to move) so this
// interface never leaks a specific table layout into the search core.
type Prober interface {
	// MaxPieces is the largest popcount(all pieces) this collaborator
	// can answer for; the caller must not probe above it.
	MaxPieces() int
	ProbeWDL(p *board.Position) WDL
	ProbeRoot(p *board.Position) RootResult
}

// None is the always-unavailable Prober, wired in whenever no table
// set is configured — the §7 "resource unavailable" policy in
// collaborator form.
type None struct{}

func (None) MaxPieces() int                      { return 0 }
func (None) ProbeWDL(*board.Position) WDL         { return Unavailable }
func (None) ProbeRoot(*board.Position) RootResult { return RootResult{} }

// Probe wraps a Prober with the popcount gate §4.7 requires before
// either entry point is invoked at all.
func Probe(pr Prober, p *board.Position) WDL {
	if board.PopCount(p.AllPieces()) > pr.MaxPieces() {
		return Unavailable
	}
	return pr.ProbeWDL(p)
}

func ProbeRoot(pr Prober, p *board.Position) RootResult {
	if board.PopCount(p.AllPieces()) > pr.MaxPieces() {
		return RootResult{}
	}
	return pr.ProbeRoot(p)
}
