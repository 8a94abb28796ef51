package uci

import (
	"bytes"
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/kestrel-chess/kestrel/internal/board"
	"github.com/kestrel-chess/kestrel/internal/search"
)

type fakeEngine struct {
	prepared    bool
	newGamed    bool
	progressFn  func(search.Info)
	currMoveFn  func(int, board.Move, int)
	searchCalls int
	result      search.Info
}

func (e *fakeEngine) Prepare() { e.prepared = true }
func (e *fakeEngine) NewGame() { e.newGamed = true }

func (e *fakeEngine) SetProgressFunc(f func(search.Info)) { e.progressFn = f }

func (e *fakeEngine) SetCurrMoveFunc(f func(depth int, move board.Move, n int)) {
	e.currMoveFn = f
}

func (e *fakeEngine) Search(ctx context.Context, positions []board.Position, limits search.Limits) search.Info {
	e.searchCalls++
	if e.progressFn != nil {
		e.progressFn(e.result)
	}
	return e.result
}

func runProtocol(t *testing.T, engine Engine, input string) string {
	t.Helper()
	p := New("Kestrel", "kestrel-chess", "test", engine, nil)
	var out bytes.Buffer
	in := strings.NewReader(input)
	logger := log.New(io.Discard, "", 0)
	done := make(chan struct{})
	go func() {
		p.Run(in, &out, logger)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return within the deadline")
	}
	return out.String()
}

func TestUciCommandAnnouncesIdentity(t *testing.T) {
	engine := &fakeEngine{}
	out := runProtocol(t, engine, "uci\nquit\n")
	if !strings.Contains(out, "id name Kestrel test") {
		t.Fatalf("missing id name line: %q", out)
	}
	if !strings.Contains(out, "id author kestrel-chess") {
		t.Fatalf("missing id author line: %q", out)
	}
	if !strings.Contains(out, "uciok") {
		t.Fatalf("missing uciok: %q", out)
	}
}

func TestIsReadyCallsPrepareAndRepliesReadyok(t *testing.T) {
	engine := &fakeEngine{}
	out := runProtocol(t, engine, "isready\nquit\n")
	if !engine.prepared {
		t.Fatal("expected Prepare to be called")
	}
	if !strings.Contains(out, "readyok") {
		t.Fatalf("missing readyok: %q", out)
	}
}

func TestUciNewGameCallsNewGame(t *testing.T) {
	engine := &fakeEngine{}
	runProtocol(t, engine, "ucinewgame\nquit\n")
	if !engine.newGamed {
		t.Fatal("expected NewGame to be called")
	}
}

// drainEngineOutput runs goCommand directly and drains the resulting
// channel itself, sidestepping Run's command loop: with a fake engine
// that answers instantly, racing "go" against a "quit" fed through the
// same static input has no deterministic ordering (an EOF-triggered
// channel close and a search-completion channel close become ready in
// the same select tick), so these two tests talk to the channels the
// same way Run does instead of going through Run itself.
func drainEngineOutput(t *testing.T, p *Protocol) search.Info {
	t.Helper()
	var last search.Info
	for si := range p.engineOutput {
		last = si
	}
	return last
}

func TestGoCommandEmitsBestmoveFromSearchResult(t *testing.T) {
	m := board.NewMove(board.SquareE2, board.SquareE4, board.Pawn, board.Empty)
	engine := &fakeEngine{result: search.Info{Depth: 1, PV: []board.Move{m}}}
	p := New("Kestrel", "kestrel-chess", "test", engine, nil)
	if err := p.handle("position startpos", &bytes.Buffer{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.handle("go depth 1", &bytes.Buffer{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result := drainEngineOutput(t, p)
	if engine.searchCalls != 1 {
		t.Fatalf("expected exactly one Search call, got %d", engine.searchCalls)
	}
	if len(result.PV) == 0 || result.PV[0].String() != "e2e4" {
		t.Fatalf("expected bestmove e2e4, got PV %v", result.PV)
	}
}

func TestGoCommandFallsBackToFirstLegalMoveWhenPVIsEmpty(t *testing.T) {
	engine := &fakeEngine{result: search.Info{Depth: 0}}
	p := New("Kestrel", "kestrel-chess", "test", engine, nil)
	if err := p.handle("position startpos", &bytes.Buffer{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.handle("go depth 1", &bytes.Buffer{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result := drainEngineOutput(t, p)
	if len(result.PV) == 0 {
		t.Fatal("expected normalizePV to fall back to a legal root move")
	}
}

func TestSetOptionRejectsUnknownName(t *testing.T) {
	engine := &fakeEngine{}
	p := New("Kestrel", "kestrel-chess", "test", engine, nil)
	err := p.handle("setoption name Bogus value 1", &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected an error for an unknown option name")
	}
}

func TestSetOptionAppliesIntOption(t *testing.T) {
	engine := &fakeEngine{}
	hash := 16
	opts := []Option{&IntOption{Name: "Hash", Min: 1, Max: 1024, Value: &hash}}
	p := New("Kestrel", "kestrel-chess", "test", engine, opts)
	if err := p.handle("setoption name Hash value 64", &bytes.Buffer{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash != 64 {
		t.Fatalf("expected Hash to be set to 64, got %d", hash)
	}
}

func TestFormatScoreReportsCentipawnsBelowMateThreshold(t *testing.T) {
	if got := formatScore(120); got != "cp 120" {
		t.Fatalf("got %q", got)
	}
}

func TestFormatScoreFlattensNoiseNearZero(t *testing.T) {
	for _, s := range []int{-4, -1, 0, 1, 4} {
		if got := formatScore(s); got != "cp 0" {
			t.Fatalf("formatScore(%d) = %q, want cp 0", s, got)
		}
	}
}

func TestFormatScoreReportsMateInOne(t *testing.T) {
	s := search.ValueMate - 1
	if got := formatScore(s); got != "mate 1" {
		t.Fatalf("got %q", got)
	}
}

func TestFormatScoreReportsBeingMatedAsNegative(t *testing.T) {
	s := -(search.ValueMate - 2)
	got := formatScore(s)
	if !strings.HasPrefix(got, "mate -") {
		t.Fatalf("got %q, want a negative mate count", got)
	}
}

func TestPositionCommandWithMovesAdvancesPosition(t *testing.T) {
	engine := &fakeEngine{}
	p := New("Kestrel", "kestrel-chess", "test", engine, nil)
	if err := p.handle("position startpos moves e2e4 e7e5", &bytes.Buffer{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.positions) != 3 {
		t.Fatalf("expected 3 positions (start + 2 moves), got %d", len(p.positions))
	}
}

func TestPositionCommandRejectsIllegalMove(t *testing.T) {
	engine := &fakeEngine{}
	p := New("Kestrel", "kestrel-chess", "test", engine, nil)
	if err := p.handle("position startpos moves e2e5", &bytes.Buffer{}); err == nil {
		t.Fatal("expected an error for an illegal move")
	}
}
