// Package uci is the thin external front end §6 describes: it turns
// the standard chess-GUI line protocol into (configuration, Limits)
// calls against an Engine and formats the engine's progress and
// bestmove lines back out, the way the teacher's pkg/uci does for its
// own engine.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/kestrel-chess/kestrel/internal/board"
	"github.com/kestrel-chess/kestrel/internal/search"
)

// Engine is the collaborator contract the protocol layer drives,
// narrowed from *search.Engine to what a front end actually needs.
type Engine interface {
	Prepare()
	NewGame()
	Search(ctx context.Context, positions []board.Position, limits search.Limits) search.Info
	SetProgressFunc(func(search.Info))
	SetCurrMoveFunc(func(depth int, move board.Move, moveNumber int))
}

// Protocol holds one UCI session's mutable state: the current game's
// position list and the in-flight search, if any, mirroring the
// teacher's own Protocol (pkg/uci/protocol.go).
type Protocol struct {
	name           string
	author         string
	version        string
	options        []Option
	engine         Engine
	positions      []board.Position
	thinking       bool
	engineOutput   chan search.Info
	currMoveOutput chan string
	cancel         context.CancelFunc
}

// New builds a Protocol seeded at the standard starting position.
func New(name, author, version string, engine Engine, options []Option) *Protocol {
	initPosition, err := board.NewPositionFromFEN(board.InitialPositionFEN)
	if err != nil {
		panic(err)
	}
	return &Protocol{
		name:      name,
		author:    author,
		version:   version,
		engine:    engine,
		options:   options,
		positions: []board.Position{initPosition},
	}
}

// Run drives the session: it reads command lines from in, dispatches
// each to the matching handler, and prints info/bestmove lines to out
// as searches progress and complete, until "quit" or in closes.
func (uci *Protocol) Run(in io.Reader, out io.Writer, logger *log.Logger) {
	commands := make(chan string)
	go func() {
		defer close(commands)
		readCommands(in, commands)
	}()

	var searchResult search.Info
	for {
		select {
		case line, ok := <-uci.currMoveOutput:
			if ok {
				fmt.Fprintln(out, line)
			}
		case si, ok := <-uci.engineOutput:
			if ok {
				fmt.Fprintln(out, formatInfo(si))
				searchResult = si
			} else {
				if len(searchResult.PV) != 0 {
					fmt.Fprintf(out, "bestmove %v\n", searchResult.PV[0])
				}
				uci.thinking = false
				uci.cancel = nil
				uci.engineOutput = nil
				uci.currMoveOutput = nil
				searchResult = search.Info{}
			}
		case commandLine, ok := <-commands:
			if !ok {
				return
			}
			if err := uci.handle(commandLine, out); err != nil {
				logger.Println(err)
			}
		}
	}
}

func readCommands(in io.Reader, commands chan<- string) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "quit" {
			return
		}
		if line != "" {
			commands <- line
		}
	}
}

func (uci *Protocol) handle(commandLine string, out io.Writer) error {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil
	}
	commandName := fields[0]
	fields = fields[1:]

	if uci.thinking {
		if commandName == "stop" {
			uci.cancel()
			return nil
		}
		return errors.New("search still running")
	}

	var h func(fields []string, out io.Writer) error
	switch commandName {
	case "uci":
		h = uci.uciCommand
	case "setoption":
		h = uci.setOptionCommand
	case "isready":
		h = uci.isReadyCommand
	case "position":
		h = uci.positionCommand
	case "go":
		h = uci.goCommand
	case "ucinewgame":
		h = uci.uciNewGameCommand
	case "ponderhit":
		h = uci.ponderhitCommand
	}
	if h == nil {
		return errors.New("command not found: " + commandName)
	}
	return h(fields, out)
}

func (uci *Protocol) uciCommand(fields []string, out io.Writer) error {
	fmt.Fprintf(out, "id name %s %s\n", uci.name, uci.version)
	fmt.Fprintf(out, "id author %s\n", uci.author)
	for _, option := range uci.options {
		fmt.Fprintln(out, option.UciString())
	}
	fmt.Fprintln(out, "uciok")
	return nil
}

func (uci *Protocol) setOptionCommand(fields []string, out io.Writer) error {
	if len(fields) < 4 {
		return errors.New("invalid setoption arguments")
	}
	name, value := fields[1], fields[3]
	for _, option := range uci.options {
		if strings.EqualFold(option.UciName(), name) {
			return option.Set(value)
		}
	}
	return errors.New("unhandled option: " + name)
}

func (uci *Protocol) isReadyCommand(fields []string, out io.Writer) error {
	uci.engine.Prepare()
	fmt.Fprintln(out, "readyok")
	return nil
}

func (uci *Protocol) positionCommand(fields []string, out io.Writer) error {
	if len(fields) == 0 {
		return errors.New("missing position arguments")
	}
	var fen string
	movesIndex := findIndexString(fields, "moves")
	switch fields[0] {
	case "startpos":
		fen = board.InitialPositionFEN
	case "fen":
		if movesIndex == -1 {
			fen = strings.Join(fields[1:], " ")
		} else {
			fen = strings.Join(fields[1:movesIndex], " ")
		}
	default:
		return errors.New("unknown position command")
	}
	p, err := board.NewPositionFromFEN(fen)
	if err != nil {
		return err
	}
	positions := []board.Position{p}
	if movesIndex >= 0 && movesIndex+1 < len(fields) {
		for _, s := range fields[movesIndex+1:] {
			m := board.ConvertUciToMove(&positions[len(positions)-1], s)
			if m == board.MoveEmpty {
				return errors.New("illegal move in position command: " + s)
			}
			var next board.Position
			if !positions[len(positions)-1].MakeMove(m, &next) {
				return errors.New("illegal move in position command: " + s)
			}
			positions = append(positions, next)
		}
	}
	uci.positions = positions
	return nil
}

func (uci *Protocol) goCommand(fields []string, out io.Writer) error {
	limits, searchMovesLAN := parseLimits(fields)
	positions := uci.positions
	root := &positions[len(positions)-1]
	for _, s := range searchMovesLAN {
		if m := board.ConvertUciToMove(root, s); m != board.MoveEmpty {
			limits.SearchMoves = append(limits.SearchMoves, m)
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	uci.cancel = cancel
	uci.thinking = true
	engineOutput := make(chan search.Info, 3)
	currMoveOutput := make(chan string, 3)
	uci.engineOutput = engineOutput
	uci.currMoveOutput = currMoveOutput

	uci.engine.SetProgressFunc(func(si search.Info) {
		select {
		case engineOutput <- si:
		default:
		}
	})
	uci.engine.SetCurrMoveFunc(func(depth int, move board.Move, moveNumber int) {
		select {
		case currMoveOutput <- formatCurrMove(depth, move, moveNumber):
		default:
		}
	})

	go func() {
		result := uci.engine.Search(ctx, positions, limits)
		result.PV = normalizePV(result, positions)
		engineOutput <- result
		close(engineOutput)
		close(currMoveOutput)
	}()
	return nil
}

// normalizePV guarantees §7's user-visible failure guarantee — "on
// abort the engine still emits a bestmove" — holds even if a caller's
// Engine returns an empty PV on early cancellation, by falling back
// to the first legal root move.
func normalizePV(info search.Info, positions []board.Position) []board.Move {
	if len(info.PV) != 0 {
		return info.PV
	}
	root := &positions[len(positions)-1]
	var buf [board.MaxMoves]board.Move
	if moves := root.GenerateLegalMoves(buf[:0]); len(moves) != 0 {
		return moves[:1]
	}
	return nil
}

func (uci *Protocol) uciNewGameCommand(fields []string, out io.Writer) error {
	uci.engine.NewGame()
	return nil
}

func (uci *Protocol) ponderhitCommand(fields []string, out io.Writer) error {
	return errors.New("ponder not implemented")
}

// formatInfo renders one progress report per §6's protocol surface,
// applying the exact mate/cp scoring rule: centipawns while
// |s| < VALUE_MATE_IN_PLY, otherwise a mate count derived from how
// many plies short of VALUE_MATE the score sits, and scores with
// |s| <= 4 flattened to 0 to hide sub-pawn evaluator noise.
func formatInfo(si search.Info) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "info depth %v", si.Depth)
	if si.SelDepth != 0 {
		fmt.Fprintf(sb, " seldepth %v", si.SelDepth)
	}
	fmt.Fprintf(sb, " score %s", formatScore(si.Score))
	timeMs := si.Time.Milliseconds()
	fmt.Fprintf(sb, " nodes %v nps %v tbhits %v hashfull %v time %v",
		si.Nodes, si.NPS, si.TBHits, si.HashFull, timeMs)
	if len(si.PV) != 0 {
		sb.WriteString(" pv")
		for _, m := range si.PV {
			sb.WriteString(" ")
			sb.WriteString(m.String())
		}
	}
	return sb.String()
}

func formatScore(s int) string {
	if abs(s) <= 4 {
		s = 0
	}
	if abs(s) < search.ValueMateInPly {
		return fmt.Sprintf("cp %v", s)
	}
	dist := search.ValueMate - abs(s)
	mateIn := dist/2 + dist%2
	if s < 0 {
		mateIn = -mateIn
	}
	return fmt.Sprintf("mate %v", mateIn)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// formatCurrMove renders §6's root-move progress line: `info depth D
// currmove M currmovenumber K`, emitted only by the main worker and
// only once a search has been running long enough to be worth the
// noise.
func formatCurrMove(depth int, move board.Move, moveNumber int) string {
	return fmt.Sprintf("info depth %v currmove %v currmovenumber %v", depth, move, moveNumber)
}

// parseLimits reads every recognized `go` argument into a
// search.Limits, plus the raw LAN text of any `searchmoves` list —
// resolving those to legal board.Move values needs the root position,
// which parseLimits does not have, so the caller does it.
func parseLimits(args []string) (result search.Limits, searchMovesLAN []string) {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "ponder":
			// Ponder mode is not implemented; accepted and ignored so a
			// GUI that always sends it does not trip "command not found".
		case "wtime":
			result.WhiteTime = parseMillis(args, &i)
		case "btime":
			result.BlackTime = parseMillis(args, &i)
		case "winc":
			result.WhiteInc = parseMillis(args, &i)
		case "binc":
			result.BlackInc = parseMillis(args, &i)
		case "movestogo":
			result.MovesToGo, _ = strconv.Atoi(next(args, &i))
		case "depth":
			result.Depth, _ = strconv.Atoi(next(args, &i))
		case "nodes":
			n, _ := strconv.ParseInt(next(args, &i), 10, 64)
			result.Nodes = n
		case "movetime":
			result.MoveTime = parseMillis(args, &i)
		case "infinite":
			result.Infinite = true
		case "searchmoves":
			for i+1 < len(args) && !isGoKeyword(args[i+1]) {
				i++
				searchMovesLAN = append(searchMovesLAN, args[i])
			}
		}
	}
	return result, searchMovesLAN
}

func isGoKeyword(s string) bool {
	switch s {
	case "ponder", "wtime", "btime", "winc", "binc", "movestogo",
		"depth", "nodes", "mate", "movetime", "infinite", "searchmoves":
		return true
	}
	return false
}

func next(args []string, i *int) string {
	if *i+1 < len(args) {
		*i++
		return args[*i]
	}
	return ""
}

func parseMillis(args []string, i *int) time.Duration {
	n, _ := strconv.Atoi(next(args, i))
	return time.Duration(n) * time.Millisecond
}

func findIndexString(slice []string, value string) int {
	for i, v := range slice {
		if v == value {
			return i
		}
	}
	return -1
}
