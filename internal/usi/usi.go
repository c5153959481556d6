// Package usi implements the USI (Universal Shogi Interface) protocol: a
// line-oriented stdin/stdout command set shogi GUIs (Shogidokoro, ShogiGUI)
// use to drive an engine, directly analogous to UCI for chess.
//
// Adapted from github.com/hailam/chessplay/internal/uci's UCI handler,
// generalized from chess's six-piece-type coordinate moves and castling-
// aware FEN to shogi's drop moves and SFEN, and rewired from engine.go's
// blocking engine.SearchWithLimits call onto search.Engine's own
// goroutine-driven, errgroup-based Search.
package usi

import (
	"bufio"
	"fmt"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shogicore/engine/internal/search"
	"github.com/shogicore/engine/internal/shogi"
)

// USI implements the Universal Shogi Interface protocol.
type USI struct {
	engine   *search.Engine
	position *shogi.Position

	ttSizeMB   int
	numWorkers int

	nnueBigPath   string
	nnueSmallPath string

	searching     bool
	searchDone    chan struct{}
	stopRequested atomic.Bool

	profileFile *os.File

	out *bufio.Writer
}

// New creates a new USI protocol handler wrapping eng.
func New(eng *search.Engine) *USI {
	return &USI{
		engine:     eng,
		position:   shogi.StartPosition(),
		ttSizeMB:   64,
		numWorkers: eng.NumWorkers(),
		out:        bufio.NewWriter(os.Stdout),
	}
}

// Run starts the USI main loop, reading commands from stdin until "quit".
func (u *USI) Run() {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "usi":
			u.handleUSI()
		case "isready":
			u.println("readyok")
		case "usinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "ponderhit":
			u.handlePonderHit()
		case "gameover":
			// No persistent learning state to flush; acknowledged silently.
		case "quit":
			u.handleQuit()
		case "setoption":
			u.handleSetOption(args)
		case "d":
			u.println(u.position.String())
		case "perft":
			u.handlePerft(args)
		}
	}
}

func (u *USI) println(s string) {
	fmt.Fprintln(u.out, s)
	u.out.Flush()
}

func (u *USI) printf(format string, a ...any) {
	fmt.Fprintf(u.out, format, a...)
	u.out.Flush()
}

// handleUSI responds to the "usi" command with engine identity and options.
func (u *USI) handleUSI() {
	u.println("id name ShogiCore")
	u.println("id author ShogiCore Contributors")
	u.println("")
	u.println("option name USI_Hash type spin default 64 min 1 max 8192")
	u.println("option name USI_Ponder type check default true")
	u.println("option name Threads type spin default 1 min 1 max 64")
	u.println("option name EvalFile type string default <empty>")
	u.println("option name EvalFileSmall type string default <empty>")
	u.println("option name CPUProfile type string default <empty>")
	u.println("usiok")
}

// handleNewGame resets the engine and its position for a new game.
func (u *USI) handleNewGame() {
	u.engine.Clear()
	u.position = shogi.StartPosition()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves 7g7f 3c3d
//   - position sfen <sfen fields>
//   - position sfen <sfen fields> moves 7g7f
func (u *USI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	var moveStart int

	switch args[0] {
	case "startpos":
		u.position = shogi.StartPosition()
		moveStart = len(args)
		for i, a := range args {
			if a == "moves" {
				moveStart = i + 1
				break
			}
		}
	case "sfen":
		sfenEnd := len(args)
		for i, a := range args[1:] {
			if a == "moves" {
				sfenEnd = i + 1
				break
			}
		}
		sfenStr := strings.Join(args[1:sfenEnd], " ")
		pos, err := shogi.ParseSFEN(sfenStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "info string invalid sfen: %v\n", err)
			return
		}
		u.position = pos
		moveStart = len(args)
		for i, a := range args {
			if a == "moves" {
				moveStart = i + 1
				break
			}
		}
	default:
		return
	}

	if moveStart < len(args) {
		for _, moveStr := range args[moveStart:] {
			move := parseUSIMove(u.position, moveStr)
			if move == shogi.NoMove {
				fmt.Fprintf(os.Stderr, "info string invalid move: %s\n", moveStr)
				return
			}
			u.position.DoMove(move)
		}
	}
}

// parseUSIMove converts a USI move token ("7g7f", "2b3c+", "P*5e") into the
// matching entry of pos's legal move list, or shogi.NoMove if none matches.
func parseUSIMove(pos *shogi.Position, tok string) shogi.Move {
	legal := shogi.GenerateLegalMoves(pos)

	if idx := strings.IndexByte(tok, '*'); idx >= 0 {
		if idx != 1 {
			return shogi.NoMove
		}
		pt, ok := dropLetterToType(tok[0])
		if !ok {
			return shogi.NoMove
		}
		to, ok := shogi.ParseSquare(tok[2:])
		if !ok {
			return shogi.NoMove
		}
		for _, m := range legal.Slice() {
			if m.IsDrop() && m.DropPiece() == pt && m.To() == to {
				return m
			}
		}
		return shogi.NoMove
	}

	if len(tok) < 4 {
		return shogi.NoMove
	}
	from, ok := shogi.ParseSquare(tok[0:2])
	if !ok {
		return shogi.NoMove
	}
	to, ok := shogi.ParseSquare(tok[2:4])
	if !ok {
		return shogi.NoMove
	}
	promote := len(tok) == 5 && tok[4] == '+'

	for _, m := range legal.Slice() {
		if m.IsDrop() || m.From() != from || m.To() != to {
			continue
		}
		if m.IsPromotion() == promote {
			return m
		}
	}
	return shogi.NoMove
}

func dropLetterToType(c byte) (shogi.PieceType, bool) {
	switch c {
	case 'P':
		return shogi.Pawn, true
	case 'L':
		return shogi.Lance, true
	case 'N':
		return shogi.Knight, true
	case 'S':
		return shogi.Silver, true
	case 'G':
		return shogi.Gold, true
	case 'B':
		return shogi.Bishop, true
	case 'R':
		return shogi.Rook, true
	default:
		return shogi.NoPieceType, false
	}
}

// GoOptions holds the parsed arguments of a "go" command.
type GoOptions struct {
	Depth     int
	MoveTime  time.Duration
	Infinite  bool
	Ponder    bool
	BTime     time.Duration
	WTime     time.Duration
	BInc      time.Duration
	WInc      time.Duration
	Byoyomi   time.Duration
	MovesToGo int
}

func (u *USI) parseGoOptions(args []string) GoOptions {
	var opts GoOptions
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			if i+1 < len(args) {
				opts.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "movetime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.MoveTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "infinite":
			opts.Infinite = true
		case "ponder":
			opts.Ponder = true
		case "btime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.BTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "wtime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.WTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "binc":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.BInc = time.Duration(ms) * time.Millisecond
				i++
			}
		case "winc":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.WInc = time.Duration(ms) * time.Millisecond
				i++
			}
		case "byoyomi":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.Byoyomi = time.Duration(ms) * time.Millisecond
				i++
			}
		case "movestogo":
			if i+1 < len(args) {
				opts.MovesToGo, _ = strconv.Atoi(args[i+1])
				i++
			}
		}
	}
	return opts
}

// unlimitedByoyomiPeriods stands in for "no period cap" when a GUI issues
// plain `go byoyomi N` without ever sending a periods count of its own —
// USI has no separate periods field the way CSA-style clocks do.
const unlimitedByoyomiPeriods = 1 << 20

// buildTimeControl converts GoOptions plus which side is to move into a
// search.TimeControl, mirroring uci.go's calculateLimits/calculateTimeForMove.
func (u *USI) buildTimeControl(opts GoOptions) search.TimeControl {
	var control search.TimeControl
	switch {
	case opts.Infinite:
		control = search.Infinite()
	case opts.Depth > 0:
		control = search.FixedDepth(opts.Depth)
	case opts.MoveTime > 0:
		control = search.FixedTime(opts.MoveTime)
	case opts.Byoyomi > 0:
		control = search.Byoyomi(u.mainMsFor(opts), opts.Byoyomi.Milliseconds(), unlimitedByoyomiPeriods)
	case opts.BTime > 0 || opts.WTime > 0:
		control = search.Fischer(opts.BTime.Milliseconds(), opts.WTime.Milliseconds(), u.incMsFor(opts))
	default:
		control = search.Infinite()
	}
	if opts.Ponder {
		control = search.Ponder(control)
	}
	return control
}

func (u *USI) mainMsFor(opts GoOptions) int64 {
	if u.position.SideToMove == shogi.Black {
		return opts.BTime.Milliseconds()
	}
	return opts.WTime.Milliseconds()
}

func (u *USI) incMsFor(opts GoOptions) int64 {
	if u.position.SideToMove == shogi.Black {
		return opts.BInc.Milliseconds()
	}
	return opts.WInc.Milliseconds()
}

// handleGo starts a search in the background and prints "bestmove" once it
// completes, the same fire-and-forget-goroutine shape as uci.go's handleGo.
func (u *USI) handleGo(args []string) {
	opts := u.parseGoOptions(args)
	control := u.buildTimeControl(opts)

	u.engine.OnInfo = func(info search.SearchInfo) {
		u.sendInfo(info)
	}

	u.searching = true
	u.stopRequested.Store(false)
	u.searchDone = make(chan struct{})

	pos := u.position.Clone()
	validationPos := u.position.Clone()

	go func() {
		defer close(u.searchDone)

		result := u.engine.Search(pos, control)
		u.searching = false

		if result.Move != shogi.NoMove {
			legal := shogi.GenerateLegalMoves(validationPos)
			for _, m := range legal.Slice() {
				if m == result.Move {
					u.printf("bestmove %s\n", result.Move.String())
					return
				}
			}
			fmt.Fprintf(os.Stderr, "info string search returned an illegal move %s\n", result.Move.String())
		}

		legal := shogi.GenerateLegalMoves(validationPos)
		if legal.Len() > 0 {
			u.printf("bestmove %s\n", legal.At(0).String())
		} else {
			u.println("bestmove resign")
		}
	}()
}

// sendInfo renders a search.SearchInfo as a USI "info" line.
func (u *USI) sendInfo(info search.SearchInfo) {
	var parts []string
	parts = append(parts, fmt.Sprintf("depth %d", info.Depth))

	switch {
	case info.Score > search.MateScore-100:
		mateIn := (search.MateScore - info.Score + 1) / 2
		parts = append(parts, fmt.Sprintf("score mate %d", mateIn))
	case info.Score < -search.MateScore+100:
		mateIn := -(search.MateScore + info.Score + 1) / 2
		parts = append(parts, fmt.Sprintf("score mate %d", mateIn))
	default:
		parts = append(parts, fmt.Sprintf("score cp %d", info.Score))
	}

	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))
	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}
	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}
	if len(info.PV) > 0 {
		strs := make([]string, len(info.PV))
		for i, m := range info.PV {
			strs[i] = m.String()
		}
		parts = append(parts, "pv "+strings.Join(strs, " "))
	}

	u.printf("info %s\n", strings.Join(parts, " "))
}

// handleStop signals the in-flight search to return and waits for it.
func (u *USI) handleStop() {
	if u.searching {
		u.stopRequested.Store(true)
		u.engine.Stop()
		<-u.searchDone
	}
}

// handlePonderHit re-anchors the in-flight search's time manager: a
// pondering search runs under a Ponder-wrapped control with no deadlines
// of its own (buildTimeControl), so until this fires the clock hasn't
// started. engine.PonderHit reaches into the live TimeManager the running
// Search call owns and starts it counting from now, the same elapsed-time
// accounting a non-ponder search gets from the moment Search is called.
func (u *USI) handlePonderHit() {
	if u.searching {
		u.engine.PonderHit(time.Now(), u.position.SideToMove, u.position.Ply)
	}
}

// handleQuit stops any search, closes an active CPU profile, and exits.
func (u *USI) handleQuit() {
	u.handleStop()
	if u.profileFile != nil {
		pprof.StopCPUProfile()
		u.profileFile.Close()
		fmt.Fprintf(os.Stderr, "info string CPU profile saved\n")
	}
	os.Exit(0)
}

// handleSetOption processes "setoption name <name> value <value>".
func (u *USI) handleSetOption(args []string) {
	var name, value string
	readingName, readingValue := false, false

	for _, arg := range args {
		switch arg {
		case "name":
			readingName, readingValue = true, false
		case "value":
			readingName, readingValue = false, true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += arg
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += arg
			}
		}
	}

	switch strings.ToLower(name) {
	case "usi_hash":
		if mb, err := strconv.Atoi(value); err == nil && mb >= 1 {
			u.ttSizeMB = mb
			u.rebuildEngine()
		}
	case "threads":
		if n, err := strconv.Atoi(value); err == nil && n >= 1 {
			u.numWorkers = n
			u.rebuildEngine()
		}
	case "evalfile":
		u.nnueBigPath = value
		u.tryLoadNNUE()
	case "evalfilesmall":
		u.nnueSmallPath = value
		u.tryLoadNNUE()
	case "cpuprofile":
		if u.profileFile != nil {
			pprof.StopCPUProfile()
			u.profileFile.Close()
			u.profileFile = nil
		}
		if value != "" && value != "stop" {
			f, err := os.Create(value)
			if err != nil {
				fmt.Fprintf(os.Stderr, "info string failed to create profile: %v\n", err)
				return
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				f.Close()
				fmt.Fprintf(os.Stderr, "info string failed to start profile: %v\n", err)
				return
			}
			u.profileFile = f
		}
	}
}

// rebuildEngine replaces the engine with a fresh one sized per the current
// USI_Hash/Threads options: search.Engine has no in-place resize, since its
// worker pool and transposition table are fixed at construction.
func (u *USI) rebuildEngine() {
	u.engine = search.NewEngine(u.ttSizeMB, u.numWorkers)
	u.tryLoadNNUE()
}

func (u *USI) tryLoadNNUE() {
	if u.nnueBigPath != "" && u.nnueSmallPath != "" {
		if err := u.engine.LoadNNUE(u.nnueBigPath, u.nnueSmallPath); err != nil {
			fmt.Fprintf(os.Stderr, "info string failed to load NNUE: %v\n", err)
		}
	}
}

// handlePerft runs a perft node-count test from the current position, a
// debug extension (not part of the USI spec) kept from uci.go's "perft"
// command for move-generator verification from the GUI's console.
func (u *USI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		depth, _ = strconv.Atoi(args[0])
	}

	start := time.Now()
	nodes := shogi.Perft(u.position, depth)
	elapsed := time.Since(start)

	u.printf("Nodes: %d\n", nodes)
	u.printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		nps := float64(nodes) / elapsed.Seconds()
		u.printf("NPS: %.0f\n", nps)
	}
}
