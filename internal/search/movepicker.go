package search

import (
	"sort"

	"github.com/shogicore/engine/internal/shogi"
)

// pickerStage enumerates the staged move-generation sequence SPEC_FULL.md
// section 4.6 specifies: TT move, then good captures, then the two killer
// slots, then the counter-move, then quiet moves ordered by history, then
// the captures SEE judged bad, then end. ordering.go's teacher-side
// MoveOrderer instead scores every move up front and lazily partial-sorts
// the whole list (PickMove/SortMoves) rather than generating in stages;
// this picker restructures that into the explicit staged generator the
// spec calls for, while still delegating the actual scoring formulas to
// MoveOrderer.
type pickerStage int

const (
	stageTT pickerStage = iota
	stageGoodCaptures
	stageKiller1
	stageKiller2
	stageCounter
	stageQuiets
	stageBadCaptures
	stageEnd
)

type scoredMove struct {
	m     shogi.Move
	score int
}

// MovePicker yields legal moves for one search node in the stage order
// above, guaranteeing each move is yielded at most once. It is built
// fresh per node from the position's already-fully-legal move list (see
// shogi.GenerateLegalMoves's doc comment: unlike the teacher's chess
// board, shogi.Position.DoMove has no legality-validity flag because
// GenerateLegalMoves already filters pseudo-legal moves down to legal
// ones internally), so this picker never needs the teacher's
// "re-validate before yielding" pass beyond simple equality checks against
// moves already consumed.
type MovePicker struct {
	orderer    *MoveOrderer
	ply        int
	ttMove     shogi.Move
	prevMove   shogi.Move
	prevPiece  shogi.Piece
	skipQuiets bool

	stage pickerStage

	good  []scoredMove
	bad   []scoredMove
	quiet []scoredMove
	idx   int

	killer1, killer2 shogi.Move
	counter          shogi.Move
}

// NewMovePicker partitions pos's legal moves into captures and quiets and
// prepares the staged iteration. ttMove may be shogi.NoMove. prevMove and
// prevPiece describe the move that led to this node, used to look up the
// counter-move table; pass shogi.NoMove/shogi.NoPiece at the root.
func NewMovePicker(pos *shogi.Position, orderer *MoveOrderer, ply int, ttMove, prevMove shogi.Move, prevPiece shogi.Piece) *MovePicker {
	p := &MovePicker{
		orderer:   orderer,
		ply:       ply,
		ttMove:    ttMove,
		prevMove:  prevMove,
		prevPiece: prevPiece,
	}
	p.killer1, p.killer2 = orderer.Killers(ply)
	p.counter = orderer.CounterMove(prevMove, prevPiece)

	legal := shogi.GenerateLegalMoves(pos)
	ttFound := false
	killer1Found, killer2Found, counterFound := false, false, false
	for _, m := range legal.Slice() {
		if m == ttMove {
			ttFound = true
			continue
		}
		if captured := capturedType(pos, m); captured != shogi.NoPieceType {
			attacker := pos.Board.PieceAt(m.From())
			sm := scoredMove{m: m, score: orderer.scoreCapture(attacker, m, captured)}
			if pos.SEEGreaterOrEqual(m, 0) {
				p.good = append(p.good, sm)
			} else {
				p.bad = append(p.bad, sm)
			}
			continue
		}
		if m == p.killer1 || m == p.killer2 || m == p.counter {
			killer1Found = killer1Found || m == p.killer1
			killer2Found = killer2Found || m == p.killer2
			counterFound = counterFound || m == p.counter
			continue
		}
		p.quiet = append(p.quiet, scoredMove{m: m, score: orderer.scoreQuiet(ply, prevMove, prevPiece, m)})
	}
	if !ttFound {
		p.ttMove = shogi.NoMove
	}
	// Keep only killers/counter that are legal quiet moves here, each once.
	if !killer1Found {
		p.killer1 = shogi.NoMove
	}
	if !killer2Found {
		p.killer2 = shogi.NoMove
	}
	if !counterFound || p.counter == p.killer1 || p.counter == p.killer2 {
		p.counter = shogi.NoMove
	}
	sortDesc(p.good)
	sortDesc(p.bad)
	sortDesc(p.quiet)
	return p
}

func sortDesc(ms []scoredMove) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].score > ms[j].score })
}

// capturedType returns the type of piece standing on m's destination, or
// shogi.NoPieceType if m is a drop or moves to an empty square. Drops are
// never captures in shogi: a dropped piece always lands on an empty
// square.
func capturedType(pos *shogi.Position, m shogi.Move) shogi.PieceType {
	if m.IsDrop() {
		return shogi.NoPieceType
	}
	victim := pos.Board.PieceAt(m.To())
	if victim == shogi.NoPiece {
		return shogi.NoPieceType
	}
	return victim.Type()
}

// SkipQuiets tells the picker to skip the quiet-move stage entirely, used
// by futility/late-move pruning once the worker has decided no further
// quiet move at this node can improve alpha.
func (p *MovePicker) SkipQuiets() { p.skipQuiets = true }

// Next returns the next move in stage order, or ok=false once every move
// has been yielded exactly once.
func (p *MovePicker) Next() (shogi.Move, bool) {
	for {
		switch p.stage {
		case stageTT:
			p.stage = stageGoodCaptures
			if p.ttMove != shogi.NoMove {
				return p.ttMove, true
			}
		case stageGoodCaptures:
			if p.idx < len(p.good) {
				m := p.good[p.idx].m
				p.idx++
				return m, true
			}
			p.idx = 0
			p.stage = stageKiller1
		case stageKiller1:
			p.stage = stageKiller2
			if p.killer1 != shogi.NoMove && p.killer1 != p.ttMove {
				return p.killer1, true
			}
		case stageKiller2:
			p.stage = stageCounter
			if p.killer2 != shogi.NoMove && p.killer2 != p.ttMove {
				return p.killer2, true
			}
		case stageCounter:
			p.stage = stageQuiets
			if p.counter != shogi.NoMove && p.counter != p.ttMove {
				return p.counter, true
			}
		case stageQuiets:
			if p.skipQuiets {
				p.idx = 0
				p.stage = stageBadCaptures
				continue
			}
			if p.idx < len(p.quiet) {
				m := p.quiet[p.idx].m
				p.idx++
				return m, true
			}
			p.idx = 0
			p.stage = stageBadCaptures
		case stageBadCaptures:
			if p.idx < len(p.bad) {
				m := p.bad[p.idx].m
				p.idx++
				return m, true
			}
			p.stage = stageEnd
		case stageEnd:
			return shogi.NoMove, false
		}
	}
}
