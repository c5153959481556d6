package shogi

import (
	"fmt"
	"strconv"
	"strings"
)

// SFEN ("Shogi Forsyth-Edwards Notation") is shogi's analogue of chess
// FEN: board rows top to bottom separated by '/', side to move, hand
// contents, and a move number. Hand-rolled parser/encoder, the same scale
// and technique as internal/board/fen.go's FEN parser — SFEN is a small
// closed grammar, not something an ecosystem library is warranted for.

// StartSFEN is the standard shogi starting position.
const StartSFEN = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

var sfenPieceLetter = map[PieceType]byte{
	Pawn: 'p', Lance: 'l', Knight: 'n', Silver: 's', Gold: 'g',
	Bishop: 'b', Rook: 'r', King: 'k',
	ProPawn: 'p', ProLance: 'l', ProKnight: 'n', ProSilver: 's',
	Horse: 'b', Dragon: 'r',
}

var sfenLetterPiece = map[byte]PieceType{
	'p': Pawn, 'l': Lance, 'n': Knight, 's': Silver, 'g': Gold,
	'b': Bishop, 'r': Rook, 'k': King,
}

// pieceSFEN renders one board piece's SFEN token, including the leading
// '+' for promoted pieces and uppercasing for Black.
func pieceSFEN(p Piece) string {
	letter := sfenPieceLetter[p.Type()]
	if p.Color() == Black {
		letter -= 'a' - 'A'
	}
	s := string(letter)
	if p.Type().IsPromoted() {
		s = "+" + s
	}
	return s
}

// ParseSFEN parses a full SFEN record into a Position.
func ParseSFEN(sfen string) (*Position, error) {
	fields := strings.Fields(sfen)
	if len(fields) < 3 {
		return nil, fmt.Errorf("shogi: malformed sfen %q: need board, side, hands", sfen)
	}
	pos := newEmptyPosition()

	rows := strings.Split(fields[0], "/")
	if len(rows) != 9 {
		return nil, fmt.Errorf("shogi: sfen board has %d rows, want 9", len(rows))
	}
	for rank, row := range rows {
		file := 0
		promoted := false
		for i := 0; i < len(row); i++ {
			ch := row[i]
			switch {
			case ch == '+':
				promoted = true
			case ch >= '1' && ch <= '9':
				n, _ := strconv.Atoi(string(ch))
				file += n
				promoted = false
			default:
				if file >= 9 {
					return nil, fmt.Errorf("shogi: sfen rank %d overflows files", rank)
				}
				lower := ch | 0x20
				pt, ok := sfenLetterPiece[lower]
				if !ok {
					return nil, fmt.Errorf("shogi: unknown sfen piece %q", ch)
				}
				if promoted {
					pt = pt.Promote()
				}
				color := White
				if ch >= 'A' && ch <= 'Z' {
					color = Black
				}
				pos.Board.put(NewSquare(file, rank), NewPiece(pt, color))
				file++
				promoted = false
			}
		}
		if file != 9 {
			return nil, fmt.Errorf("shogi: sfen rank %d has %d files, want 9", rank, file)
		}
	}

	switch fields[1] {
	case "b":
		pos.SideToMove = Black
	case "w":
		pos.SideToMove = White
	default:
		return nil, fmt.Errorf("shogi: unknown side-to-move %q", fields[1])
	}

	if fields[2] != "-" {
		count := 1
		for i := 0; i < len(fields[2]); i++ {
			ch := fields[2][i]
			if ch >= '1' && ch <= '9' {
				j := i
				for j < len(fields[2]) && fields[2][j] >= '0' && fields[2][j] <= '9' {
					j++
				}
				n, _ := strconv.Atoi(fields[2][i:j])
				count = n
				i = j - 1
				continue
			}
			lower := ch | 0x20
			pt, ok := sfenLetterPiece[lower]
			if !ok {
				return nil, fmt.Errorf("shogi: unknown sfen hand piece %q", ch)
			}
			color := White
			if ch >= 'A' && ch <= 'Z' {
				color = Black
			}
			for k := 0; k < count; k++ {
				pos.Hands[color] = pos.Hands[color].Add(pt)
			}
			count = 1
		}
	}

	pos.Hash = pos.computeHash()
	pos.history = append(pos.history, pos.Hash)
	return pos, nil
}

// String renders pos as a full SFEN record (move count always 1, since
// move numbers aren't tracked independently of ply parity here).
func (pos *Position) String() string {
	var sb strings.Builder
	for rank := 0; rank < 9; rank++ {
		empty := 0
		for file := 0; file < 9; file++ {
			p := pos.Board.PieceAt(NewSquare(file, rank))
			if p == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(pieceSFEN(p))
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank != 8 {
			sb.WriteByte('/')
		}
	}
	sb.WriteByte(' ')
	sb.WriteString(pos.SideToMove.String())
	sb.WriteByte(' ')

	handStr := handsSFEN(pos.Hands)
	if handStr == "" {
		sb.WriteByte('-')
	} else {
		sb.WriteString(handStr)
	}
	sb.WriteString(" 1")
	return sb.String()
}

func handsSFEN(hands [2]Hand) string {
	var sb strings.Builder
	for _, c := range []Color{Black, White} {
		for _, pt := range handOrder {
			n := hands[c].Count(pt)
			if n == 0 {
				continue
			}
			if n > 1 {
				sb.WriteString(strconv.Itoa(n))
			}
			letter := sfenPieceLetter[pt]
			if c == Black {
				letter -= 'a' - 'A'
			}
			sb.WriteByte(letter)
		}
	}
	return sb.String()
}
