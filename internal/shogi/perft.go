package shogi

// Perft counts leaf nodes of the legal move tree to depth, the standard
// move-generator correctness check (spec §8's "perft against known node
// counts" testable property). Not used by search; exists for tests and
// for the usi adapter's "perft" debug command.
func Perft(pos *Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := GenerateLegalMoves(pos)
	if depth == 1 {
		return uint64(moves.Len())
	}
	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		m := moves.At(i)
		undo := pos.DoMove(m)
		nodes += Perft(pos, depth-1)
		pos.UndoMove(m, undo)
	}
	return nodes
}
