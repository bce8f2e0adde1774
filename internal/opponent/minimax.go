package opponent

import (
	"context"
	"math"
	"math/rand"

	"github.com/corentings/chess/v2"
)

const mateScore = 100000

var pieceValues = map[chess.PieceType]int{
	chess.Pawn:   100,
	chess.Knight: 300,
	chess.Bishop: 300,
	chess.Rook:   500,
	chess.Queen:  900,
}

// minimaxMove searches plies moves per side with alpha-beta pruning and a material
// evaluation.
func minimaxMove(plies int) MoveFunc {
	return func(ctx context.Context, g *chess.Game, _ *rand.Rand) (*chess.Move, error) {
		return bestMove(ctx, g.Position(), plies*2)
	}
}

func bestMove(ctx context.Context, pos *chess.Position, depth int) (*chess.Move, error) {
	moves := pos.ValidMoves()
	if len(moves) == 0 {
		return nil, ErrGameOver
	}
	side := pos.Turn()

	var best *chess.Move
	bestScore := math.MinInt
	alpha, beta := math.MinInt, math.MaxInt
	for i := range moves {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		score, err := search(ctx, pos.Update(&moves[i]), depth-1, alpha, beta, false, side)
		if err != nil {
			return nil, err
		}
		if best == nil || score > bestScore {
			best, bestScore = &moves[i], score
		}
		if bestScore > alpha {
			alpha = bestScore
		}
	}
	return best, nil
}

// search returns the value of pos for side. maximizing is true when side is to move.
func search(ctx context.Context, pos *chess.Position, depth, alpha, beta int, maximizing bool, side chess.Color) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	moves := pos.ValidMoves()
	if len(moves) == 0 {
		if pos.Status() == chess.Checkmate {
			// the side to move is mated; prefer quicker mates
			if maximizing {
				return -mateScore - depth, nil
			}
			return mateScore + depth, nil
		}
		return 0, nil
	}
	if depth <= 0 {
		return evaluate(pos, side), nil
	}

	if maximizing {
		v := math.MinInt
		for i := range moves {
			s, err := search(ctx, pos.Update(&moves[i]), depth-1, alpha, beta, false, side)
			if err != nil {
				return 0, err
			}
			if s > v {
				v = s
			}
			if v >= beta {
				return v, nil
			}
			if v > alpha {
				alpha = v
			}
		}
		return v, nil
	}

	v := math.MaxInt
	for i := range moves {
		s, err := search(ctx, pos.Update(&moves[i]), depth-1, alpha, beta, true, side)
		if err != nil {
			return 0, err
		}
		if s < v {
			v = s
		}
		if v <= alpha {
			return v, nil
		}
		if v < beta {
			beta = v
		}
	}
	return v, nil
}

// evaluate is the material balance from side's point of view.
func evaluate(pos *chess.Position, side chess.Color) int {
	score := 0
	for _, piece := range pos.Board().SquareMap() {
		v := pieceValues[piece.Type()]
		if piece.Color() == side {
			score += v
		} else {
			score -= v
		}
	}
	return score
}
