package game

import (
	"fmt"
	"strings"

	"github.com/corentings/chess/v2"

	"whales/internal/logging"
	"whales/internal/selection"
)

// New creates a game for the human playing opts.PlayerColor against opts.BackendModel.
func New(opts Options) (*Game, error) {
	g, err := Parse(opts.PGN)
	if err != nil {
		return nil, err
	}
	return &Game{
		g:            g,
		backendModel: selection.NormalizeModel(opts.BackendModel),
		playerColor:  colorFromCode(string(selection.NormalizeColor(opts.PlayerColor))),
	}, nil
}

// Parse reads a PGN game record. An empty record is a fresh game.
func Parse(pgn string) (*chess.Game, error) {
	if strings.TrimSpace(pgn) == "" {
		return chess.NewGame(), nil
	}
	opt, err := chess.PGN(strings.NewReader(pgn))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPGN, err)
	}
	return chess.NewGame(opt), nil
}

// State reports whose turn it is, or GameOver once the game has an outcome.
func (g *Game) State() TurnState {
	if outcome, _ := g.result(); outcome != chess.NoOutcome {
		return GameOver
	}
	if g.g.Position().Turn() == g.playerColor {
		return HumanTurn
	}
	return ComputerTurn
}

// CanPlayerMove reports whether the human is to move.
func (g *Game) CanPlayerMove() bool { return g.State() == HumanTurn }

// CanComputerMove reports whether the backend model is to move.
func (g *Game) CanComputerMove() bool { return g.State() == ComputerTurn }

// DoesPlayerOwnPiece reports whether a piece code such as "wP" belongs to the human.
func (g *Game) DoesPlayerOwnPiece(piece string) bool {
	return piece != "" && piece[:1] == colorCode(g.playerColor)
}

// AllowedMoves returns the legal moves starting on square for the side to move.
func (g *Game) AllowedMoves(square string) []Move {
	square = strings.ToLower(strings.TrimSpace(square))
	var out []Move
	for _, m := range g.g.ValidMoves() {
		if m.S1().String() != square {
			continue
		}
		mv := Move{From: m.S1().String(), To: m.S2().String()}
		if !containsMove(out, mv) {
			out = append(out, mv)
		}
	}
	return out
}

// TryMove plays from→to for the human. Pawns reaching the last rank become queens.
// It reports false, leaving the game unchanged, for illegal moves or when it is not
// the human's turn.
func (g *Game) TryMove(from, to string) bool {
	if !g.CanPlayerMove() {
		return false
	}
	uci := strings.ToLower(strings.TrimSpace(from) + strings.TrimSpace(to))
	uci = g.appendPromotionIfPawn(uci)

	if err := g.g.PushNotationMove(uci, chess.UCINotation{}, nil); err != nil {
		logging.Debugf("rejected move %s: %v", uci, err)
		return false
	}
	return true
}

// FEN returns the current position.
func (g *Game) FEN() string { return g.g.FEN() }

// PGN returns the full game record.
func (g *Game) PGN() string { return g.g.String() }

// SetPGN replaces the game record. The game is unchanged if pgn does not parse.
func (g *Game) SetPGN(pgn string) error {
	ng, err := Parse(pgn)
	if err != nil {
		return err
	}
	g.g = ng
	return nil
}

// BackendModel returns the opponent model id.
func (g *Game) BackendModel() string { return g.backendModel }

// PlayerColor returns the human's color code.
func (g *Game) PlayerColor() string { return colorCode(g.playerColor) }

// Outcome returns the result string, "*" while the game is in progress.
func (g *Game) Outcome() string {
	outcome, _ := g.result()
	return outcome.String()
}

// result is the game's outcome and method. A record whose final position is mate
// or stalemate is over even when its result token still reads "*".
func (g *Game) result() (chess.Outcome, chess.Method) {
	outcome, method := g.g.Outcome(), g.g.Method()
	pos := g.g.Position()
	switch pos.Status() {
	case chess.Checkmate:
		if outcome == chess.NoOutcome {
			outcome = chess.WhiteWon
			if pos.Turn() == chess.White {
				outcome = chess.BlackWon
			}
		}
		if method == chess.NoMethod {
			method = chess.Checkmate
		}
	case chess.Stalemate:
		if outcome == chess.NoOutcome {
			outcome = chess.Draw
		}
		if method == chess.NoMethod {
			method = chess.Stalemate
		}
	}
	return outcome, method
}

// MovesUCI returns the list of moves in UCI notation
func (g *Game) MovesUCI() []string {
	ms := g.g.Moves()
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.String())
	}
	return out
}

// Status describes the game for the status line.
func (g *Game) Status() string {
	if outcome, method := g.result(); outcome != chess.NoOutcome {
		var result string
		switch outcome {
		case chess.WhiteWon:
			result = "White wins"
		case chess.BlackWon:
			result = "Black wins"
		default:
			result = "Draw"
		}
		if method != chess.NoMethod {
			return fmt.Sprintf("Game over, %s by %s", result, method.String())
		}
		return "Game over, " + result
	}

	side := colorName(g.g.Position().Turn())
	status := side + " to move"
	if ms := g.g.Moves(); len(ms) > 0 && ms[len(ms)-1].HasTag(chess.Check) {
		status += ", " + side + " is in check"
	}
	return status
}

// appendPromotionIfPawn adds a queen promotion to a 4-character pawn move onto the
// last rank.
func (g *Game) appendPromotionIfPawn(uci string) string {
	if !isPromotionToLastRank(uci) {
		return uci
	}
	for sq, piece := range g.g.Position().Board().SquareMap() {
		if sq.String() == uci[:2] {
			if piece.Type() == chess.Pawn {
				return uci + "q"
			}
			break
		}
	}
	return uci
}

// isPromotionToLastRank checks if a 4-character UCI move ends on the first or last rank
func isPromotionToLastRank(uci string) bool {
	if len(uci) != 4 {
		return false
	}
	return uci[3] == '1' || uci[3] == '8'
}

func containsMove(ms []Move, m Move) bool {
	for _, x := range ms {
		if x == m {
			return true
		}
	}
	return false
}

func colorFromCode(code string) chess.Color {
	if code == string(selection.Black) {
		return chess.Black
	}
	return chess.White
}

func colorCode(c chess.Color) string {
	if c == chess.Black {
		return string(selection.Black)
	}
	return string(selection.White)
}

func colorName(c chess.Color) string {
	if c == chess.Black {
		return "Black"
	}
	return "White"
}
