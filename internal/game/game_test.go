package game

import (
	"errors"
	"sort"
	"testing"

	"github.com/corentings/chess/v2"
	"github.com/google/go-cmp/cmp"
)

func newTestGame(t *testing.T, color string) *Game {
	t.Helper()
	g, err := New(Options{PlayerColor: color})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func gameFromFEN(t *testing.T, fen string, player chess.Color) *Game {
	t.Helper()
	opt, err := chess.FEN(fen)
	if err != nil {
		t.Fatalf("FEN: %v", err)
	}
	return &Game{g: chess.NewGame(opt), backendModel: "random", playerColor: player}
}

func TestNewDefaults(t *testing.T) {
	g := newTestGame(t, "purple")
	if g.PlayerColor() != "w" {
		t.Fatalf("expected default color w, got %s", g.PlayerColor())
	}
	if g.BackendModel() != "random" {
		t.Fatalf("expected default model random, got %s", g.BackendModel())
	}
	if g.State() != HumanTurn {
		t.Fatalf("expected human to move first as white, got %v", g.State())
	}
}

func TestBlackStartsOnComputerTurn(t *testing.T) {
	g := newTestGame(t, "b")
	if !g.CanComputerMove() || g.CanPlayerMove() {
		t.Fatalf("expected computer turn, got %v", g.State())
	}
}

func TestTryMoveValid(t *testing.T) {
	g := newTestGame(t, "w")
	if !g.TryMove("e2", "e4") {
		t.Fatalf("expected move to be valid")
	}
	if g.State() != ComputerTurn {
		t.Fatalf("expected computer turn after move, got %v", g.State())
	}
	if diff := cmp.Diff([]string{"e2e4"}, g.MovesUCI()); diff != "" {
		t.Fatalf("moves mismatch (-want +got):\n%s", diff)
	}
}

func TestTryMoveInvalid(t *testing.T) {
	g := newTestGame(t, "w")
	before := g.FEN()
	if g.TryMove("e2", "e5") {
		t.Fatalf("expected illegal move to be rejected")
	}
	if g.FEN() != before {
		t.Fatalf("position changed after rejected move")
	}
	if g.TryMove("a1", "h8") {
		t.Fatalf("rook jumped across the board")
	}
	if g.FEN() != before || g.PGN() != newTestGame(t, "w").PGN() {
		t.Fatalf("game record changed after rejected moves: %q", g.PGN())
	}
	if g.State() != HumanTurn {
		t.Fatalf("turn passed after rejected moves: %v", g.State())
	}
}

func TestTryMoveRefusedOnComputerTurn(t *testing.T) {
	g := newTestGame(t, "b")
	if g.TryMove("e2", "e4") {
		t.Fatalf("human must not move for the computer")
	}
}

func TestTryMovePromotesToQueen(t *testing.T) {
	g := gameFromFEN(t, "8/P6k/8/8/8/8/8/K7 w - - 0 1", chess.White)
	if !g.TryMove("a7", "a8") {
		t.Fatalf("expected promotion move to succeed")
	}
	moves := g.MovesUCI()
	if got := moves[len(moves)-1]; got != "a7a8q" {
		t.Fatalf("expected a7a8q, got %s", got)
	}
}

func TestIsPromotionToLastRank(t *testing.T) {
	cases := map[string]bool{"a7a8": true, "a2a1": true, "d1d8": true, "e2e4": false, "a7a8q": false, "": false}
	for in, want := range cases {
		if got := isPromotionToLastRank(in); got != want {
			t.Fatalf("isPromotionToLastRank(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNoPromotionForRook(t *testing.T) {
	g := gameFromFEN(t, "R7/7k/8/8/8/8/8/K7 w - - 0 1", chess.White)
	if got := g.appendPromotionIfPawn("a8a1"); got != "a8a1" {
		t.Fatalf("rook move modified: %s", got)
	}
}

func TestAllowedMoves(t *testing.T) {
	g := newTestGame(t, "w")

	got := g.AllowedMoves("g1")
	sort.Slice(got, func(i, j int) bool { return got[i].To < got[j].To })
	want := []Move{{From: "g1", To: "f3"}, {From: "g1", To: "h3"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("knight moves mismatch (-want +got):\n%s", diff)
	}

	for _, sq := range []string{"e4", "e7", "e1", "z9"} {
		if ms := g.AllowedMoves(sq); len(ms) != 0 {
			t.Fatalf("expected no moves from %s, got %v", sq, ms)
		}
	}
}

func TestAllowedMovesCollapsesPromotions(t *testing.T) {
	g := gameFromFEN(t, "8/P6k/8/8/8/8/8/K7 w - - 0 1", chess.White)
	got := g.AllowedMoves("a7")
	if diff := cmp.Diff([]Move{{From: "a7", To: "a8"}}, got); diff != "" {
		t.Fatalf("promotion moves mismatch (-want +got):\n%s", diff)
	}
}

func TestDoesPlayerOwnPiece(t *testing.T) {
	w := newTestGame(t, "w")
	if !w.DoesPlayerOwnPiece("wP") || w.DoesPlayerOwnPiece("bK") || w.DoesPlayerOwnPiece("") {
		t.Fatalf("white ownership wrong")
	}
	b := newTestGame(t, "b")
	if !b.DoesPlayerOwnPiece("bQ") || b.DoesPlayerOwnPiece("wQ") {
		t.Fatalf("black ownership wrong")
	}
}

func TestSetPGN(t *testing.T) {
	g := newTestGame(t, "w")
	if err := g.SetPGN("1. e4 e5 *"); err != nil {
		t.Fatalf("SetPGN: %v", err)
	}
	if diff := cmp.Diff([]string{"e2e4", "e7e5"}, g.MovesUCI()); diff != "" {
		t.Fatalf("moves mismatch (-want +got):\n%s", diff)
	}
	if g.State() != HumanTurn {
		t.Fatalf("expected human turn, got %v", g.State())
	}
}

func TestSetPGNInvalidKeepsGame(t *testing.T) {
	g := newTestGame(t, "w")
	g.TryMove("d2", "d4")
	before := g.PGN()
	err := g.SetPGN("1. e4 Ke5 Qxz9")
	if !errors.Is(err, ErrInvalidPGN) {
		t.Fatalf("expected ErrInvalidPGN, got %v", err)
	}
	if g.PGN() != before {
		t.Fatalf("game record changed after invalid PGN")
	}
}

func TestPGNRoundTrip(t *testing.T) {
	g := newTestGame(t, "w")
	g.TryMove("e2", "e4")
	other := newTestGame(t, "w")
	if err := other.SetPGN(g.PGN()); err != nil {
		t.Fatalf("SetPGN(PGN()): %v", err)
	}
	if other.FEN() != g.FEN() {
		t.Fatalf("FEN mismatch: %s vs %s", other.FEN(), g.FEN())
	}
}

func TestGameOverAndStatus(t *testing.T) {
	g := newTestGame(t, "w")
	if got := g.Status(); got != "White to move" {
		t.Fatalf("status = %q", got)
	}
	if err := g.SetPGN("1. f3 e5 2. g4 Qh4# 0-1"); err != nil {
		t.Fatalf("SetPGN: %v", err)
	}
	if g.State() != GameOver {
		t.Fatalf("expected game over, got %v", g.State())
	}
	if g.CanPlayerMove() || g.CanComputerMove() {
		t.Fatalf("no side may move once the game is over")
	}
	if got := g.Status(); got != "Game over, Black wins by Checkmate" {
		t.Fatalf("status = %q", got)
	}
	if g.Outcome() != "0-1" {
		t.Fatalf("outcome = %q", g.Outcome())
	}
}

func TestMateEndsGameWithoutResultToken(t *testing.T) {
	g := newTestGame(t, "w")
	if err := g.SetPGN("1. f3 e5 2. g4 Qh4# *"); err != nil {
		t.Fatalf("SetPGN: %v", err)
	}
	if g.State() != GameOver {
		t.Fatalf("expected game over, got %v", g.State())
	}
	if g.TryMove("a2", "a3") {
		t.Fatalf("move accepted after mate")
	}
	if got := g.Status(); got != "Game over, Black wins by Checkmate" {
		t.Fatalf("status = %q", got)
	}
	if g.Outcome() != "0-1" {
		t.Fatalf("outcome = %q", g.Outcome())
	}
}

func TestStalemateIsDraw(t *testing.T) {
	g := gameFromFEN(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", chess.Black)
	if g.State() != GameOver {
		t.Fatalf("expected game over, got %v", g.State())
	}
	if got := g.Status(); got != "Game over, Draw by Stalemate" {
		t.Fatalf("status = %q", got)
	}
	if g.Outcome() != "1/2-1/2" {
		t.Fatalf("outcome = %q", g.Outcome())
	}
}

func TestStatusReportsCheck(t *testing.T) {
	g := newTestGame(t, "b")
	if err := g.SetPGN("1. e4 f5 2. Qh5+ *"); err != nil {
		t.Fatalf("SetPGN: %v", err)
	}
	if got := g.Status(); got != "Black to move, Black is in check" {
		t.Fatalf("status = %q", got)
	}
}
