// Package play mediates between the board view and the game model on the play page,
// and asks the move service for the computer's replies.
package play

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"whales/internal/eventloop"
	"whales/internal/game"
	"whales/internal/logging"
	"whales/internal/selection"
	"whales/internal/session"
)

// Model is the rules and state side of the page.
type Model interface {
	CanPlayerMove() bool
	CanComputerMove() bool
	DoesPlayerOwnPiece(piece string) bool
	AllowedMoves(square string) []game.Move
	TryMove(from, to string) bool
	FEN() string
	Status() string
	PGN() string
	SetPGN(pgn string) error
	BackendModel() string
}

// View renders the board and turns gestures into Handlers calls.
type View interface {
	SetBoardFEN(fen string)
	SetStatusText(text string)
	HighlightSquare(square string)
	UnhighlightAllSquares()
}

// Handlers are the callbacks a View invokes.
type Handlers struct {
	HoverEnter func(square string)
	HoverExit  func(square string)
	DragStart  func(piece string) bool
	DragFinish func(from, to string) bool
	MoveFinish func()
}

// ViewConfig is what a View is built from.
type ViewConfig struct {
	Orientation string
	FEN         string
	Handlers    Handlers
}

// SessionStorage is the per-session key/value store.
type SessionStorage interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

// MoveService answers get_move.
type MoveService interface {
	GetMove(ctx context.Context, model, pgn string) (string, error)
}

// Deps wires a Controller.
type Deps struct {
	Loop     *eventloop.Loop
	Storage  SessionStorage
	Moves    MoveService
	NewView  func(ViewConfig) View
	NewModel func(game.Options) (Model, error) // defaults to game.New
	OnSync   func(Model)                       // called after every view sync
}

// Controller owns one play page. All methods run on its loop.
type Controller struct {
	deps     Deps
	model    Model
	view     View
	inFlight bool
}

// New reads the session selection, builds the model and view, and syncs the view.
func New(ctx context.Context, deps Deps) (*Controller, error) {
	if deps.NewModel == nil {
		deps.NewModel = func(opts game.Options) (Model, error) { return game.New(opts) }
	}

	sel := selection.Effective(selection.Selection{
		BackendModel: readKey(ctx, deps.Storage, session.KeyModelName),
		PlayerColor:  readKey(ctx, deps.Storage, session.KeyUserColor),
	})

	model, err := deps.NewModel(game.Options{BackendModel: sel.BackendModel, PlayerColor: sel.PlayerColor})
	if err != nil {
		return nil, fmt.Errorf("new model: %w", err)
	}

	c := &Controller{deps: deps, model: model}
	c.view = deps.NewView(ViewConfig{
		Orientation: sel.PlayerColor,
		FEN:         model.FEN(),
		Handlers:    c.Handlers(),
	})
	c.updateViewFromMove()
	c.requestComputerMove()
	return c, nil
}

func readKey(ctx context.Context, s SessionStorage, key string) string {
	if s == nil {
		return ""
	}
	v, ok, err := s.Get(ctx, key)
	if err != nil {
		logging.L().Warn("session storage read failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	return v
}

// Model returns the controller's model.
func (c *Controller) Model() Model { return c.model }

// Handlers returns the five view callbacks bound to c.
func (c *Controller) Handlers() Handlers {
	return Handlers{
		HoverEnter: c.HoverEnter,
		HoverExit:  c.HoverExit,
		DragStart:  c.DragStart,
		DragFinish: c.DragFinish,
		MoveFinish: c.MoveFinish,
	}
}

// HoverEnter highlights square and its destinations when the human can move it.
func (c *Controller) HoverEnter(square string) {
	if !c.model.CanPlayerMove() {
		return
	}
	moves := c.model.AllowedMoves(square)
	if len(moves) == 0 {
		return
	}
	c.view.HighlightSquare(square)
	for _, m := range moves {
		c.view.HighlightSquare(m.To)
	}
}

// HoverExit clears all highlights.
func (c *Controller) HoverExit(string) {
	c.view.UnhighlightAllSquares()
}

// DragStart reports whether the human may pick up piece.
func (c *Controller) DragStart(piece string) bool {
	return c.model.CanPlayerMove() && c.model.DoesPlayerOwnPiece(piece)
}

// DragFinish clears highlights and tries the move. The view snaps the piece back
// when it returns false.
func (c *Controller) DragFinish(from, to string) bool {
	c.view.UnhighlightAllSquares()
	return c.model.TryMove(from, to)
}

// MoveFinish syncs the view after a committed move and, on the computer's turn,
// requests its reply.
func (c *Controller) MoveFinish() {
	c.updateViewFromMove()
	c.requestComputerMove()
}

// Pending reports whether a get_move request is outstanding.
func (c *Controller) Pending() bool { return c.inFlight }

func (c *Controller) updateViewFromMove() {
	c.view.SetBoardFEN(c.model.FEN())
	c.view.SetStatusText(c.model.Status())
	if c.deps.OnSync != nil {
		c.deps.OnSync(c.model)
	}
}

func (c *Controller) requestComputerMove() {
	if !c.model.CanComputerMove() || c.inFlight {
		return
	}
	c.inFlight = true
	backendModel, pgn := c.model.BackendModel(), c.model.PGN()
	logging.Debugf("get_move model=%s pgn=%q", backendModel, pgn)

	eventloop.Spawn(c.deps.Loop, func(ctx context.Context) (string, error) {
		return c.deps.Moves.GetMove(ctx, backendModel, pgn)
	}, c.computerMoved)
}

func (c *Controller) computerMoved(pgn string, err error) {
	c.inFlight = false
	if err != nil {
		logging.L().Warn("get_move failed", zap.String("model", c.model.BackendModel()), zap.Error(err))
		c.view.SetStatusText("Could not get the computer's move: " + err.Error())
		return
	}
	if err := c.model.SetPGN(pgn); err != nil {
		logging.L().Warn("get_move returned an unusable game", zap.Error(err))
		c.view.SetStatusText("The computer's move could not be read")
		return
	}
	c.updateViewFromMove()
}
