package hub

import (
	"whales/internal/api"
	"whales/internal/play"
	"whales/internal/selection"
)

// formView is the new-game page's controls. Control values mirror what the
// browser reports through change events.
type formView struct {
	page   *Page
	color  string
	model  string
	loaded int
}

func newFormView(p *Page) *formView {
	f := &formView{page: p, color: string(selection.DefaultColor)}
	p.broadcast(Command{Kind: CmdColor, Value: f.color})
	return f
}

func (f *formView) SetColor(color string) {
	f.color = color
	f.page.broadcast(Command{Kind: CmdColor, Value: color})
}

func (f *formView) Color() string { return f.color }

// AddModelOption appends an option. Like a select element, the first option
// becomes the selected one.
func (f *formView) AddModelOption(m api.ModelInfo) {
	f.loaded++
	f.page.broadcast(Command{Kind: CmdOption, Model: &m})
	if f.loaded == 1 {
		f.SelectModel(m.InternalName)
	}
}

func (f *formView) SelectModel(name string) {
	f.model = name
	f.page.broadcast(Command{Kind: CmdSelect, Value: name})
}

func (f *formView) Model() string { return f.model }

func (f *formView) Navigate(url string) {
	f.page.broadcast(Command{Kind: CmdNavigate, Value: url})
}

func (f *formView) change(control, value string) bool {
	switch control {
	case "color":
		f.color = value
	case "model":
		f.model = value
	default:
		return false
	}
	return true
}

// boardView is the play page's board and status line.
type boardView struct {
	page     *Page
	handlers play.Handlers
}

func newBoardView(p *Page, cfg play.ViewConfig) *boardView {
	p.broadcast(Command{Kind: CmdOrientation, Value: cfg.Orientation})
	p.broadcast(Command{Kind: CmdFEN, Value: cfg.FEN})
	return &boardView{page: p, handlers: cfg.Handlers}
}

func (b *boardView) SetBoardFEN(fen string) {
	b.page.broadcast(Command{Kind: CmdFEN, Value: fen})
}

func (b *boardView) SetStatusText(text string) {
	b.page.broadcast(Command{Kind: CmdStatus, Value: text})
}

func (b *boardView) HighlightSquare(square string) {
	b.page.broadcast(Command{Kind: CmdHighlight, Value: square})
}

func (b *boardView) UnhighlightAllSquares() {
	b.page.broadcast(Command{Kind: CmdUnhighlight})
}

// dispatch routes a gesture to the controller's handlers.
func (b *boardView) dispatch(ev Event) (Result, error) {
	switch ev.Kind {
	case EvHoverEnter:
		b.handlers.HoverEnter(ev.Square)
	case EvHoverExit:
		b.handlers.HoverExit(ev.Square)
	case EvDragStart:
		return Result{OK: b.handlers.DragStart(ev.Piece)}, nil
	case EvDragFinish:
		return Result{OK: b.handlers.DragFinish(ev.From, ev.To)}, nil
	case EvMoveFinish:
		b.handlers.MoveFinish()
	default:
		return Result{}, ErrUnknownEvent
	}
	return Result{OK: true}, nil
}
