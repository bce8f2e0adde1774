package hub

import (
	"context"
	"errors"
	"sync"
	"time"

	"whales/internal/api"
	"whales/internal/eventloop"
	"whales/internal/newgame"
	"whales/internal/play"
	"whales/internal/session"
	"whales/internal/storage"
)

// Kind names the page a session drives.
type Kind string

const (
	KindNewGame Kind = "newgame"
	KindPlay    Kind = "play"
)

// Command kinds pushed to the browser.
const (
	CmdFEN         = "fen"
	CmdStatus      = "status"
	CmdOrientation = "orientation"
	CmdHighlight   = "highlight"
	CmdUnhighlight = "unhighlight"
	CmdColor       = "color"
	CmdOption      = "option"
	CmdSelect      = "select"
	CmdNavigate    = "navigate"
)

// Event kinds posted by the browser.
const (
	EvHoverEnter = "hoverEnter"
	EvHoverExit  = "hoverExit"
	EvDragStart  = "dragStart"
	EvDragFinish = "dragFinish"
	EvMoveFinish = "moveFinish"
	EvClick      = "click"
	EvChange     = "change"
)

var (
	ErrNoPage       = errors.New("no such page")
	ErrClosed       = errors.New("page closed")
	ErrUnknownEvent = errors.New("unknown event")
)

// Command is one view update sent over the event stream.
type Command struct {
	Kind  string         `json:"kind"`
	Value string         `json:"value,omitempty"`
	Model *api.ModelInfo `json:"model,omitempty"`
}

// Event is one browser gesture or control change.
type Event struct {
	Kind    string `json:"kind"`
	Square  string `json:"square,omitempty"`
	Piece   string `json:"piece,omitempty"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Button  string `json:"button,omitempty"`
	Control string `json:"control,omitempty"` // "color" or "model"
	Value   string `json:"value,omitempty"`
}

// Result answers an Event. OK carries the drag predicates' verdict.
type Result struct {
	OK bool `json:"ok"`
}

// Config wires a Hub.
type Config struct {
	Catalog    newgame.Catalog
	Moves      play.MoveService
	Sessions   session.Store
	Archive    storage.Recorder // nil disables archiving
	IdleTTL    time.Duration
	SweepEvery time.Duration
}

// Hub manages all live pages.
type Hub struct {
	mu     sync.Mutex
	cfg    Config
	pages  map[string]*Page
	ctx    context.Context
	cancel context.CancelFunc
}

// Page is one open browser page and the controller behind it.
type Page struct {
	ID   string
	Kind Kind

	loop   *eventloop.Loop
	cancel context.CancelFunc
	handle func(Event) (Result, error) // runs on loop

	mu       sync.Mutex
	watchers map[chan []byte]struct{}
	view     viewState
	lastSeen time.Time
}
