package opponent

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/corentings/chess/v2"
	yaml "gopkg.in/yaml.v3"

	"whales/internal/game"
)

//go:embed catalog.yaml
var catalogFiles embed.FS

var (
	ErrNoSuchModel = errors.New("no such model")
	ErrInvalidPGN  = game.ErrInvalidPGN
	ErrGameOver    = errors.New("game is over")
)

// Info describes a model for the new-game catalog.
type Info struct {
	InternalName string `yaml:"internal_name"`
	DisplayName  string `yaml:"display_name"`
	Description  string `yaml:"description"`
}

// MoveFunc picks a move for the side to move in g.
type MoveFunc func(ctx context.Context, g *chess.Game, r *rand.Rand) (*chess.Move, error)

type model struct {
	info Info
	move MoveFunc
}

// Registry maps model names to move pickers.
type Registry struct {
	models map[string]model

	randMu sync.Mutex
	rand   *rand.Rand
}

// builtins binds catalog entries to their implementations.
var builtins = map[string]MoveFunc{
	"random":          randomMove,
	"material-depth2": minimaxMove(2),
}

// NewRegistry loads the embedded catalog.
func NewRegistry() (*Registry, error) {
	raw, err := fs.ReadFile(catalogFiles, "catalog.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded catalog: %w", err)
	}
	var doc struct {
		Models []Info `yaml:"models"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	r := &Registry{
		models: make(map[string]model, len(doc.Models)),
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, info := range doc.Models {
		fn, ok := builtins[info.InternalName]
		if !ok {
			return nil, fmt.Errorf("catalog entry %q has no implementation", info.InternalName)
		}
		r.models[info.InternalName] = model{info: info, move: fn}
	}
	return r, nil
}

// SetRandomSeed makes move selection reproducible.
func (r *Registry) SetRandomSeed(seed int64) {
	r.randMu.Lock()
	r.rand = rand.New(rand.NewSource(seed))
	r.randMu.Unlock()
}

// Catalog lists the models sorted by internal name.
func (r *Registry) Catalog() []Info {
	out := make([]Info, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InternalName < out[j].InternalName })
	return out
}

// Run plays one move for the side to move in pgn using the named model and returns
// the full updated game record.
func (r *Registry) Run(ctx context.Context, name, pgn string) (string, error) {
	m, ok := r.models[strings.TrimSpace(name)]
	if !ok {
		return "", ErrNoSuchModel
	}
	g, err := game.Parse(pgn)
	if err != nil {
		return "", err
	}
	if g.Outcome() != chess.NoOutcome || len(g.ValidMoves()) == 0 {
		return "", ErrGameOver
	}

	mv, err := m.move(ctx, g, r.random())
	if err != nil {
		return "", err
	}
	if err := g.Move(mv, nil); err != nil {
		return "", fmt.Errorf("apply %s: %w", mv.String(), err)
	}
	return g.String(), nil
}

func (r *Registry) random() *rand.Rand {
	r.randMu.Lock()
	seed := r.rand.Int63()
	r.randMu.Unlock()
	return rand.New(rand.NewSource(seed))
}

func randomMove(_ context.Context, g *chess.Game, r *rand.Rand) (*chess.Move, error) {
	moves := g.ValidMoves()
	if len(moves) == 0 {
		return nil, ErrGameOver
	}
	mv := moves[r.Intn(len(moves))]
	return &mv, nil
}
