// Package newgame drives the new-game page: opponent and color pickers whose
// selection is carried to the next page in a URL fragment.
package newgame

import (
	"context"

	"go.uber.org/zap"

	"whales/internal/api"
	"whales/internal/eventloop"
	"whales/internal/logging"
	"whales/internal/selection"
)

// Form is the page's controls.
type Form interface {
	SetColor(color string)
	Color() string
	AddModelOption(m api.ModelInfo)
	SelectModel(internalName string)
	Model() string
	Navigate(url string)
}

// Catalog lists the available opponent models.
type Catalog interface {
	ListModels(ctx context.Context) ([]api.ModelInfo, error)
}

// CatalogState tracks the single catalog request.
type CatalogState int

const (
	Loading CatalogState = iota
	Loaded
	Failed
)

func (s CatalogState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Buttons maps navigation control ids to the page path they lead to.
var Buttons = map[string]string{
	"playBtn":  "play",
	"aboutBtn": "about",
}

// Controller owns one new-game page. All methods run on its loop.
type Controller struct {
	form    Form
	prev    selection.Selection
	catalog CatalogState
}

// Start decodes fragment, presets the color control and requests the catalog.
func Start(loop *eventloop.Loop, form Form, catalog Catalog, fragment string) *Controller {
	c := &Controller{
		form:    form,
		prev:    selection.DecodeFragment(fragment),
		catalog: Loading,
	}
	if selection.ValidColor(c.prev.PlayerColor) {
		form.SetColor(c.prev.PlayerColor)
	}

	eventloop.Spawn(loop, catalog.ListModels, c.catalogLoaded)
	return c
}

func (c *Controller) catalogLoaded(models []api.ModelInfo, err error) {
	if err != nil {
		logging.L().Warn("list_models failed", zap.Error(err))
		c.catalog = Failed
		return
	}
	for _, m := range models {
		c.form.AddModelOption(m)
		if m.InternalName == c.prev.BackendModel {
			c.form.SelectModel(m.InternalName)
		}
	}
	c.catalog = Loaded
}

// CatalogState reports the catalog request state.
func (c *Controller) CatalogState() CatalogState { return c.catalog }

// Click handles activation of a navigation control. It reports false for unknown ids.
func (c *Controller) Click(button string) bool {
	target, ok := Buttons[button]
	if !ok {
		return false
	}
	c.form.Navigate(c.Destination(target))
	return true
}

// Destination builds the URL for target from the current control values.
func (c *Controller) Destination(target string) string {
	sel := selection.Selection{PlayerColor: c.form.Color()}
	if c.catalog == Loaded {
		sel.BackendModel = c.form.Model()
	} else {
		sel.BackendModel = c.prev.BackendModel
	}
	return "/" + target + "#" + selection.EncodeFragment(sel)
}
