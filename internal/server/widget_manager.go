package server

import (
	"sync"

	"github.com/google/uuid"

	"github.com/michaelbrown/carcin-play/internal/carcin"
	"github.com/michaelbrown/carcin-play/internal/observability"
	"github.com/michaelbrown/carcin-play/internal/play"
)

const defaultMaxWidgets = 1000

// WidgetManager holds the widgets created by page renders and the API.
// Once full, the oldest widget is evicted.
type WidgetManager struct {
	mu      sync.RWMutex
	widgets map[string]*play.Widget
	order   []string
	max     int
}

// NewWidgetManager creates a manager holding at most max widgets.
func NewWidgetManager(max int) *WidgetManager {
	if max <= 0 {
		max = defaultMaxWidgets
	}
	return &WidgetManager{
		widgets: make(map[string]*play.Widget),
		max:     max,
	}
}

// Create builds and registers a new widget.
func (wm *WidgetManager) Create(code string, runner carcin.Runner, cfg play.Config) *play.Widget {
	w := play.New(uuid.New().String(), code, runner, cfg)

	wm.mu.Lock()
	defer wm.mu.Unlock()

	for len(wm.order) >= wm.max {
		oldest := wm.order[0]
		wm.order = wm.order[1:]
		delete(wm.widgets, oldest)
	}
	wm.widgets[w.ID()] = w
	wm.order = append(wm.order, w.ID())
	observability.WidgetsActive.Set(float64(len(wm.widgets)))
	return w
}

// Get returns a widget if it exists.
func (wm *WidgetManager) Get(id string) (*play.Widget, bool) {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	w, ok := wm.widgets[id]
	return w, ok
}

// Remove drops a widget. It reports whether the widget existed.
func (wm *WidgetManager) Remove(id string) bool {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	if _, ok := wm.widgets[id]; !ok {
		return false
	}
	delete(wm.widgets, id)
	for i, other := range wm.order {
		if other == id {
			wm.order = append(wm.order[:i], wm.order[i+1:]...)
			break
		}
	}
	observability.WidgetsActive.Set(float64(len(wm.widgets)))
	return true
}

// Len returns the number of widgets held.
func (wm *WidgetManager) Len() int {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	return len(wm.widgets)
}

// CloseAll drops every widget.
func (wm *WidgetManager) CloseAll() {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	wm.widgets = make(map[string]*play.Widget)
	wm.order = nil
	observability.WidgetsActive.Set(0)
}
