package server

import (
	"fmt"
	"io"
	"log"
	"testing"

	"github.com/michaelbrown/carcin-play/internal/play"
)

func quietWidgetConfig() play.Config {
	return play.Config{Logger: log.New(io.Discard, "", 0)}
}

func TestWidgetManager_CreateAndGet(t *testing.T) {
	wm := NewWidgetManager(0)
	defer wm.CloseAll()

	w := wm.Create("puts 1", nil, quietWidgetConfig())
	if w.ID() == "" {
		t.Fatal("expected widget ID")
	}

	got, ok := wm.Get(w.ID())
	if !ok {
		t.Fatal("expected widget to exist")
	}
	if got != w {
		t.Error("expected same widget instance")
	}
	if got.Code() != "puts 1" {
		t.Errorf("code = %q", got.Code())
	}
}

func TestWidgetManager_Remove(t *testing.T) {
	wm := NewWidgetManager(0)
	w := wm.Create("x", nil, quietWidgetConfig())

	if !wm.Remove(w.ID()) {
		t.Error("Remove should report an existing widget")
	}
	if _, ok := wm.Get(w.ID()); ok {
		t.Error("expected widget to be removed")
	}
	if wm.Remove(w.ID()) {
		t.Error("second Remove should report false")
	}
}

func TestWidgetManager_EvictsOldest(t *testing.T) {
	wm := NewWidgetManager(2)

	var ids []string
	for i := 0; i < 3; i++ {
		ids = append(ids, wm.Create(fmt.Sprintf("puts %d", i), nil, quietWidgetConfig()).ID())
	}

	if wm.Len() != 2 {
		t.Fatalf("Len = %d, want 2", wm.Len())
	}
	if _, ok := wm.Get(ids[0]); ok {
		t.Error("oldest widget should be evicted")
	}
	for _, id := range ids[1:] {
		if _, ok := wm.Get(id); !ok {
			t.Errorf("widget %s should remain", id)
		}
	}
}

func TestWidgetManager_CloseAll(t *testing.T) {
	wm := NewWidgetManager(0)
	for i := 0; i < 3; i++ {
		wm.Create("x", nil, quietWidgetConfig())
	}

	wm.CloseAll()

	if wm.Len() != 0 {
		t.Errorf("expected all widgets to be cleared, got %d", wm.Len())
	}
}
