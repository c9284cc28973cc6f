package events

import (
	"testing"
	"time"

	"github.com/mohammed-shakir/geopreview/internal/basemap"
)

func mustTS() time.Time { return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC) }

func validEvent() Event {
	return Event{Version: 1, Op: basemap.OpReorder, Key: "basemaps:default:settings", SettingsVersion: 3, TS: mustTS()}
}

func TestEvent_Validate(t *testing.T) {
	if err := validEvent().Validate(); err != nil {
		t.Fatalf("unexpected: %v", err)
	}

	bad := map[string]func(*Event){
		"version":  func(e *Event) { e.Version = 2 },
		"op":       func(e *Event) { e.Op = "truncate" },
		"key":      func(e *Event) { e.Key = "  " },
		"settings": func(e *Event) { e.SettingsVersion = 0 },
		"ts":       func(e *Event) { e.TS = time.Time{} },
	}
	for name, mut := range bad {
		ev := validEvent()
		mut(&ev)
		if err := ev.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestFromChange(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))
	ev := fromChange(basemap.Change{Op: basemap.OpAdd, Key: "k", Version: 9}, "replica-1", now)
	if ev.Version != 1 || ev.SettingsVersion != 9 || ev.Source != "replica-1" || ev.TS.Location() != time.UTC {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if err := ev.Validate(); err != nil {
		t.Fatalf("event from change must validate: %v", err)
	}
}

func TestVersionDedupe(t *testing.T) {
	d := newVersionDedupe(2)
	if !d.shouldApply("a", 1) || !d.shouldApply("a", 2) {
		t.Fatal("increasing versions must apply")
	}
	if d.shouldApply("a", 2) || d.shouldApply("a", 1) {
		t.Fatal("duplicate or older version must be skipped")
	}
	if !d.shouldApply("b", 1) {
		t.Fatal("keys are independent")
	}
}
