// Package events replicates basemap settings changes between service
// replicas over Kafka so every in-process settings cache stays coherent.
package events

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mohammed-shakir/geopreview/internal/basemap"
)

const schemaVersion = 1

// ErrMalformed marks messages that can never be applied; they are skipped
// rather than retried.
var ErrMalformed = errors.New("malformed settings event")

type Event struct {
	Version         int       `json:"version"`
	Op              string    `json:"op"`
	Key             string    `json:"key"`
	SettingsVersion uint64    `json:"settings_version"`
	TS              time.Time `json:"ts"`
	Source          string    `json:"source,omitempty"`
}

func (e Event) Validate() error {
	if e.Version != schemaVersion {
		return fmt.Errorf("version must be %d", schemaVersion)
	}
	switch e.Op {
	case basemap.OpAdd, basemap.OpUpdate, basemap.OpRemove,
		basemap.OpReorder, basemap.OpSetDefault, basemap.OpReset:
	default:
		return fmt.Errorf("unknown op %q", e.Op)
	}
	if strings.TrimSpace(e.Key) == "" {
		return fmt.Errorf("key is required")
	}
	if e.SettingsVersion == 0 {
		return fmt.Errorf("settings_version must be > 0")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	return nil
}

func fromChange(c basemap.Change, source string, now time.Time) Event {
	return Event{
		Version:         schemaVersion,
		Op:              c.Op,
		Key:             c.Key,
		SettingsVersion: c.Version,
		TS:              now.UTC(),
		Source:          source,
	}
}
