// Package preset captures and restores soundscape layouts: which
// sound each layer plays and at what volume. Stores persist the
// layout as a JSON object keyed by layer id, each value
// {"sound": string|null, "volume": number in [0,1]}.
package preset

import (
	"fmt"
	"strings"

	"github.com/devloper-gazi/New-Focus-Prototypes/internal/engine"
)

// Slot is one layer's persisted state. A nil Sound means the layer
// exists but has nothing to play.
type Slot struct {
	Sound  *string `json:"sound"`
	Volume float64 `json:"volume"`
}

// Preset maps layer id to its slot.
type Preset map[string]Slot

// Store persists named presets.
type Store interface {
	Save(name string, p Preset) error
	Load(name string) (Preset, error)
	List() ([]string, error)
	Delete(name string) error
	Close() error
}

// Capture records the engine's current layers, remembered sounds, and
// volumes.
func Capture(e *engine.Engine) Preset {
	p := make(Preset)
	for _, id := range e.LayerIDs() {
		info, ok := e.LayerInfo(id)
		if !ok {
			continue
		}
		slot := Slot{Volume: info.Volume}
		if sound, ok := e.RememberedSound(id); ok && sound != "" {
			s := sound
			slot.Sound = &s
		}
		p[id] = slot
	}
	return p
}

// Apply recreates the preset's layers on the engine and starts their
// sounds. Existing layers are reused; per-layer play failures are
// collected rather than aborting the rest.
func Apply(e *engine.Engine, p Preset) error {
	var errs []string
	for id, slot := range p {
		e.CreateLayer(id, slot.Volume)
		e.SetLayerVolume(id, slot.Volume)
		if slot.Sound == nil {
			continue
		}
		if err := playNamed(e, id, *slot.Sound); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("preset: %s", strings.Join(errs, "; "))
	}
	return nil
}

// playNamed starts a persisted "category/name" sound. The "file"
// pseudo-category bypasses the catalog for sounds that were played
// from an explicit path.
func playNamed(e *engine.Engine, layerID, sound string) error {
	category, name, ok := strings.Cut(sound, "/")
	if !ok {
		return fmt.Errorf("layer %s: malformed sound %q", layerID, sound)
	}
	if category == "file" {
		return e.PlayRef(layerID, engine.FileRef(name), sound)
	}
	return e.Play(layerID, category, name)
}
