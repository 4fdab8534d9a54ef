package engine

import (
	"github.com/devloper-gazi/New-Focus-Prototypes/internal/analyser"
)

// Layer is an independently controllable audio channel: a gain stage,
// an analysis tap, and at most one bound source at any time. All
// fields besides the gain parameter are guarded by the engine mutex.
type Layer struct {
	id   string
	fade fadeTarget
	tap  *analyser.Tap

	volume  float64 // stored target volume in [0, 1]
	playing bool

	source Source

	// active is the sound currently bound; remembered survives stop
	// so PlayAll can restore the layer.
	active         *SoundRef
	activeName     string
	remembered     *SoundRef
	rememberedName string
}

// LayerInfo is the read-only view of a layer handed to consumers.
type LayerInfo struct {
	ID           string
	IsPlaying    bool
	CurrentSound string
	Volume       float64
}

func newLayer(id string, volume float64, clock Clock) *Layer {
	tap, _ := analyser.NewTap(analyser.DefaultSize)
	return &Layer{
		id:     id,
		fade:   fadeTarget{gain: newGainParam(clock, 0)},
		tap:    tap,
		volume: clampGain(volume),
	}
}

// teardownLocked releases the bound source and clears current-sound
// state. Safe to call when already stopped. The remembered reference
// is kept for PlayAll. Caller holds e.mu.
func (l *Layer) teardownLocked() {
	if l.source != nil {
		l.source.Close()
		l.source = nil
	}
	l.active = nil
	l.activeName = ""
	l.playing = false
}

func (l *Layer) infoLocked() LayerInfo {
	return LayerInfo{
		ID:           l.id,
		IsPlaying:    l.playing,
		CurrentSound: l.activeName,
		Volume:       l.volume,
	}
}
