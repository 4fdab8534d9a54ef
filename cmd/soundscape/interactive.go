package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/devloper-gazi/New-Focus-Prototypes/internal/catalog"
	"github.com/devloper-gazi/New-Focus-Prototypes/internal/engine"
	"github.com/devloper-gazi/New-Focus-Prototypes/internal/preset"
)

// mixLayers are the layers the interactive mixer starts with.
var mixLayers = []string{"ambience", "noise", "tone"}

// catalogCursor walks the flattened catalog one sound at a time.
type catalogCursor struct {
	entries []catalog.Entry
	pos     map[string]int // per-layer position
}

func newCatalogCursor(cat catalog.Catalog) *catalogCursor {
	c := &catalogCursor{pos: make(map[string]int)}
	for _, category := range cat.Categories() {
		for _, name := range cat.Names(category) {
			if entry, err := cat.Resolve(category, name); err == nil {
				c.entries = append(c.entries, entry)
			}
		}
	}
	return c
}

func (c *catalogCursor) next(layerID string) (catalog.Entry, bool) {
	if len(c.entries) == 0 {
		return catalog.Entry{}, false
	}
	i := c.pos[layerID] % len(c.entries)
	c.pos[layerID] = i + 1
	return c.entries[i], true
}

func interactiveMix(configPath string) {
	cfg, cat := loadSetup(configPath)

	eng, err := engine.New(cfg.Options, cat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer eng.Dispose()

	for _, id := range mixLayers {
		eng.CreateLayer(id, 0.6)
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot enter raw mode: %v\n", err)
		os.Exit(1)
	}
	defer term.Restore(fd, oldState)

	keys := make(chan byte, 1)
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				keys <- buf[0]
			}
			if err != nil {
				return
			}
		}
	}()

	cursor := newCatalogCursor(cat)
	store := openPresetStore(cfg)
	defer store.Close()

	selected := 0
	allStopped := false
	status := ""
	ticker := time.NewTicker(150 * time.Millisecond)
	defer ticker.Stop()

	for {
		render(eng, selected, status)
		select {
		case <-ticker.C:
		case k := <-keys:
			id := mixLayers[selected]
			switch k {
			case 'q', 'x', 3: // 3 = Ctrl+C in raw mode
				fmt.Print("\033[2J\033[H")
				return
			case '\t', 'j':
				selected = (selected + 1) % len(mixLayers)
			case 'k':
				selected = (selected + len(mixLayers) - 1) % len(mixLayers)
			case '+', '=':
				if info, ok := eng.LayerInfo(id); ok {
					eng.SetLayerVolume(id, info.Volume+0.05)
				}
			case '-', '_':
				if info, ok := eng.LayerInfo(id); ok {
					eng.SetLayerVolume(id, info.Volume-0.05)
				}
			case ']':
				eng.SetMasterVolume(eng.MasterVolume() + 0.05)
			case '[':
				eng.SetMasterVolume(eng.MasterVolume() - 0.05)
			case 'n':
				if entry, ok := cursor.next(id); ok {
					if err := eng.Play(id, entry.Category, entry.Name); err != nil {
						status = err.Error()
					} else {
						status = fmt.Sprintf("playing %s/%s on %s", entry.Category, entry.Name, id)
					}
				}
			case 's':
				eng.Stop(id)
				status = "stopped " + id
			case ' ':
				if allStopped {
					eng.PlayAll()
					status = "resumed"
				} else {
					eng.StopAll()
					status = "all stopped"
				}
				allStopped = !allStopped
			case 'w':
				if err := store.Save("last", preset.Capture(eng)); err != nil {
					status = err.Error()
				} else {
					status = "preset saved as \"last\""
				}
			case 'r':
				p, err := store.Load("last")
				if err != nil {
					status = err.Error()
				} else if err := preset.Apply(eng, p); err != nil {
					status = err.Error()
				} else {
					status = "preset \"last\" restored"
				}
			}
		}
	}
}

// render redraws the mixer screen. Raw mode needs explicit \r\n.
func render(eng *engine.Engine, selected int, status string) {
	var out strings.Builder
	out.WriteString("\033[2J\033[H")
	fmt.Fprintf(&out, "soundscape mix  —  master %.2f  —  n play  s stop  space all  +/- vol  w/r preset  q quit\r\n\r\n",
		eng.MasterVolume())

	for i, id := range mixLayers {
		info, ok := eng.LayerInfo(id)
		if !ok {
			continue
		}
		marker := "  "
		if i == selected {
			marker = "> "
		}
		state := "stopped"
		if info.IsPlaying {
			state = "playing"
		}
		sound := info.CurrentSound
		if sound == "" {
			sound = "(none)"
		}
		fmt.Fprintf(&out, "%s%-10s %-8s %-24s %s %s\r\n",
			marker, id, state, sound, volumeBar(info.Volume), meter(eng, id))
	}
	if status != "" {
		fmt.Fprintf(&out, "\r\n%s\r\n", status)
	}
	fmt.Print(out.String())
}

func volumeBar(v float64) string {
	const width = 20
	filled := int(v*width + 0.5)
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// meter shows the layer's current peak from the analyser tap.
func meter(eng *engine.Engine, id string) string {
	samples := eng.AnalyserSamples(id)
	if samples == nil {
		return ""
	}
	peak := 0
	for _, b := range samples {
		d := int(b) - 128
		if d < 0 {
			d = -d
		}
		if d > peak {
			peak = d
		}
	}
	const width = 10
	filled := peak * width / 128
	return strings.Repeat("|", filled)
}
