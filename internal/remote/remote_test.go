package remote

import (
	"encoding/json"
	"testing"

	"github.com/devloper-gazi/New-Focus-Prototypes/internal/config"
	"github.com/devloper-gazi/New-Focus-Prototypes/internal/engine"
)

func newTestBridge(t *testing.T) *Bridge {
	t.Helper()
	opts := config.DefaultOptions()
	opts.EnableCrossfade = false
	eng, err := engine.NewHeadless(opts, nil, &engine.ManualClock{})
	if err != nil {
		t.Fatalf("NewHeadless: %v", err)
	}
	t.Cleanup(eng.Dispose)
	return &Bridge{eng: eng}
}

func TestDialRequiresBroker(t *testing.T) {
	if _, err := Dial(config.Remote{}, nil); err == nil {
		t.Error("empty broker should fail")
	}
}

func TestDispatchLifecycle(t *testing.T) {
	b := newTestBridge(t)

	steps := []Command{
		{Op: "create", Layer: "amb", Value: 0.5},
		{Op: "play", Layer: "amb", Category: "noise", Name: "pink"},
		{Op: "volume", Layer: "amb", Value: 0.8},
		{Op: "master_volume", Value: 0.3},
	}
	for _, cmd := range steps {
		if err := b.Dispatch(cmd); err != nil {
			t.Fatalf("dispatch %s: %v", cmd.Op, err)
		}
	}

	info, ok := b.eng.LayerInfo("amb")
	if !ok || !info.IsPlaying {
		t.Fatal("layer not playing after play command")
	}
	if info.CurrentSound != "noise/pink" {
		t.Errorf("sound = %q", info.CurrentSound)
	}
	if info.Volume != 0.8 {
		t.Errorf("volume = %g, want 0.8", info.Volume)
	}
	if v := b.eng.MasterVolume(); v != 0.3 {
		t.Errorf("master = %g, want 0.3", v)
	}

	if err := b.Dispatch(Command{Op: "stop", Layer: "amb"}); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if n := b.eng.ActiveLayerCount(); n != 0 {
		t.Errorf("active = %d after stop", n)
	}
	if err := b.Dispatch(Command{Op: "play_all"}); err != nil {
		t.Fatalf("play_all: %v", err)
	}
	if n := b.eng.ActiveLayerCount(); n != 1 {
		t.Errorf("active = %d after play_all, want 1", n)
	}
	if err := b.Dispatch(Command{Op: "stop_all"}); err != nil {
		t.Fatalf("stop_all: %v", err)
	}
	if n := b.eng.ActiveLayerCount(); n != 0 {
		t.Errorf("active = %d after stop_all", n)
	}
}

func TestDispatchErrors(t *testing.T) {
	b := newTestBridge(t)
	if err := b.Dispatch(Command{Op: "reboot"}); err == nil {
		t.Error("unknown op should fail")
	}
	if err := b.Dispatch(Command{Op: "play", Layer: "ghost", Category: "noise", Name: "pink"}); err == nil {
		t.Error("play on unknown layer should fail")
	}
}

func TestSnapshot(t *testing.T) {
	b := newTestBridge(t)
	b.Dispatch(Command{Op: "create", Layer: "amb", Value: 0.5})
	b.Dispatch(Command{Op: "play", Layer: "amb", Category: "noise", Name: "white"})
	b.Dispatch(Command{Op: "master_volume", Value: 0.6})

	st := Snapshot(b.eng)
	if st.Active != 1 {
		t.Errorf("active = %d, want 1", st.Active)
	}
	if st.Master != 0.6 {
		t.Errorf("master = %g, want 0.6", st.Master)
	}
	ls, ok := st.Layers["amb"]
	if !ok {
		t.Fatal("amb missing from snapshot")
	}
	if !ls.Playing || ls.Sound != "noise/white" || ls.Volume != 0.5 {
		t.Errorf("layer state = %+v", ls)
	}

	// A stopped layer still reports its remembered sound.
	b.Dispatch(Command{Op: "stop", Layer: "amb"})
	st = Snapshot(b.eng)
	ls = st.Layers["amb"]
	if ls.Playing {
		t.Error("stopped layer reported playing")
	}
	if ls.Sound != "noise/white" {
		t.Errorf("stopped layer sound = %q, want remembered noise/white", ls.Sound)
	}
}

func TestCommandJSON(t *testing.T) {
	payload := `{"op": "play", "layer": "amb", "category": "noise", "name": "brown"}`
	var cmd Command
	if err := json.Unmarshal([]byte(payload), &cmd); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cmd.Op != "play" || cmd.Layer != "amb" || cmd.Category != "noise" || cmd.Name != "brown" {
		t.Errorf("decoded command = %+v", cmd)
	}

	st := Snapshot(newTestBridge(t).eng)
	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var round State
	if err := json.Unmarshal(data, &round); err != nil {
		t.Fatalf("round trip: %v", err)
	}
}
