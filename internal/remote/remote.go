// Package remote exposes the engine's command surface over MQTT, so
// headless soundscape daemons can be driven by home-automation
// frontends. Commands arrive on <prefix>/command; the engine state is
// published, retained, on <prefix>/state after every command.
package remote

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/devloper-gazi/New-Focus-Prototypes/internal/config"
	"github.com/devloper-gazi/New-Focus-Prototypes/internal/engine"
)

const connectTimeout = 5 * time.Second

// Command is one control message.
type Command struct {
	Op       string  `json:"op"` // create | play | stop | stop_all | play_all | volume | master_volume
	Layer    string  `json:"layer,omitempty"`
	Category string  `json:"category,omitempty"`
	Name     string  `json:"name,omitempty"`
	Value    float64 `json:"value,omitempty"`
}

// LayerState is one layer's entry in the published state.
type LayerState struct {
	Playing bool    `json:"playing"`
	Sound   string  `json:"sound,omitempty"`
	Volume  float64 `json:"volume"`
}

// State is the payload published on <prefix>/state.
type State struct {
	Active int                   `json:"active"`
	Master float64               `json:"master"`
	Layers map[string]LayerState `json:"layers"`
}

// Bridge is a live MQTT connection driving one engine.
type Bridge struct {
	client pahomqtt.Client
	eng    *engine.Engine
	prefix string
}

// Dial connects to the broker, subscribes to the command topic, and
// publishes the initial state.
func Dial(cfg config.Remote, eng *engine.Engine) (*Bridge, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("remote: no broker configured")
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "soundscape"
	}
	prefix := cfg.TopicPrefix
	if prefix == "" {
		prefix = "soundscape"
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("remote: connect timeout")
	}
	if tok.Error() != nil {
		return nil, fmt.Errorf("remote: connect: %w", tok.Error())
	}

	b := &Bridge{client: client, eng: eng, prefix: prefix}

	sub := client.Subscribe(prefix+"/command", 1, b.onCommand)
	if !sub.WaitTimeout(connectTimeout) {
		client.Disconnect(250)
		return nil, fmt.Errorf("remote: subscribe timeout")
	}
	if sub.Error() != nil {
		client.Disconnect(250)
		return nil, fmt.Errorf("remote: subscribe: %w", sub.Error())
	}

	b.publishState()
	return b, nil
}

func (b *Bridge) onCommand(_ pahomqtt.Client, msg pahomqtt.Message) {
	var cmd Command
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		fmt.Fprintf(os.Stderr, "warning: remote: bad command payload: %v\n", err)
		return
	}
	if err := b.Dispatch(cmd); err != nil {
		fmt.Fprintf(os.Stderr, "warning: remote: %v\n", err)
	}
	b.publishState()
}

// Dispatch applies one command to the engine.
func (b *Bridge) Dispatch(cmd Command) error {
	switch cmd.Op {
	case "create":
		b.eng.CreateLayer(cmd.Layer, cmd.Value)
		return nil
	case "play":
		return b.eng.Play(cmd.Layer, cmd.Category, cmd.Name)
	case "stop":
		b.eng.Stop(cmd.Layer)
		return nil
	case "stop_all":
		b.eng.StopAll()
		return nil
	case "play_all":
		b.eng.PlayAll()
		return nil
	case "volume":
		b.eng.SetLayerVolume(cmd.Layer, cmd.Value)
		return nil
	case "master_volume":
		b.eng.SetMasterVolume(cmd.Value)
		return nil
	}
	return fmt.Errorf("unknown op %q", cmd.Op)
}

// Snapshot builds the publishable engine state.
func Snapshot(eng *engine.Engine) State {
	st := State{
		Active: eng.ActiveLayerCount(),
		Master: eng.MasterVolume(),
		Layers: make(map[string]LayerState),
	}
	for _, id := range eng.LayerIDs() {
		info, ok := eng.LayerInfo(id)
		if !ok {
			continue
		}
		sound := info.CurrentSound
		if sound == "" {
			sound, _ = eng.RememberedSound(id)
		}
		st.Layers[id] = LayerState{
			Playing: info.IsPlaying,
			Sound:   sound,
			Volume:  info.Volume,
		}
	}
	return st
}

func (b *Bridge) publishState() {
	payload, err := json.Marshal(Snapshot(b.eng))
	if err != nil {
		return
	}
	pub := b.client.Publish(b.prefix+"/state", 1, true, payload)
	if !pub.WaitTimeout(connectTimeout) {
		fmt.Fprintf(os.Stderr, "warning: remote: state publish timeout\n")
		return
	}
	if pub.Error() != nil {
		fmt.Fprintf(os.Stderr, "warning: remote: state publish: %v\n", pub.Error())
	}
}

// Close disconnects from the broker.
func (b *Bridge) Close() {
	b.client.Disconnect(250)
}
