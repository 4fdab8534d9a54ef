package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/devloper-gazi/New-Focus-Prototypes/internal/catalog"
	"github.com/devloper-gazi/New-Focus-Prototypes/internal/config"
	"github.com/devloper-gazi/New-Focus-Prototypes/internal/engine"
	"github.com/devloper-gazi/New-Focus-Prototypes/internal/preset"
	"github.com/devloper-gazi/New-Focus-Prototypes/internal/remote"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	args := os.Args[1:]
	volume := -1.0
	configPath := ""
	forSeconds := 0.0

	// Parse flags
	filtered := args[:0]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--volume", "-v":
			if i+1 < len(args) {
				v, err := strconv.ParseFloat(args[i+1], 64)
				if err != nil || v < 0 || v > 1 {
					fmt.Fprintf(os.Stderr, "Error: volume must be a number between 0 and 1\n")
					os.Exit(1)
				}
				volume = v
				i++
			} else {
				fmt.Fprintf(os.Stderr, "Error: --volume requires a value (0-1)\n")
				os.Exit(1)
			}
		case "--config", "-c":
			if i+1 < len(args) {
				configPath = args[i+1]
				i++
			} else {
				fmt.Fprintf(os.Stderr, "Error: --config requires a file path\n")
				os.Exit(1)
			}
		case "--for":
			if i+1 < len(args) {
				v, err := strconv.ParseFloat(args[i+1], 64)
				if err != nil || v <= 0 {
					fmt.Fprintf(os.Stderr, "Error: --for requires a positive number of seconds\n")
					os.Exit(1)
				}
				forSeconds = v
				i++
			} else {
				fmt.Fprintf(os.Stderr, "Error: --for requires a number of seconds\n")
				os.Exit(1)
			}
		default:
			filtered = append(filtered, args[i])
		}
	}

	if len(filtered) < 1 {
		printUsage()
		os.Exit(1)
	}

	switch filtered[0] {
	case "help", "-h", "--help":
		printUsage()
	case "version", "-V", "--version":
		printVersion()
	case "list", "-l", "--list":
		listCatalog(configPath)
	case "play":
		playOnce(filtered[1:], configPath, volume, forSeconds)
	case "preset":
		presetCommand(filtered[1:], configPath)
	case "serve":
		serve(configPath)
	case "mix":
		interactiveMix(configPath)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", filtered[0])
		fmt.Fprintf(os.Stderr, "Run 'soundscape help' for usage.\n")
		os.Exit(1)
	}
}

// loadSetup reads config and catalog; a missing config falls back to
// defaults, a bad catalog path is fatal.
func loadSetup(configPath string) (config.Config, catalog.Catalog) {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cat := catalog.Default()
	if cfg.Catalog != "" {
		cat, err = catalog.Load(cfg.Catalog)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	return cfg, cat
}

func playOnce(args []string, configPath string, volume, forSeconds float64) {
	var layerID, category, name string
	switch len(args) {
	case 2:
		layerID, category, name = "main", args[0], args[1]
	case 3:
		layerID, category, name = args[0], args[1], args[2]
	default:
		fmt.Fprintf(os.Stderr, "Error: expected [layer] <category> <sound>\n")
		fmt.Fprintf(os.Stderr, "Run 'soundscape help' for usage.\n")
		os.Exit(1)
	}

	cfg, cat := loadSetup(configPath)
	if volume < 0 {
		volume = 0.7
	}

	eng, err := engine.New(cfg.Options, cat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer eng.Dispose()

	eng.CreateLayer(layerID, volume)
	if err := eng.Play(layerID, category, name); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if forSeconds > 0 {
		time.Sleep(time.Duration(forSeconds * float64(time.Second)))
		eng.Stop(layerID)
		// Let the fade-out finish before tearing the sink down.
		if cfg.Options.EnableCrossfade {
			time.Sleep(time.Duration(cfg.Options.FadeDuration*float64(time.Second)) + 100*time.Millisecond)
		}
		return
	}

	fmt.Printf("Playing %s/%s on layer %q — Ctrl+C to stop.\n", category, name, layerID)
	waitForSignal()
}

func presetCommand(args []string, configPath string) {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Error: expected preset <list|show|delete|play> [name]\n")
		os.Exit(1)
	}
	cfg, cat := loadSetup(configPath)
	store := openPresetStore(cfg)
	defer store.Close()

	switch args[0] {
	case "list":
		names, err := store.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, n := range names {
			fmt.Println(n)
		}
	case "show", "delete", "play":
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "Error: preset %s requires a name\n", args[0])
			os.Exit(1)
		}
		name := args[1]
		switch args[0] {
		case "show":
			p, err := store.Load(name)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			for _, id := range sortedKeys(p) {
				slot := p[id]
				sound := "(none)"
				if slot.Sound != nil {
					sound = *slot.Sound
				}
				fmt.Printf("%-12s %-24s %.2f\n", id, sound, slot.Volume)
			}
		case "delete":
			if err := store.Delete(name); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		case "play":
			p, err := store.Load(name)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			eng, err := engine.New(cfg.Options, cat)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer eng.Dispose()
			if err := preset.Apply(eng, p); err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}
			fmt.Printf("Playing preset %q — Ctrl+C to stop.\n", name)
			waitForSignal()
		}
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown preset command %q\n", args[0])
		os.Exit(1)
	}
}

// openPresetStore picks the store backend from the configured path:
// a .db path opens SQLite, anything else is a preset directory.
func openPresetStore(cfg config.Config) preset.Store {
	path := cfg.Preset
	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home + "/.config/soundscape/presets"
		} else {
			path = "presets"
		}
	}
	if len(path) > 3 && path[len(path)-3:] == ".db" {
		store, err := preset.NewSQLiteStore(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return store
	}
	return preset.NewFileStore(path)
}

func serve(configPath string) {
	cfg, cat := loadSetup(configPath)

	eng, err := engine.New(cfg.Options, cat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer eng.Dispose()

	var bridge *remote.Bridge
	if cfg.Remote.Broker != "" {
		bridge, err = remote.Dial(cfg.Remote, eng)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer bridge.Close()
		fmt.Printf("Connected to %s\n", cfg.Remote.Broker)
	}

	// Live-reload runtime options when an explicit config file is used.
	if configPath != "" {
		watcher, err := config.Watch(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: config watch: %v\n", err)
		} else {
			defer watcher.Close()
			go func() {
				for newCfg := range watcher.Configs {
					eng.ApplyOptions(newCfg.Options)
					fmt.Fprintf(os.Stderr, "config reloaded\n")
				}
			}()
			go func() {
				for err := range watcher.Errors {
					fmt.Fprintf(os.Stderr, "warning: config watch: %v\n", err)
				}
			}()
		}
	}

	fmt.Println("soundscape daemon running — Ctrl+C to stop.")
	waitForSignal()
}

func listCatalog(configPath string) {
	_, cat := loadSetup(configPath)
	for _, category := range cat.Categories() {
		fmt.Printf("%s:\n", category)
		for _, name := range cat.Names(category) {
			entry, err := cat.Resolve(category, name)
			if err != nil {
				continue
			}
			if entry.Generated {
				fmt.Printf("  %-16s (generated)\n", name)
			} else {
				fmt.Printf("  %-16s %s\n", name, entry.Path)
			}
		}
	}
}

func sortedKeys(p preset.Preset) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func waitForSignal() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}

func printVersion() {
	fmt.Printf("soundscape %s (built %s)\n", version, buildDate)
}

func printUsage() {
	fmt.Println(`soundscape — layered ambient sound mixer

Usage:
  soundscape play [layer] <category> <sound>   play one sound
  soundscape mix                               interactive terminal mixer
  soundscape serve                             run as a daemon (MQTT control)
  soundscape preset <list|show|delete|play> [name]
  soundscape list                              show the sound catalog
  soundscape version

Flags:
  --volume, -v <0-1>    initial layer volume (play)
  --for <seconds>       stop after the given time (play)
  --config, -c <path>   config file path`)
}
