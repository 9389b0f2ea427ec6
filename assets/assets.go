package assets

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed presets
var PresetFS embed.FS

var ErrUnknownPreset = errors.New("unknown preset")

// Preset is a named set of mix parameters.
type Preset struct {
	Name            string
	Description     string
	FadeIn          time.Duration
	FadeOut         time.Duration
	GainReductionDB float64
	// Format is empty when the preset leaves it to the caller.
	Format string
}

type presetFile struct {
	Name            string  `toml:"name"`
	Description     string  `toml:"description"`
	FadeIn          string  `toml:"fade_in"`
	FadeOut         string  `toml:"fade_out"`
	GainReductionDB float64 `toml:"gain_reduction_db"`
	Format          string  `toml:"format"`
}

// PresetCache holds all decoded presets
type PresetCache struct {
	mu      sync.RWMutex
	presets map[string]Preset
}

var (
	presetCache *PresetCache
	initOnce    sync.Once
)

// GetPresetCache returns the singleton preset cache
func GetPresetCache() *PresetCache {
	initOnce.Do(func() {
		presetCache = &PresetCache{presets: make(map[string]Preset)}
		presetCache.loadAll()
	})
	return presetCache
}

func (pc *PresetCache) loadAll() {
	entries, err := PresetFS.ReadDir("presets")
	if err != nil {
		slog.Error("Failed to read presets directory", slog.Any("error", err))
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".toml" {
			continue
		}
		filePath := path.Join("presets", entry.Name())
		if err := pc.loadFile(filePath); err != nil {
			slog.Error("Failed to load preset", slog.String("file", filePath), slog.Any("error", err))
		}
	}

	slog.Debug("Presets loaded", slog.Int("count", len(pc.presets)))
}

func (pc *PresetCache) loadFile(filePath string) error {
	data, err := PresetFS.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	p, err := ParsePreset(data)
	if err != nil {
		return fmt.Errorf("%s: %w", filePath, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(path.Base(filePath), ".toml")
	}

	pc.mu.Lock()
	pc.presets[p.Name] = p
	pc.mu.Unlock()
	return nil
}

// ParsePreset decodes one TOML preset.
func ParsePreset(data []byte) (Preset, error) {
	var f presetFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return Preset{}, fmt.Errorf("invalid preset: %w", err)
	}

	p := Preset{
		Name:            f.Name,
		Description:     f.Description,
		GainReductionDB: f.GainReductionDB,
		Format:          f.Format,
	}
	var err error
	if p.FadeIn, err = parseDuration(f.FadeIn); err != nil {
		return Preset{}, fmt.Errorf("fade_in: %w", err)
	}
	if p.FadeOut, err = parseDuration(f.FadeOut); err != nil {
		return Preset{}, fmt.Errorf("fade_out: %w", err)
	}
	return p, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}

// Get returns the named preset.
func (pc *PresetCache) Get(name string) (Preset, error) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	p, ok := pc.presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	return p, nil
}

// Names lists presets alphabetically.
func (pc *PresetCache) Names() []string {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	names := make([]string, 0, len(pc.presets))
	for n := range pc.presets {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
