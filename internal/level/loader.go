// Package level loads meeting definitions and their viseme timing
// tracks, handing the engine already-parsed in-memory structures.
// Definitions are YAML documents; timing tracks are JSON files produced
// by the speech-synthesis pipeline.
package level

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"SilentButDeadly/internal/game"

	"gopkg.in/yaml.v3"
)

//go:embed assets/*.yaml assets/*.json
var builtin embed.FS

// Library holds every loaded level plus the combined viseme metadata.
type Library struct {
	levels map[string]*game.Level
	order  []string
	tracks game.TrackSet
}

// Level returns a loaded level by id, or nil if unknown.
func (l *Library) Level(id string) *game.Level {
	return l.levels[id]
}

// Levels returns all loaded levels in a stable order.
func (l *Library) Levels() []*game.Level {
	out := make([]*game.Level, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.levels[id])
	}
	return out
}

// Tracks returns the combined viseme metadata of every loaded level.
func (l *Library) Tracks() game.TrackSet {
	return l.tracks
}

// LoadBuiltin loads the levels embedded in the binary.
func LoadBuiltin() (*Library, error) {
	return loadFS(builtin, "assets")
}

// LoadDir loads levels from an external directory, falling back to the
// embedded set when dir is empty.
func LoadDir(dir string) (*Library, error) {
	if dir == "" {
		return LoadBuiltin()
	}
	return loadFS(os.DirFS(dir), ".")
}

func loadFS(fsys fs.FS, root string) (*Library, error) {
	lib := &Library{
		levels: map[string]*game.Level{},
		tracks: game.TrackSet{},
	}

	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("reading level directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(root, name)
		switch {
		case strings.HasSuffix(name, ".yaml"), strings.HasSuffix(name, ".yml"):
			lvl, err := readLevel(fsys, path)
			if err != nil {
				return nil, err
			}
			if _, dup := lib.levels[lvl.ID]; dup {
				return nil, fmt.Errorf("duplicate level id %q in %s", lvl.ID, name)
			}
			lib.levels[lvl.ID] = lvl
			lib.order = append(lib.order, lvl.ID)
		case strings.HasSuffix(name, ".json"):
			// Missing or malformed timing data is a gameplay
			// degradation, never fatal.
			if err := readTracks(fsys, path, lib.tracks); err != nil {
				log.Printf("viseme tracks %s: %v (skipping)", name, err)
			}
		}
	}
	if len(lib.levels) == 0 {
		return nil, fmt.Errorf("no level definitions found")
	}
	return lib, nil
}

func readLevel(fsys fs.FS, path string) (*game.Level, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("reading level file: %w", err)
	}
	var lvl game.Level
	if err := yaml.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("parsing level file %s: %w", path, err)
	}
	// Distinguish "no rules block" from "rules block of zeroes": the
	// former gets the stock tuning, the latter is the author's problem
	// (sanitized later by the engine).
	var probe struct {
		Rules *game.Rules `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &probe); err == nil && probe.Rules == nil {
		lvl.Rules = game.DefaultRules()
	}
	if lvl.ID == "" {
		return nil, fmt.Errorf("level file %s has no id", path)
	}
	if len(lvl.Dialogues) == 0 {
		return nil, fmt.Errorf("level %q has no dialogue items", lvl.ID)
	}
	return &lvl, nil
}

// trackFile is the on-disk shape of one level's timing metadata.
type trackFile struct {
	LevelID string       `json:"level_id"`
	Tracks  []trackEntry `json:"tracks"`
}

type trackEntry struct {
	DialogueIndex int           `json:"dialogue_index"`
	Speaker       string        `json:"speaker"`
	Variant       string        `json:"variant"`
	Markers       []game.Marker `json:"markers"`
}

func readTracks(fsys fs.FS, path string, into game.TrackSet) error {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("reading tracks file: %w", err)
	}
	var file trackFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing tracks file: %w", err)
	}
	if file.LevelID == "" {
		return fmt.Errorf("tracks file has no level_id")
	}
	for _, entry := range file.Tracks {
		key := game.TrackKey{
			LevelID:       file.LevelID,
			DialogueIndex: entry.DialogueIndex,
			SpeakerID:     entry.Speaker,
			Variant:       game.Variant(entry.Variant),
		}
		track := &game.Track{Markers: entry.Markers}
		game.SanitizeTrack(track)
		into[key] = track
	}
	return nil
}
