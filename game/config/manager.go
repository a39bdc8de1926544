package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/tile-stack-game/game/engine"
	"github.com/wricardo/tile-stack-game/game/service"
)

var (
	ErrLevelNotFound = service.ErrLevelNotFound
	ErrInvalidLevel  = errors.New("invalid level")
	ErrNoLevelsDir   = errors.New("no levels directory configured")
)

// Level file extensions in lookup order
var levelExtensions = []string{".json", ".yaml", ".yml"}

// Manager handles level loading and caching. Built-in levels are always
// available; files in the levels directory override them by id.
type Manager struct {
	levelsDir    string
	builtin      map[string]*engine.Level
	defaultLevel *engine.Level
	levels       map[string]*engine.Level
	mu           sync.RWMutex
}

// NewManager creates a level manager. An empty levelsDir serves only the
// built-in levels.
func NewManager(levelsDir string) (*Manager, error) {
	if levelsDir != "" {
		if _, err := os.Stat(levelsDir); os.IsNotExist(err) {
			return nil, fmt.Errorf("levels directory does not exist: %s", levelsDir)
		}
	}

	m := &Manager{
		levelsDir: levelsDir,
		builtin:   make(map[string]*engine.Level),
		levels:    make(map[string]*engine.Level),
	}
	for _, level := range DefaultLevels() {
		m.builtin[level.ID] = level
	}

	if err := m.loadDefaultLevel(); err != nil {
		return nil, fmt.Errorf("failed to load default level: %w", err)
	}

	return m, nil
}

// LoadLevel loads a level by id
func (m *Manager) LoadLevel(id string) (*engine.Level, error) {
	id = levelID(id)

	m.mu.RLock()
	if level, exists := m.levels[id]; exists {
		m.mu.RUnlock()
		return level, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if level, exists := m.levels[id]; exists {
		return level, nil
	}

	level, err := m.readLevel(id)
	if errors.Is(err, ErrLevelNotFound) {
		builtin, ok := m.builtin[id]
		if !ok {
			return nil, err
		}
		level = builtin
	} else if err != nil {
		return nil, err
	}

	m.levels[id] = level
	return level, nil
}

// readLevel looks for id.json, id.yaml or id.yml in the levels directory
func (m *Manager) readLevel(id string) (*engine.Level, error) {
	if m.levelsDir == "" || id == "" {
		return nil, ErrLevelNotFound
	}

	for _, ext := range levelExtensions {
		path := filepath.Join(m.levelsDir, id+ext)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read level file: %w", err)
		}
		return ParseLevel(path, data)
	}
	return nil, ErrLevelNotFound
}

// ParseLevel decodes and validates level file contents. The format is
// picked from the file extension; a level without an id takes the file name.
func ParseLevel(path string, data []byte) (*engine.Level, error) {
	var level engine.Level
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &level); err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidLevel, path, err)
		}
	default:
		if err := json.Unmarshal(data, &level); err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidLevel, path, err)
		}
	}

	if level.ID == "" {
		level.ID = levelID(filepath.Base(path))
	}

	if err := engine.ValidateLevel(&level); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLevel, err)
	}
	return &level, nil
}

// ListLevels returns information about every available level, sorted by id
func (m *Manager) ListLevels() ([]*service.LevelInfo, error) {
	files := make(map[string]string)
	if m.levelsDir != "" {
		entries, err := os.ReadDir(m.levelsDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read levels directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !isLevelFile(entry.Name()) {
				continue
			}
			id := levelID(entry.Name())
			if _, dup := files[id]; !dup {
				files[id] = entry.Name()
			}
		}
	}

	ids := make(map[string]bool)
	for id := range m.builtin {
		ids[id] = true
	}
	for id := range files {
		ids[id] = true
	}

	var levels []*service.LevelInfo
	for id := range ids {
		level, err := m.LoadLevel(id)
		if err != nil {
			// Skip invalid levels
			continue
		}
		info := describe(level)
		info.ID = id
		info.Filename = files[id]
		_, builtin := m.builtin[id]
		info.BuiltIn = builtin && info.Filename == ""
		levels = append(levels, info)
	}

	sort.Slice(levels, func(i, j int) bool {
		return levels[i].ID < levels[j].ID
	})
	return levels, nil
}

// GetDefault returns the default level
func (m *Manager) GetDefault() *engine.Level {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultLevel
}

// SetDefault sets the default level by id
func (m *Manager) SetDefault(id string) error {
	level, err := m.LoadLevel(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultLevel = level
	return nil
}

// RefreshCache drops cached levels so that files are read again
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.levels = make(map[string]*engine.Level)
	m.mu.Unlock()

	return m.loadDefaultLevel()
}

func (m *Manager) loadDefaultLevel() error {
	level, err := m.LoadLevel(DefaultLevelID)
	if err != nil {
		// A broken override of the default falls back to the built-in
		level = m.builtin[DefaultLevelID]
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultLevel = level
	return nil
}

// SaveLevel writes a level to the levels directory as JSON
func (m *Manager) SaveLevel(id string, level *engine.Level) error {
	if m.levelsDir == "" {
		return ErrNoLevelsDir
	}
	if level == nil {
		return fmt.Errorf("%w: level is nil", ErrInvalidLevel)
	}

	id = levelID(id)
	if id == "" || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: bad level id %q", ErrInvalidLevel, id)
	}
	if level.ID == "" {
		level.ID = id
	}

	if err := engine.ValidateLevel(level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLevel, err)
	}

	data, err := json.MarshalIndent(level, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal level: %w", err)
	}

	path := filepath.Join(m.levelsDir, id+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write level file: %w", err)
	}

	m.mu.Lock()
	m.levels[id] = level
	m.mu.Unlock()

	return nil
}

// Schema returns the JSON Schema of a level file
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
	}
	s := r.Reflect(&engine.Level{})
	s.Title = "Tile stack level"
	return json.MarshalIndent(s, "", "  ")
}

func describe(level *engine.Level) *service.LevelInfo {
	capacity := level.SlotCapacity
	if capacity == 0 {
		capacity = engine.DefaultSlotCapacity
	}
	return &service.LevelInfo{
		ID:           level.ID,
		Name:         level.Name,
		Description:  level.Description,
		CardTypes:    len(level.CardTypes),
		CardsPerType: level.CardsPerType,
		TotalCards:   level.TotalCards(),
		Layers:       len(level.Layers),
		SlotCapacity: capacity,
	}
}

func isLevelFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range levelExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// levelID strips a known level file extension
func levelID(name string) string {
	name = strings.TrimSpace(name)
	if isLevelFile(name) {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}
