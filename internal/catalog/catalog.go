package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

// Catalog is the loaded, immutable rules data set.
type Catalog struct {
	weapons   map[string]WeaponDef
	spells    map[string]SpellDef
	maneuvers map[string]ManeuverDef
	feats     map[string]FeatDef
	classes   map[string]ClassDef
	races     map[string]RaceDef
	monsters  map[string]MonsterDef
}

// Data is the on-disk catalog shape.
type Data struct {
	Weapons   []WeaponDef   `json:"weapons" yaml:"weapons"`
	Spells    []SpellDef    `json:"spells" yaml:"spells"`
	Maneuvers []ManeuverDef `json:"maneuvers" yaml:"maneuvers"`
	Feats     []FeatDef     `json:"feats" yaml:"feats"`
	Classes   []ClassDef    `json:"classes" yaml:"classes"`
	Races     []RaceDef     `json:"races" yaml:"races"`
	Monsters  []MonsterDef  `json:"monsters" yaml:"monsters"`
}

// Load reads a catalog file. YAML is selected by file extension, anything
// else parses as JSON. Entries without an id are rejected so lookups can
// never alias.
func Load(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}
	var rc Data
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &rc); err != nil {
			return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &rc); err != nil {
			return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
		}
	}
	return New(rc)
}

// New indexes the given data set. Entries without an id are rejected.
func New(rc Data) (*Catalog, error) {
	c := &Catalog{
		weapons:   map[string]WeaponDef{},
		spells:    map[string]SpellDef{},
		maneuvers: map[string]ManeuverDef{},
		feats:     map[string]FeatDef{},
		classes:   map[string]ClassDef{},
		races:     map[string]RaceDef{},
		monsters:  map[string]MonsterDef{},
	}
	for _, w := range rc.Weapons {
		if w.ID == "" {
			return nil, fmt.Errorf("catalog: weapon entry missing 'id'")
		}
		c.weapons[w.ID] = w
	}
	for _, s := range rc.Spells {
		if s.ID == "" {
			return nil, fmt.Errorf("catalog: spell entry missing 'id'")
		}
		c.spells[s.ID] = s
	}
	for _, m := range rc.Maneuvers {
		if m.ID == "" {
			return nil, fmt.Errorf("catalog: maneuver entry missing 'id'")
		}
		c.maneuvers[m.ID] = m
	}
	for _, f := range rc.Feats {
		if f.ID == "" {
			return nil, fmt.Errorf("catalog: feat entry missing 'id'")
		}
		c.feats[f.ID] = f
	}
	for _, cl := range rc.Classes {
		if cl.ID == "" {
			return nil, fmt.Errorf("catalog: class entry missing 'id'")
		}
		c.classes[cl.ID] = cl
	}
	for _, r := range rc.Races {
		if r.ID == "" {
			return nil, fmt.Errorf("catalog: race entry missing 'id'")
		}
		c.races[r.ID] = r
	}
	for _, m := range rc.Monsters {
		if m.ID == "" {
			return nil, fmt.Errorf("catalog: monster entry missing 'id'")
		}
		c.monsters[m.ID] = m
	}
	return c, nil
}

// Weapon returns the weapon definition for id.
func (c *Catalog) Weapon(id string) (WeaponDef, error) {
	w, ok := c.weapons[id]
	if !ok {
		return WeaponDef{}, fmt.Errorf("%w: weapon %q", ErrNotFound, id)
	}
	return w, nil
}

// Spell returns the spell definition for id.
func (c *Catalog) Spell(id string) (SpellDef, error) {
	s, ok := c.spells[id]
	if !ok {
		return SpellDef{}, fmt.Errorf("%w: spell %q", ErrNotFound, id)
	}
	return s, nil
}

// Maneuver returns the maneuver definition for id.
func (c *Catalog) Maneuver(id string) (ManeuverDef, error) {
	m, ok := c.maneuvers[id]
	if !ok {
		return ManeuverDef{}, fmt.Errorf("%w: maneuver %q", ErrNotFound, id)
	}
	return m, nil
}

// Feat returns the origin-feat definition for id.
func (c *Catalog) Feat(id string) (FeatDef, error) {
	f, ok := c.feats[id]
	if !ok {
		return FeatDef{}, fmt.Errorf("%w: feat %q", ErrNotFound, id)
	}
	return f, nil
}

// Class returns the class definition for id.
func (c *Catalog) Class(id string) (ClassDef, error) {
	cl, ok := c.classes[id]
	if !ok {
		return ClassDef{}, fmt.Errorf("%w: class %q", ErrNotFound, id)
	}
	return cl, nil
}

// Race returns the race definition for id.
func (c *Catalog) Race(id string) (RaceDef, error) {
	r, ok := c.races[id]
	if !ok {
		return RaceDef{}, fmt.Errorf("%w: race %q", ErrNotFound, id)
	}
	return r, nil
}

// Monster returns the monster definition for id.
func (c *Catalog) Monster(id string) (MonsterDef, error) {
	m, ok := c.monsters[id]
	if !ok {
		return MonsterDef{}, fmt.Errorf("%w: monster %q", ErrNotFound, id)
	}
	return m, nil
}

// Monsters returns every monster definition, for listing endpoints.
func (c *Catalog) Monsters() []MonsterDef {
	out := make([]MonsterDef, 0, len(c.monsters))
	for _, m := range c.monsters {
		out = append(out, m)
	}
	return out
}

// Store lazily loads and caches a catalog file. Concurrent first loads are
// deduplicated through singleflight so the file is parsed once even when
// several requests race at startup.
type Store struct {
	path  string
	group singleflight.Group

	mu     sync.RWMutex
	loaded *Catalog
}

// NewStore returns a Store for the catalog file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Get returns the loaded catalog, loading it on first use.
func (s *Store) Get() (*Catalog, error) {
	s.mu.RLock()
	if s.loaded != nil {
		c := s.loaded
		s.mu.RUnlock()
		return c, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.group.Do(s.path, func() (any, error) {
		c, err := Load(s.path)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.loaded = c
		s.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Catalog), nil
}

// Reload drops the cached catalog so the next Get re-reads the file.
func (s *Store) Reload() {
	s.mu.Lock()
	s.loaded = nil
	s.mu.Unlock()
}
