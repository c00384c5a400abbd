// Package config loads the Tessera board definition from TOML.
//
// A configuration file declares the grid, the scenes, and the default
// widgets, layouts, and scene settings that the store's initializers inject
// when persisted state lacks them. It also selects the persistence backend
// and the HTTP listen address.
//
// # File Format
//
//	[grid]
//	x = 10
//	y = 10
//
//	[scenes]
//	keys = ["main"]
//	initial = "main"
//
//	[[widgets]]
//	key = "controller"
//	name = "Controller"
//
//	[layouts.main]
//	instances = [
//	    { widget = "controller", x = 0, y = 0, w = 10, h = 1 },
//	]
//
//	[scene.main]
//	layouts = ["main"]
//	current = "main"
//	required = ["controller"]
//
//	[storage]
//	backend = "file"
//
//	[server]
//	addr = ":8080"
//
// # Paths
//
// The default file is $XDG_CONFIG_HOME/tessera/tessera.toml (falling back
// to ~/.config/tessera/tessera.toml). File storage defaults to
// $XDG_DATA_HOME/tessera (falling back to ~/.local/share/tessera).
package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	terrors "github.com/matzehuels/tessera/pkg/errors"
	"github.com/matzehuels/tessera/pkg/grid"
	"github.com/matzehuels/tessera/pkg/layout"
	"github.com/matzehuels/tessera/pkg/persist"
	"github.com/matzehuels/tessera/pkg/scene"
)

const appName = "tessera"

// Default values applied to fields the file leaves empty.
const (
	DefaultGridSize   = 10
	DefaultScene      = "main"
	DefaultServerAddr = ":8080"
)

// Config is the decoded configuration file.
type Config struct {
	Grid    GridConfig              `toml:"grid"`
	Scenes  ScenesConfig            `toml:"scenes"`
	Widgets []WidgetConfig          `toml:"widgets"`
	Layouts map[string]LayoutConfig `toml:"layouts"`
	Scene   map[string]SceneConfig  `toml:"scene"`
	Storage StorageConfig           `toml:"storage"`
	Server  ServerConfig            `toml:"server"`
}

// GridConfig is the fixed board size.
type GridConfig struct {
	X int `toml:"x"`
	Y int `toml:"y"`
}

// ScenesConfig declares the scene keys.
type ScenesConfig struct {
	Keys    []string `toml:"keys"`
	Initial string   `toml:"initial"`
}

// WidgetConfig is a default widget definition.
type WidgetConfig struct {
	Key  string `toml:"key"`
	Name string `toml:"name"`
	Data string `toml:"data"`
}

// LayoutConfig is a default layout.
type LayoutConfig struct {
	Instances []InstanceConfig `toml:"instances"`
}

// InstanceConfig is one placement in a default layout.
type InstanceConfig struct {
	Widget string `toml:"widget"`
	X      int    `toml:"x"`
	Y      int    `toml:"y"`
	W      int    `toml:"w"`
	H      int    `toml:"h"`
}

// SceneConfig is a default scene.
type SceneConfig struct {
	Layouts    []string `toml:"layouts"`
	Current    string   `toml:"current"`
	Required   []string `toml:"required"`
	Disallowed []string `toml:"disallowed"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend    string        `toml:"backend"`
	Path       string        `toml:"path"`
	Addr       string        `toml:"addr"`
	Password   string        `toml:"password"`
	URI        string        `toml:"uri"`
	Database   string        `toml:"database"`
	Collection string        `toml:"collection"`
	Key        string        `toml:"key"`
	TTL        time.Duration `toml:"ttl"`
}

// ServerConfig configures `tessera serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the demo board: a 10×10 grid with one scene whose only
// layout shows a controller bar, a logo, a page list, and a page.
func Default() *Config {
	c := &Config{
		Grid:   GridConfig{X: DefaultGridSize, Y: DefaultGridSize},
		Scenes: ScenesConfig{Keys: []string{DefaultScene}, Initial: DefaultScene},
		Widgets: []WidgetConfig{
			{Key: "controller", Name: "Controller"},
			{Key: "logo", Name: "Logo"},
			{Key: "page", Name: "Page"},
			{Key: "page-list", Name: "Page List"},
		},
		Layouts: map[string]LayoutConfig{
			"main": {Instances: []InstanceConfig{
				{Widget: "logo", X: 0, Y: 0, W: 2, H: 1},
				{Widget: "controller", X: 2, Y: 0, W: 8, H: 1},
				{Widget: "page-list", X: 0, Y: 1, W: 2, H: 9},
				{Widget: "page", X: 2, Y: 1, W: 8, H: 9},
			}},
		},
		Scene: map[string]SceneConfig{
			DefaultScene: {
				Layouts:  []string{"main"},
				Current:  "main",
				Required: []string{"controller"},
			},
		},
	}
	c.applyDefaults()
	return c
}

// Load reads the configuration at path. An empty path means [DefaultPath];
// a missing file at the default path yields [Default].
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, terrors.Wrap(terrors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Parse decodes configuration from TOML text.
func Parse(data string) (*Config, error) {
	var c Config
	if _, err := toml.Decode(data, &c); err != nil {
		return nil, terrors.Wrap(terrors.ErrCodeInvalidConfig, err, "parse config")
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Grid.X == 0 && c.Grid.Y == 0 {
		c.Grid = GridConfig{X: DefaultGridSize, Y: DefaultGridSize}
	}
	if len(c.Scenes.Keys) == 0 {
		c.Scenes.Keys = []string{DefaultScene}
	}
	if c.Scenes.Initial == "" {
		c.Scenes.Initial = c.Scenes.Keys[0]
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = persist.BackendFile
	}
	if c.Storage.Key == "" {
		c.Storage.Key = persist.DefaultKey
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
}

// Validate checks the grid, scene keys, and cross references between the
// default widgets, layouts, and scenes.
func (c *Config) Validate() error {
	if err := terrors.ValidateGridSize(c.Grid.X, c.Grid.Y); err != nil {
		return err
	}
	if err := terrors.ValidateSceneKeys(c.Scenes.Keys, c.Scenes.Initial); err != nil {
		return err
	}

	widgets := make(map[string]bool, len(c.Widgets))
	for _, w := range c.Widgets {
		if err := terrors.ValidateKey("widget", w.Key); err != nil {
			return err
		}
		if widgets[w.Key] {
			return terrors.New(terrors.ErrCodeInvalidConfig, "duplicate widget %q", w.Key)
		}
		widgets[w.Key] = true
	}

	for key, l := range c.Layouts {
		if err := terrors.ValidateKey("layout", key); err != nil {
			return err
		}
		for i, in := range l.Instances {
			if !widgets[in.Widget] {
				return terrors.New(terrors.ErrCodeInvalidConfig, "layout %q instance %d: unknown widget %q", key, i, in.Widget)
			}
			if in.W <= 0 || in.H <= 0 {
				return terrors.New(terrors.ErrCodeInvalidConfig, "layout %q instance %d: size must be positive", key, i)
			}
		}
	}

	for key, s := range c.Scene {
		if !slices.Contains(c.Scenes.Keys, key) {
			return terrors.New(terrors.ErrCodeInvalidConfig, "scene %q is not declared in [scenes] keys", key)
		}
		for _, lk := range s.Layouts {
			if _, ok := c.Layouts[lk]; !ok {
				return terrors.New(terrors.ErrCodeInvalidConfig, "scene %q: unknown layout %q", key, lk)
			}
		}
		if s.Current != "" && !slices.Contains(s.Layouts, s.Current) {
			return terrors.New(terrors.ErrCodeInvalidConfig, "scene %q: current layout %q is not one of its layouts", key, s.Current)
		}
	}

	switch c.Storage.Backend {
	case persist.BackendNone, persist.BackendMemory, persist.BackendFile,
		persist.BackendRedis, persist.BackendMongo, persist.BackendSQLite:
	default:
		return terrors.New(terrors.ErrCodeInvalidConfig, "unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

// Layout converts a configured layout into the model type.
func (l LayoutConfig) Layout() layout.Layout {
	out := make(layout.Layout, len(l.Instances))
	for i, in := range l.Instances {
		out[i] = layout.Instance{Widget: in.Widget, Dim: grid.Dim{X: in.X, Y: in.Y, W: in.W, H: in.H}}
	}
	return out
}

// Scene converts a configured scene into the model type.
func (s SceneConfig) Scene() scene.Scene {
	out := scene.Scene{
		Layouts:       slices.Clone(s.Layouts),
		CurrentLayout: s.Current,
	}
	if out.Layouts == nil {
		out.Layouts = []string{}
	}
	if out.CurrentLayout == "" && len(out.Layouts) > 0 {
		out.CurrentLayout = out.Layouts[0]
	}
	r := &scene.Restriction{Required: slices.Clone(s.Required), Disallowed: slices.Clone(s.Disallowed)}
	if !r.IsZero() {
		out.Widgets = r
	}
	return out
}

// PersistConfig returns the persistence settings, with the file and
// sqlite paths defaulted to the data directory.
func (c *Config) PersistConfig() (persist.Config, error) {
	pc := persist.Config{
		Backend:    c.Storage.Backend,
		Path:       c.Storage.Path,
		Addr:       c.Storage.Addr,
		Password:   c.Storage.Password,
		URI:        c.Storage.URI,
		Database:   c.Storage.Database,
		Collection: c.Storage.Collection,
	}
	if pc.Path == "" && (pc.Backend == persist.BackendFile || pc.Backend == persist.BackendSQLite) {
		dir, err := DataDir()
		if err != nil {
			return pc, err
		}
		pc.Path = dir
		if pc.Backend == persist.BackendSQLite {
			pc.Path = filepath.Join(dir, appName+".db")
		}
	}
	return pc, nil
}

// DefaultPath returns the default configuration file path.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, appName+".toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, appName+".toml"), nil
}

// DataDir returns the directory for file-based persistence.
func DataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}
