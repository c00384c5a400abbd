// Package cli implements the tessera command-line interface.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tessera/pkg/buildinfo"
	"github.com/matzehuels/tessera/pkg/config"
	"github.com/matzehuels/tessera/pkg/errors"
	"github.com/matzehuels/tessera/pkg/persist"
	"github.com/matzehuels/tessera/pkg/store"
)

const appName = "tessera"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	backend    string
	scene      string
}

// New creates a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Tessera edits grid dashboard layouts",
		Long:         `Tessera manages widgets, layouts, and scenes of a grid dashboard: split and fill cells, switch layouts per scene, and serve the board over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default: $XDG_CONFIG_HOME/tessera/tessera.toml)")
	root.PersistentFlags().StringVar(&c.backend, "backend", "", "override the storage backend (none, memory, file, redis, mongo, sqlite)")
	root.PersistentFlags().StringVar(&c.scene, "scene", "", "scene to work in (default: the configured initial scene)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.splitCommand())
	root.AddCommand(c.removeCommand())
	root.AddCommand(c.switchCommand())
	root.AddCommand(c.widgetCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.sceneCommand())
	root.AddCommand(c.fixupCommand())
	root.AddCommand(c.sanitizeCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(buildinfo.String())
		},
	}
}

// loadConfig reads the configuration and applies flag overrides.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.backend != "" {
		cfg.Storage.Backend = c.backend
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	c.Logger.Debug("config loaded", "path", c.configPath, "backend", cfg.Storage.Backend)
	return cfg, nil
}

// session is an opened store together with its configuration and backend.
type session struct {
	cfg     *config.Config
	store   *store.Store[config.Widget]
	persist persist.Store
}

// openSession loads the configuration, connects the storage backend, and
// restores the saved layout state.
func (c *CLI) openSession(ctx context.Context) (*session, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	pc, err := cfg.PersistConfig()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "resolve storage path")
	}
	p, err := persist.Open(ctx, pc)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, p, cfg.Storage.Key, cfg.StoreOptions(c.Logger))
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	if c.scene != "" {
		if _, ok := st.Get().Scenes[c.scene]; !ok {
			_ = p.Close()
			return nil, errors.New(errors.ErrCodeNotFound, "scene %q not found", c.scene)
		}
		st.SwitchScene(c.scene)
	}
	c.Logger.Debug("session opened", "backend", persist.Backend(p), "key", cfg.Storage.Key, "state", st.Get())
	return &session{cfg: cfg, store: st, persist: p}, nil
}

// save writes the current state back to the backend.
func (s *session) save(ctx context.Context) error {
	return s.store.Save(ctx, s.persist, s.cfg.Storage.Key, s.cfg.Storage.TTL)
}

func (s *session) Close() error {
	return s.persist.Close()
}

// layoutKey resolves the --layout flag, defaulting to the current layout of
// the current scene.
func (s *session) layoutKey(flag string) (string, error) {
	st := s.store.Get()
	if flag != "" {
		if _, ok := st.Layouts[flag]; !ok {
			return "", errors.New(errors.ErrCodeNotFound, "layout %q not found", flag)
		}
		return flag, nil
	}
	key, _, ok := st.CurrentLayout()
	if !ok {
		return "", errors.New(errors.ErrCodeNotFound, "scene %q has no current layout; pass --layout", st.CurrentScene)
	}
	return key, nil
}

// withSession opens a session, runs fn, and closes the session.
func (c *CLI) withSession(ctx context.Context, fn func(*session) error) error {
	s, err := c.openSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			c.Logger.Warn("close storage", "err", err)
		}
	}()
	return fn(s)
}

// applyEdit runs op against the store, reports the outcome, and saves the
// state when it changed.
func (c *CLI) applyEdit(ctx context.Context, s *session, what string, op func()) error {
	before := s.store.Get()
	op()
	after := s.store.Get()

	if after == before {
		printWarning("%s: nothing changed", what)
		return nil
	}
	if after.Error != "" && after.Error != before.Error {
		s.store.ClearError()
		return errors.FromCode(after.Error)
	}
	if err := s.save(ctx); err != nil {
		return err
	}
	printSuccess("%s", what)
	return nil
}

// stdout is where command output goes; tests replace it.
var stdout io.Writer = os.Stdout
