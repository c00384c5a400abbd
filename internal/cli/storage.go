package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tessera/pkg/config"
	"github.com/matzehuels/tessera/pkg/errors"
	"github.com/matzehuels/tessera/pkg/persist"
)

// storeCommand manages the saved snapshot in the configured backend.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage the saved layout state",
	}

	cmd.AddCommand(c.storeInfoCommand())
	cmd.AddCommand(c.storeExportCommand())
	cmd.AddCommand(c.storeImportCommand())
	cmd.AddCommand(c.storeClearCommand())

	return cmd
}

// withBackend connects the configured backend without loading the state.
func (c *CLI) withBackend(cmd *cobra.Command, fn func(cfg *config.Config, p persist.Store) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	pc, err := cfg.PersistConfig()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "resolve storage path")
	}
	p, err := persist.Open(cmd.Context(), pc)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			c.Logger.Warn("close storage", "err", err)
		}
	}()
	return fn(cfg, p)
}

func (c *CLI) storeInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show where the layout state is saved",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withBackend(cmd, func(cfg *config.Config, p persist.Store) error {
				pc, _ := cfg.PersistConfig()
				printKeyValue("backend", persist.Backend(p))
				printKeyValue("key", cfg.Storage.Key)
				switch pc.Backend {
				case persist.BackendFile, persist.BackendSQLite:
					printKeyValue("path", pc.Path)
				case persist.BackendRedis:
					printKeyValue("addr", pc.Addr)
				case persist.BackendMongo:
					printKeyValue("uri", pc.URI)
				}
				if cfg.Storage.TTL > 0 {
					printKeyValue("ttl", cfg.Storage.TTL.String())
				}

				data, ok, err := p.Get(cmd.Context(), cfg.Storage.Key)
				if err != nil {
					return err
				}
				if !ok {
					printInfo("no saved state")
					return nil
				}
				w, l, sc := rawCounts(data)
				printKeyValue("size", fmt.Sprintf("%d bytes", len(data)))
				printKeyValue("hash", persist.Hash(data)[:12])
				printKeyValue("contents", fmt.Sprintf("%d widgets, %d layouts, %d scenes", w, l, sc))
				return nil
			})
		},
	}
}

func (c *CLI) storeExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the saved snapshot as stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withBackend(cmd, func(cfg *config.Config, p persist.Store) error {
				data, ok, err := p.Get(cmd.Context(), cfg.Storage.Key)
				if err != nil {
					return err
				}
				if !ok {
					return errors.New(errors.ErrCodeNotFound, "no saved state under %q", cfg.Storage.Key)
				}
				if output == "" {
					_, err := stdout.Write(data)
					return err
				}
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				printSuccess("exported %d bytes", len(data))
				printFile(output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func (c *CLI) storeImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <snapshot.json|->",
		Short: "Sanitize a snapshot and save it as the layout state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}
			return c.withBackend(cmd, func(cfg *config.Config, p persist.Store) error {
				st, out, err := sanitize(cfg, data, true, c.Logger)
				if err != nil {
					return err
				}
				if err := p.Set(cmd.Context(), cfg.Storage.Key, out, cfg.Storage.TTL); err != nil {
					return errors.Wrap(errors.ErrCodeStorage, err, "save layout state %q", cfg.Storage.Key)
				}
				printSuccess("imported %s", st)
				return nil
			})
		},
	}
}

func (c *CLI) storeClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the saved layout state",
		Long:  `Delete the saved layout state. The next command starts from the configured defaults.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withBackend(cmd, func(cfg *config.Config, p persist.Store) error {
				if err := p.Delete(cmd.Context(), cfg.Storage.Key); err != nil {
					return errors.Wrap(errors.ErrCodeStorage, err, "clear layout state %q", cfg.Storage.Key)
				}
				printSuccess("cleared saved state %q", cfg.Storage.Key)
				return nil
			})
		},
	}
}
