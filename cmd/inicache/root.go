package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/inicache/internal/config"
	"github.com/dshills/inicache/internal/config/layer"
	"github.com/dshills/inicache/internal/config/loader"
	"github.com/dshills/inicache/internal/logging"
)

// envPrefix is the prefix of environment variables read for global flags,
// such as INICACHE_PROJECT_DIR.
const envPrefix = "INICACHE"

// cli holds the state shared by all commands.
type cli struct {
	root   *cobra.Command
	fs     afero.Fs
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer

	overrides []string
	store     *config.Store
}

func newRootCmd(fs afero.Fs, out, errOut io.Writer) *cobra.Command {
	return newCLI(fs, out, errOut).root
}

func newCLI(fs afero.Fs, out, errOut io.Writer) *cli {
	c := &cli{
		fs:     fs,
		v:      viper.New(),
		out:    out,
		errOut: errOut,
	}

	root := &cobra.Command{
		Use:   "inicache",
		Short: "Inspect and edit layered INI configuration",
		Long: `inicache loads configuration documents through the Base, Default,
platform, custom and saved layers, then reads, edits or exports them.

Global flags may also be set through INICACHE_* environment variables
(for example INICACHE_PROJECT_DIR) or a settings file. Overrides in the
form Name:[Section]:Key=Value come from --ini and INICACHE_INI* variables.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.teardown()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.String("engine-dir", "", "engine config directory (Base*.ini)")
	pf.String("project-dir", "", "project config directory (Default*.ini)")
	pf.String("saved-dir", "", "saved config directory, written on flush")
	pf.String("platform", "", "platform name for platform layers")
	pf.String("custom", "", "custom config name (Custom/<name>/Default*.ini)")
	pf.String("working-dir", "", "directory relative paths resolve against")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("settings", "", "YAML settings file providing defaults for these flags")
	pf.Bool("no-write", false, "never write files")
	pf.StringArrayVar(&c.overrides, "ini", nil, "override Name:[Section]:Key=Value (repeatable)")

	root.AddCommand(
		newGetCmd(c),
		newSetCmd(c),
		newSectionsCmd(c),
		newDumpCmd(c),
		newMapCmd(c),
		newWhichCmd(c),
		newSnapshotCmd(c),
		newCvarsCmd(c),
	)
	// PersistentPostRunE only runs after a successful RunE.
	for _, sub := range root.Commands() {
		c.closeOnError(sub)
	}
	c.root = root
	return c
}

// closeOnError makes a failing command still close the store, so the
// teardown flush runs on every path.
func (c *cli) closeOnError(cmd *cobra.Command) {
	run := cmd.RunE
	if run == nil {
		return
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := run(cmd, args); err != nil {
			return errors.Join(err, c.teardown())
		}
		return nil
	}
}

// setup binds flags, environment and settings file, then opens the store.
func (c *cli) setup(cmd *cobra.Command) error {
	for _, name := range []string{
		"engine-dir", "project-dir", "saved-dir", "platform", "custom",
		"working-dir", "log-level", "settings", "no-write",
	} {
		if err := c.v.BindPFlag(name, cmd.Root().PersistentFlags().Lookup(name)); err != nil {
			return err
		}
	}
	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	if path := c.v.GetString("settings"); path != "" {
		c.v.SetFs(c.fs)
		c.v.SetConfigFile(path)
		c.v.SetConfigType("yaml")
		if err := c.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading settings %s: %w", path, err)
		}
	}

	if level := c.v.GetString("log-level"); level != "" {
		logging.SetOutput(c.errOut)
		logging.SetLevel(level)
	}

	store, err := c.openStore()
	if err != nil {
		return err
	}
	c.store = store
	return nil
}

func (c *cli) openStore() (*config.Store, error) {
	raw := append(loader.EnvOverrides(loader.EnvPrefix), c.overrides...)
	overrides, err := layer.ParseOverrides(raw)
	if err != nil {
		return nil, err
	}

	opts := []config.Option{
		config.WithFS(c.fs),
		config.WithHierarchy(layer.Context{
			EngineDir:  c.v.GetString("engine-dir"),
			ProjectDir: c.v.GetString("project-dir"),
			SavedDir:   c.v.GetString("saved-dir"),
			Platform:   c.v.GetString("platform"),
			Custom:     c.v.GetString("custom"),
		}),
		config.WithOverrides(overrides...),
	}
	if wd := c.v.GetString("working-dir"); wd != "" {
		opts = append(opts, config.WithWorkingDir(wd))
	}
	if c.v.GetBool("no-write") {
		opts = append(opts, config.WithType(config.Temporary))
	}
	return config.New(opts...), nil
}

func (c *cli) teardown() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}
