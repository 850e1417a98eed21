package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/inicache/internal/config"
	"github.com/dshills/inicache/internal/config/ini"
	"github.com/dshills/inicache/internal/config/registry"
)

// load makes sure the named document is cached. Getters only read cached
// documents.
func (c *cli) load(name string) {
	c.store.GetOrLoadDocument(name)
}

func newGetCmd(c *cli) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "get <document> <section> <key>",
		Short: "Print the value of a key",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, section, key := args[0], args[1], args[2]
			c.load(name)

			var values []string
			if all {
				values, _ = c.store.GetArray(section, key, name)
			} else if v, ok := c.store.GetString(section, key, name); ok {
				values = []string{v}
			}
			if len(values) == 0 {
				return fmt.Errorf("%s: [%s] %s not set", name, section, key)
			}
			for _, v := range values {
				fmt.Fprintln(c.out, v)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "print every value of an array key")
	return cmd
}

func newSetCmd(c *cli) *cobra.Command {
	var single bool
	cmd := &cobra.Command{
		Use:   "set <document> <section> <key> <value>...",
		Short: "Set a key and write the saved file",
		Long: `Set replaces every value of the key. Several values make an array key,
one line each, unless --single-line joins them with spaces.

Values are written to the saved file, which is only read back while the
document's Default file exists. Setting a key of a document without one
(for example an ad-hoc name while --project-dir is set) does not survive
to the next run.`,
		Args: cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, section, key, values := args[0], args[1], args[2], args[3:]
			if !ini.ValidKey(key) {
				return fmt.Errorf("invalid key %q", key)
			}
			c.load(name)

			switch {
			case single:
				c.store.SetSingleLineArray(section, key, values, name)
			case len(values) == 1:
				c.store.SetString(section, key, values[0], name)
			default:
				c.store.SetArray(section, key, values, name)
			}
			return c.store.Flush(false, name)
		},
	}
	cmd.Flags().BoolVar(&single, "single-line", false, "store the values on one line")
	return cmd
}

func newSectionsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "sections <document>",
		Short: "List the sections of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.load(args[0])
			names, _ := c.store.GetSectionNames(args[0])
			for _, n := range names {
				fmt.Fprintln(c.out, n)
			}
			return nil
		},
	}
}

func newDumpCmd(c *cli) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "dump <document>",
		Short: "Print a merged document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := config.ParseFormat(format)
			if err != nil {
				return err
			}
			c.load(args[0])
			return c.store.Dump(c.out, args[0], f)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(config.FormatINI), "output format: ini, json, yaml, toml")
	return cmd
}

func newMapCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "map <document> <section> <key-one> <key-n>",
		Short: "Print a 1-to-N section grouped by its key-one values",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			c.load(name)
			groups := c.store.Parse1ToNSectionOfStrings(args[1], args[2], args[3], name)

			keys := make([]string, 0, len(groups))
			for k := range groups {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(c.out, "%s: %s\n", k, strings.Join(groups[k], ", "))
			}
			return nil
		},
	}
}

func newWhichCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "which <document> <section> <key>",
		Short: "Show which layer provides a key",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, section, key := args[0], args[1], args[2]
			c.load(name)
			l, ok := c.store.WhichLayer(name, section, key)
			if !ok {
				return fmt.Errorf("%s: [%s] %s not set", name, section, key)
			}
			path := l.Path
			if path == "" {
				path = "-"
			}
			fmt.Fprintf(c.out, "%s\t%s\t%s\n", l.Name, l.Source, path)
			return nil
		},
	}
}

func newSnapshotCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <output> <document>...",
		Short: "Write a bootstrap snapshot of the given documents",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args[1:] {
				c.load(name)
			}
			return c.store.SaveStateForBootstrap(args[0])
		},
	}
}

func newCvarsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "cvars",
		Short: "Apply Engine console variables and list the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.load("Engine")
			reg := registry.NewWithDefaults()
			c.store.LoadConsoleVariables(reg)
			for _, v := range reg.All() {
				value, _ := reg.Value(v.Name)
				fmt.Fprintf(c.out, "%s = %s (%s)\n", v.Name, registry.Format(value), reg.Source(v.Name))
			}
			return nil
		},
	}
}
