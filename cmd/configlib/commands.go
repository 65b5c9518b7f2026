package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gopasspw/configlib"
	"github.com/gopasspw/configlib/internal/logging"
	"github.com/gopasspw/configlib/internal/version"
)

var errNoSuchKey = errors.New("no such key")

// rootOptions holds the persistent flags shared by all commands.
type rootOptions struct {
	logLevel string
	create   bool
}

func newRootCmd(info version.Info, editor editorRunner) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "configlib",
		Short: "Inspect and edit configlib configurations",
		Long: `A command line utility for configurations managed by configlib.

Configurations are addressed by name and their values by dotted keys
(e.g. database.host). Unless --create is given, commands refuse to work
on configurations that do not exist yet.`,
		Version:       info.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Initialize(opts.logLevel)
		},
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error), defaults to $"+logging.LogLevelEnvVar)
	rootCmd.PersistentFlags().BoolVar(&opts.create, "create", false, "Create the configuration and missing keys if necessary")

	rootCmd.AddCommand(
		newViewCmd(opts),
		newSetCmd(opts),
		newUnsetCmd(opts),
		newKeysCmd(opts),
		newImportCmd(opts),
		newExportCmd(opts),
		newEditCmd(opts, editor),
		newPathCmd(),
		newVersionCmd(info),
	)

	return rootCmd
}

// open loads the named configuration. Unless --create is set the backing
// file must already exist.
func (o *rootOptions) open(name string) (*configlib.Configuration, error) {
	cfg, err := configlib.New(name)
	if err != nil {
		return nil, err
	}

	if !o.create {
		if _, err := os.Stat(cfg.Path()); err != nil {
			return nil, fmt.Errorf("configuration %q does not exist (%s), use --create to create it", cfg.Name(), cfg.Path())
		}
	}

	logging.Debug("configuration opened",
		zap.String("name", cfg.Name()),
		zap.String("path", cfg.Path()),
	)

	return cfg, nil
}

func save(cfg *configlib.Configuration) error {
	if err := cfg.Save(); err != nil {
		logging.Error("failed to save configuration", zap.String("path", cfg.Path()), zap.Error(err))

		return err
	}
	logging.Info("configuration saved", zap.String("path", cfg.Path()))

	return nil
}

func checkKey(key string) error {
	if !configlib.ValidKey(key) {
		return fmt.Errorf("%w: %q", configlib.ErrInvalidKey, key)
	}

	return nil
}

func newViewCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "view <name> [property]",
		Short: "Print a configuration or one of its properties as YAML",
		Example: `  # Show the whole configuration
  configlib view myapp

  # Show a single property
  configlib view myapp database.host`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.open(args[0])
			if err != nil {
				return err
			}

			v := cfg.Data()
			if len(args) == 2 {
				if err := checkKey(args[1]); err != nil {
					return err
				}
				if !cfg.Exists(args[1]) {
					return fmt.Errorf("%w: %s", errNoSuchKey, args[1])
				}
				v = cfg.Get(args[1], configlib.Null())
			}

			buf, err := configlib.YAML.Serialize(v)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(buf)

			return err
		},
	}
}

func newSetCmd(opts *rootOptions) *cobra.Command {
	var noCast bool

	cmd := &cobra.Command{
		Use:   "set <name> <property> <value>",
		Short: "Set a property and save the configuration",
		Long: `Set a property and save the configuration.

The value is interpreted like a YAML scalar, i.e. true and false become
booleans, 3 an integer and 1.5 a float. Use --no-cast to store the value
as a string. Without --create the property must already exist.`,
		Example: `  configlib set myapp database.port 3306
  configlib set myapp database.port 3306 --no-cast
  configlib set myapp server.tls.enabled true --create`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[1]
			if err := checkKey(key); err != nil {
				return err
			}

			cfg, err := opts.open(args[0])
			if err != nil {
				return err
			}

			v := configlib.String(args[2])
			if !noCast {
				v = configlib.ParseScalar(args[2])
			}

			if !cfg.Set(key, v, opts.create) {
				return fmt.Errorf("%w: %s, use --create to create it", errNoSuchKey, key)
			}
			logging.Debug("property set", zap.String("key", key), zap.Stringer("value", v))

			return save(cfg)
		},
	}

	cmd.Flags().BoolVar(&noCast, "no-cast", false, "Store the value as a string")

	return cmd
}

func newUnsetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unset <name> <property>",
		Short: "Remove a property and save the configuration",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkKey(args[1]); err != nil {
				return err
			}

			cfg, err := opts.open(args[0])
			if err != nil {
				return err
			}

			if !cfg.Unset(args[1]) {
				return fmt.Errorf("%w: %s", errNoSuchKey, args[1])
			}

			return save(cfg)
		},
	}
}

func newKeysCmd(opts *rootOptions) *cobra.Command {
	var values bool

	cmd := &cobra.Command{
		Use:   "keys <name> [pattern]",
		Short: "List the keys of a configuration",
		Long: `List the sorted keys of a configuration.

The optional pattern is a glob where * matches within a key segment and **
across segments.`,
		Example: `  configlib keys myapp
  configlib keys myapp 'database.*'
  configlib keys myapp '**.port' --values`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.open(args[0])
			if err != nil {
				return err
			}

			var pattern string
			if len(args) == 2 {
				pattern = args[1]
			}

			var lines []string
			if values {
				lines, err = cfg.KVList(pattern, "=")
			} else {
				lines, err = cfg.List(pattern)
			}
			if err != nil {
				return err
			}

			for _, l := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), l)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&values, "values", false, "Print key=value pairs")

	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <name> <file>",
		Short: "Merge a JSON, YAML or serialized file into a configuration",
		Long: `Merge a file into a configuration and save it.

The format is detected from the extension (.json, .conf, .yml, .yaml, .ser).
Nested mappings are merged key by key, everything else is replaced.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.open(args[0])
			if err != nil {
				return err
			}

			if err := cfg.Import(args[1]); err != nil {
				return err
			}
			if err := save(cfg); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration '%s' imported from '%s'\n", cfg.Name(), args[1])

			return nil
		},
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		noExt  bool
	)

	cmd := &cobra.Command{
		Use:   "export <name> [file]",
		Short: "Write a configuration to a file",
		Long: `Write a configuration to a file in the given format.

The file defaults to <name> plus the extension of the format (<name>.yml
for YAML). The extension of the format is appended
unless the file already has one of the same format or --no-ext is set.`,
		Example: `  configlib export myapp
  configlib export myapp backup --format json-pretty`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := configlib.ParseFormat(format)
			if err != nil {
				return fmt.Errorf("%w, use one of %s", err, formatList())
			}

			cfg, err := opts.open(args[0])
			if err != nil {
				return err
			}

			out := cfg.Name() + f.Extension(true)
			if len(args) == 2 {
				out = args[1]
			}

			p, err := cfg.Export(out, f, !noExt)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration '%s' exported to '%s'\n", cfg.Name(), p)

			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", configlib.YAML.String(), "Output format ("+formatList()+")")
	cmd.Flags().BoolVar(&noExt, "no-ext", false, "Do not append the file extension")

	return cmd
}

func newPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path <name>",
		Short: "Print the backing file of a configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configlib.New(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cfg.Path())

			return nil
		},
	}
}

func newVersionCmd(info version.Info) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "configlib %s\n", info)
		},
	}
}

func formatList() string {
	names := make([]string, 0, len(configlib.Formats()))
	for _, f := range configlib.Formats() {
		names = append(names, f.String())
	}

	return strings.Join(names, ", ")
}
