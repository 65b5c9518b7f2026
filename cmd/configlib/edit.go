package main

import (
	"bytes"
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/gopasspw/configlib"
	"github.com/gopasspw/configlib/internal/logging"
)

const defaultEditor = "vi"

// editorRunner opens path in editor and returns once the editor exits.
type editorRunner func(ctx context.Context, editor, path string) error

// runEditor starts editor attached to the terminal. The editor may carry
// arguments, e.g. "code --wait".
func runEditor(ctx context.Context, editor, path string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("stdin is not a terminal, refusing to start an editor")
	}

	argv := strings.Fields(editor)
	if len(argv) == 0 {
		return errors.New("no editor given")
	}

	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run editor %q: %w", editor, err)
	}

	return nil
}

func newEditCmd(opts *rootOptions, run editorRunner) *cobra.Command {
	var editor string

	cmd := &cobra.Command{
		Use:   "edit <name>",
		Short: "Edit a configuration as YAML in an external editor",
		Long: `Edit a configuration as YAML in an external editor.

The editor is taken from --editor, $EDITOR or defaults to vi. The
configuration is only replaced and saved if the file was changed.`,
		Example: `  configlib edit myapp
  configlib edit myapp --editor nano`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.open(args[0])
			if err != nil {
				return err
			}

			if editor == "" {
				editor = os.Getenv("EDITOR")
			}
			if editor == "" {
				editor = defaultEditor
			}

			return edit(cmd.Context(), cmd.OutOrStdout(), cfg, editor, run)
		},
	}

	cmd.Flags().StringVarP(&editor, "editor", "e", "", "Editor to use (default $EDITOR or "+defaultEditor+")")

	return cmd
}

// edit writes a YAML rendition of cfg to a temporary file, lets the user
// change it and replaces the configuration with the result.
func edit(ctx context.Context, out io.Writer, cfg *configlib.Configuration, editor string, run editorRunner) error {
	buf, err := cfg.Serialize(configlib.YAML)
	if err != nil {
		return err
	}

	tmpFile := filepath.Join(os.TempDir(), "configlib-"+uuid.New().String()+configlib.YAML.Extension(true))
	if err := os.WriteFile(tmpFile, buf, 0o600); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmpFile)
	}()

	before := sha1.Sum(buf)

	logging.Debug("starting editor", zap.String("editor", editor), zap.String("file", tmpFile))
	if err := run(ctx, editor, tmpFile); err != nil {
		return err
	}

	edited, err := os.ReadFile(tmpFile)
	if err != nil {
		return fmt.Errorf("failed to read edited file: %w", err)
	}

	if after := sha1.Sum(edited); bytes.Equal(before[:], after[:]) {
		fmt.Fprintln(out, "No changes")

		return nil
	}

	v, err := configlib.YAML.Deserialize(edited)
	if err != nil {
		return fmt.Errorf("unable to parse the edited file: %w", err)
	}

	if err := cfg.Replace(v); err != nil {
		return err
	}
	if err := save(cfg); err != nil {
		return err
	}

	fmt.Fprintln(out, "Configuration updated")

	return nil
}
