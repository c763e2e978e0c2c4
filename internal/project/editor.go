package project

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// DefaultEditor is used when neither VISUAL nor EDITOR is set.
const DefaultEditor = "vim"

// ErrNoEditor indicates the editor command resolved to nothing.
var ErrNoEditor = errors.New("no editor configured")

// Editor opens files for interactive editing and returns when the user is done.
type Editor interface {
	Edit(ctx context.Context, paths ...string) error
}

// CommandEditor runs an external editor command with the paths appended.
type CommandEditor struct {
	Command string // may carry arguments, e.g. "code --wait"
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewCommandEditor builds an editor from VISUAL, then EDITOR, then DefaultEditor,
// attached to the process terminal.
func NewCommandEditor() *CommandEditor {
	cmd := os.Getenv("VISUAL")
	if cmd == "" {
		cmd = os.Getenv("EDITOR")
	}

	if cmd == "" {
		cmd = DefaultEditor
	}

	return &CommandEditor{Command: cmd, Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Edit runs the editor and waits for it to exit.
func (e *CommandEditor) Edit(ctx context.Context, paths ...string) error {
	fields := strings.Fields(e.Command)
	if len(fields) == 0 {
		return ErrNoEditor
	}

	args := append(fields[1:], paths...)

	cmd := exec.CommandContext(ctx, fields[0], args...) //nolint:gosec // operator-chosen editor
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running editor %s: %w", fields[0], err)
	}

	return nil
}
