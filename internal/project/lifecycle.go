package project

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/aqasim81/tiger/internal/change"
)

const maxIdentityAttempts = 8

// identityFunc generates change hashes; swapped in tests to force collisions.
type identityFunc func() (string, error)

// Manager performs the lifecycle operations on loaded projects. Every
// mutating operation rewrites the whole project document on success.
type Manager struct {
	ws          *Workspace
	logger      *slog.Logger
	newIdentity identityFunc
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for filesystem side effects.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager returns a Manager operating inside ws.
func NewManager(ws *Workspace, opts ...Option) *Manager {
	m := &Manager{ws: ws, newIdentity: change.NewIdentity}

	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}

	return m
}

// Add creates a change directory with empty up.sql and down.sql, appends the
// change to p and persists p.
func (m *Manager) Add(p *Project, timing change.Timing, ty change.Type) (change.Meta, error) {
	if _, err := timing.MarshalText(); err != nil {
		return change.Meta{}, err
	}

	if _, err := ty.MarshalText(); err != nil {
		return change.Meta{}, err
	}

	hash, err := m.uniqueIdentity(p)
	if err != nil {
		return change.Meta{}, err
	}

	meta := change.Meta{Timing: timing, Type: ty, Hash: hash}
	dir := p.ChangeDir(hash)

	// Mkdir, not MkdirAll: an existing directory must never be reused.
	if err := os.Mkdir(dir, 0o755); err != nil {
		return change.Meta{}, fmt.Errorf("creating change directory %s: %w", dir, err)
	}

	live := p.Live(meta)
	for _, d := range []change.Direction{change.Up, change.Down} {
		path := live.ScriptPath(d)
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return change.Meta{}, fmt.Errorf("creating change script %s: %w", path, err)
		}

		m.logger.Debug("created change script", "path", path)
	}

	p.Changes = append(p.Changes, meta)

	if err := m.ws.Save(p); err != nil {
		return change.Meta{}, err
	}

	m.logger.Info("added change", "project", p.Name, "hash", hash, "timing", timing.String())

	return meta, nil
}

// uniqueIdentity draws identities until one differs from every hash in p.
func (m *Manager) uniqueIdentity(p *Project) (string, error) {
	for range maxIdentityAttempts {
		hash, err := m.newIdentity()
		if err != nil {
			return "", err
		}

		taken := slices.ContainsFunc(p.Changes, func(c change.Meta) bool { return c.Hash == hash })
		if !taken {
			return hash, nil
		}

		m.logger.Warn("change hash collision, regenerating", "project", p.Name, "hash", hash)
	}

	return "", fmt.Errorf("%w after %d attempts", ErrIdentityExhausted, maxIdentityAttempts)
}

// Remove deletes the change matching prefix from disk and from p, then persists p.
func (m *Manager) Remove(p *Project, prefix string) (change.Meta, error) {
	res, err := p.Find(prefix)
	if err != nil {
		return change.Meta{}, err
	}

	dir := p.ChangeDir(res.Change.Hash)
	if err := os.RemoveAll(dir); err != nil {
		return change.Meta{}, fmt.Errorf("removing change directory %s: %w", dir, err)
	}

	p.Changes = slices.Delete(p.Changes, res.Index, res.Index+1)

	if err := m.ws.Save(p); err != nil {
		return change.Meta{}, err
	}

	m.logger.Info("removed change", "project", p.Name, "hash", res.Change.Hash)

	return res.Change, nil
}

// Clear deletes every change directory, empties p and persists it. It
// returns the hashes that were removed.
func (m *Manager) Clear(p *Project) ([]string, error) {
	removed := make([]string, 0, len(p.Changes))

	for _, c := range p.Changes {
		dir := p.ChangeDir(c.Hash)
		if err := os.RemoveAll(dir); err != nil {
			return removed, fmt.Errorf("removing change directory %s: %w", dir, err)
		}

		removed = append(removed, c.Hash)
	}

	p.Changes = []change.Meta{}

	if err := m.ws.Save(p); err != nil {
		return removed, err
	}

	m.logger.Info("cleared project", "project", p.Name, "removed", len(removed))

	return removed, nil
}

// Edit opens the up and down scripts of the change matching prefix in editor.
// A missing script is recreated empty first so the editor always gets both files.
func (m *Manager) Edit(ctx context.Context, p *Project, prefix string, editor Editor) error {
	res, err := p.Find(prefix)
	if err != nil {
		return err
	}

	live := p.Live(res.Change)
	up, down := live.ScriptPath(change.Up), live.ScriptPath(change.Down)

	for _, path := range []string{up, down} {
		if err := ensureFile(path); err != nil {
			return err
		}
	}

	if err := editor.Edit(ctx, up, down); err != nil {
		return fmt.Errorf("editing change %s: %w", res.Change.Hash, err)
	}

	return nil
}

func ensureFile(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking change script %s: %w", path, err)
	}

	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return fmt.Errorf("creating change script %s: %w", path, err)
	}

	return nil
}

const (
	timingWidth = 10
	typeWidth   = 10
	hashWidth   = 32
)

// List writes the change table of p in list order. It never mutates p.
func List(w io.Writer, p *Project) {
	line := fmt.Sprintf("|-%s-|-%s-|-%s-|",
		strings.Repeat("-", timingWidth), strings.Repeat("-", typeWidth), strings.Repeat("-", hashWidth))

	fmt.Fprintln(w, "> Current changes in project:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "| %-*s | %-*s | %-*s |\n", timingWidth, "Timing", typeWidth, "Type", hashWidth, "Hash")
	fmt.Fprintln(w, line)

	for _, c := range p.Changes {
		fmt.Fprintf(w, "| %-*s | %-*s | %-*s |\n",
			timingWidth, c.Timing, typeWidth, c.Type, hashWidth, c.Hash)
	}

	fmt.Fprintln(w, line)
	fmt.Fprintln(w)
}
