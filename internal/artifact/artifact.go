// Package artifact turns live projects into immutable packaged artifacts and
// moves them through an object store.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aqasim81/tiger/internal/change"
	"github.com/aqasim81/tiger/internal/project"
	"github.com/aqasim81/tiger/internal/store"
)

// Extension is appended to an artifact name to form its object key.
const Extension = ".bin"

// PackagedProject is a project snapshot with every script body inline.
type PackagedProject struct {
	Name    string
	Changes []change.Packaged
}

// All returns the changes in list order through the common interface.
func (p *PackagedProject) All() []change.Change {
	out := make([]change.Change, len(p.Changes))
	for i, c := range p.Changes {
		out[i] = c
	}

	return out
}

// Key returns the object key for an artifact name.
func Key(name string) string { return name + Extension }

// ExpandName replaces every "%" in template with the project name, so
// "%-1" packaged from TK-123 becomes "TK-123-1".
func ExpandName(template, projectName string) string {
	return strings.ReplaceAll(template, "%", projectName)
}

// Verifier checks one script body before it is packaged.
type Verifier func(sql string) error

// Packager snapshots projects and publishes them.
type Packager struct {
	store  store.ObjectStore
	verify Verifier
	logger *slog.Logger
}

// Option configures a Packager.
type Option func(*Packager)

// WithVerifier checks every SQL script body while packaging.
func WithVerifier(v Verifier) Option {
	return func(p *Packager) { p.verify = v }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Packager) { p.logger = l }
}

// NewPackager creates a Packager that publishes to st.
func NewPackager(st store.ObjectStore, opts ...Option) *Packager {
	p := &Packager{store: st}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}

	return p
}

// Snapshot reads every script of the live project into a PackagedProject
// with the same name and change order.
func (p *Packager) Snapshot(live *project.Project) (*PackagedProject, error) {
	out := &PackagedProject{Name: live.Name, Changes: make([]change.Packaged, 0, len(live.Changes))}

	for _, m := range live.Changes {
		lc := live.Live(m)

		up, err := lc.Content(change.Up)
		if err != nil {
			return nil, err
		}

		down, err := lc.Content(change.Down)
		if err != nil {
			return nil, err
		}

		if err := p.check(m, up, down); err != nil {
			return nil, err
		}

		out.Changes = append(out.Changes, change.Packaged{Meta: m, Up: up, Down: down})
	}

	return out, nil
}

func (p *Packager) check(m change.Meta, up, down string) error {
	if p.verify == nil || m.Type != change.SQL {
		return nil
	}

	for _, s := range []struct {
		d    change.Direction
		body string
	}{{change.Up, up}, {change.Down, down}} {
		if err := p.verify(s.body); err != nil {
			return fmt.Errorf("%w: %s/%s: %w", ErrInvalidScript, m.Hash, s.d.FileName(), err)
		}
	}

	return nil
}

// Package snapshots live and publishes it under name. The name is taken
// as given; template expansion is the caller's choice.
func (p *Packager) Package(ctx context.Context, live *project.Project, name string) (*PackagedProject, error) {
	pkg, err := p.Snapshot(live)
	if err != nil {
		return nil, err
	}

	if err := p.Publish(ctx, name, pkg); err != nil {
		return nil, err
	}

	return pkg, nil
}

// Publish encodes pkg and uploads it under name unless an object already
// exists there. The existence check and the upload are not atomic; a
// failed upload is reported and never retried.
func (p *Packager) Publish(ctx context.Context, name string, pkg *PackagedProject) error {
	data, err := Encode(pkg)
	if err != nil {
		return err
	}

	key := Key(name)

	_, err = p.store.Get(ctx, key)

	switch {
	case err == nil:
		return fmt.Errorf("%w: %s; choose another name, e.g. %%-1", ErrArtifactExists, name)
	case !errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("checking for artifact %s: %w", name, err)
	}

	if err := p.store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("uploading artifact %s: %w", name, err)
	}

	p.logger.Info("published artifact", "artifact", name, "project", pkg.Name, "changes", len(pkg.Changes), "bytes", len(data))

	return nil
}

// Load fetches and decodes the artifact stored under name.
func Load(ctx context.Context, st store.ObjectStore, name string) (*PackagedProject, error) {
	data, err := st.Get(ctx, Key(name))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s: %w", ErrArtifactNotFound, name, err)
		}

		return nil, fmt.Errorf("fetching artifact %s: %w", name, err)
	}

	pkg, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", name, err)
	}

	return pkg, nil
}
