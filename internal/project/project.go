package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aqasim81/tiger/internal/change"
)

// FileName is the project document inside a project directory.
const FileName = "project.json"

// reservedNames are directives the CLI claims before project names.
var reservedNames = map[string]bool{ //nolint:gochecknoglobals // lookup table
	"init": true, "up": true, "down": true, "help": true, "completion": true, "version": true,
}

// Project is a named, ordered collection of changes stored under Root.
type Project struct {
	Name    string        `json:"name"`
	Changes []change.Meta `json:"changes"`

	root string
}

// Root returns the project directory.
func (p *Project) Root() string { return p.root }

// ChangeDir returns the directory holding the scripts of the change with hash.
func (p *Project) ChangeDir(hash string) string {
	return filepath.Join(p.root, hash)
}

// Live returns the disk-backed form of m.
func (p *Project) Live(m change.Meta) change.Live {
	return change.Live{Meta: m, Dir: p.ChangeDir(m.Hash)}
}

// LiveChanges returns every change in list order as a disk-backed change.
func (p *Project) LiveChanges() []change.Change {
	out := make([]change.Change, 0, len(p.Changes))
	for _, m := range p.Changes {
		out = append(out, p.Live(m))
	}

	return out
}

// Workspace is the directory holding every project. It is always explicit;
// nothing here consults the process working directory.
type Workspace struct {
	Root string
}

// NewWorkspace returns a Workspace rooted at root.
func NewWorkspace(root string) *Workspace {
	return &Workspace{Root: root}
}

// Dir returns the storage root of the named project.
func (w *Workspace) Dir(name string) string {
	return filepath.Join(w.Root, name)
}

// ValidateName rejects names that are empty, escape the workspace, or
// collide with a CLI directive.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	case name == "." || name == ".." || strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q must be a single path element", ErrInvalidName, name)
	case reservedNames[name]:
		return fmt.Errorf("%w: %q is a reserved command", ErrInvalidName, name)
	}

	return nil
}

// Init creates a new empty project and writes its document.
func (w *Workspace) Init(name string) (*Project, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	dir := w.Dir(name)

	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrProjectExists, dir)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("checking project directory %s: %w", dir, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating project directory %s: %w", dir, err)
	}

	p := &Project{Name: name, Changes: []change.Meta{}, root: dir}
	if err := w.Save(p); err != nil {
		return nil, err
	}

	return p, nil
}

// Load reads the named project document.
func (w *Workspace) Load(name string) (*Project, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	path := filepath.Join(w.Dir(name), FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (run init first)", ErrProjectNotFound, name)
		}

		return nil, fmt.Errorf("reading project file %s: %w", path, err)
	}

	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptProject, path, err)
	}

	if err := normalize(&p, name); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptProject, path, err)
	}

	p.root = w.Dir(name)

	return &p, nil
}

// Save overwrites the project document with the in-memory state.
func (w *Workspace) Save(p *Project) error {
	path := filepath.Join(w.Dir(p.Name), FileName)

	if p.Changes == nil {
		p.Changes = []change.Meta{}
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding project %s: %w", p.Name, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing project file %s: %w", path, err)
	}

	return nil
}

// normalize applies document defaults and checks the model invariants.
func normalize(p *Project, name string) error {
	if p.Name != name {
		return fmt.Errorf("document names project %q, expected %q", p.Name, name)
	}

	seen := make(map[string]bool, len(p.Changes))

	for i := range p.Changes {
		m := &p.Changes[i]

		if m.Type == 0 {
			m.Type = change.SQL
		}

		if m.Timing == 0 {
			return fmt.Errorf("change %d has no timing", i)
		}

		if m.Hash == "" {
			return fmt.Errorf("change %d has no hash", i)
		}

		if seen[m.Hash] {
			return fmt.Errorf("hash %s appears more than once", m.Hash)
		}

		seen[m.Hash] = true
	}

	if p.Changes == nil {
		p.Changes = []change.Meta{}
	}

	return nil
}
