package artifact

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/aqasim81/tiger/internal/change"
)

// Envelope identification.
const (
	Magic   = "tiger"
	Version = 1
)

//nolint:gochecknoglobals // immutable codec modes
var (
	encMode = mustEncMode()
	decMode = mustDecMode()
)

var (
	errMissingHash   = errors.New("missing hash")
	errMissingName   = errors.New("missing project name")
	errDuplicateHash = errors.New("duplicate change hash")
)

type envelope struct {
	Magic   string      `cbor:"1,keyasint"`
	Version uint        `cbor:"2,keyasint"`
	Project wireProject `cbor:"3,keyasint"`
}

type wireProject struct {
	Name    string       `cbor:"1,keyasint"`
	Changes []wireChange `cbor:"2,keyasint"`
}

// Script bodies travel as byte strings: files are not required to be UTF-8
// and must come back byte for byte.
type wireChange struct {
	Timing  string `cbor:"1,keyasint"`
	Type    string `cbor:"2,keyasint"`
	Hash    string `cbor:"3,keyasint"`
	Up      []byte `cbor:"4,keyasint"`
	Down    []byte `cbor:"5,keyasint"`
	UpSum   string `cbor:"6,keyasint"`
	DownSum string `cbor:"7,keyasint"`
}

func mustEncMode() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}

	return em
}

func mustDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(err)
	}

	return dm
}

// Encode serialises pkg deterministically: equal projects give equal bytes.
func Encode(pkg *PackagedProject) ([]byte, error) {
	env := envelope{
		Magic:   Magic,
		Version: Version,
		Project: wireProject{Name: pkg.Name, Changes: make([]wireChange, 0, len(pkg.Changes))},
	}

	for _, c := range pkg.Changes {
		timing, err := c.Timing.MarshalText()
		if err != nil {
			return nil, fmt.Errorf("encoding change %s: %w", c.Hash, err)
		}

		ty, err := c.Type.MarshalText()
		if err != nil {
			return nil, fmt.Errorf("encoding change %s: %w", c.Hash, err)
		}

		env.Project.Changes = append(env.Project.Changes, wireChange{
			Timing:  string(timing),
			Type:    string(ty),
			Hash:    c.Hash,
			Up:      []byte(c.Up),
			Down:    []byte(c.Down),
			UpSum:   change.ContentHash([]byte(c.Up)),
			DownSum: change.ContentHash([]byte(c.Down)),
		})
	}

	data, err := encMode.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encoding artifact: %w", err)
	}

	return data, nil
}

// Decode parses bytes produced by Encode and verifies every body checksum.
func Decode(data []byte) (*PackagedProject, error) {
	var env envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptArtifact, err)
	}

	if env.Magic != Magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorruptArtifact, env.Magic)
	}

	if env.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptArtifact, env.Version)
	}

	if env.Project.Name == "" {
		return nil, fmt.Errorf("%w: %w", ErrCorruptArtifact, errMissingName)
	}

	pkg := &PackagedProject{Name: env.Project.Name, Changes: make([]change.Packaged, 0, len(env.Project.Changes))}
	seen := make(map[string]bool, len(env.Project.Changes))

	for i, w := range env.Project.Changes {
		c, err := fromWire(w)
		if err != nil {
			return nil, fmt.Errorf("%w: change %d: %w", ErrCorruptArtifact, i, err)
		}

		if seen[c.Hash] {
			return nil, fmt.Errorf("%w: change %d: %w %s", ErrCorruptArtifact, i, errDuplicateHash, c.Hash)
		}

		seen[c.Hash] = true
		pkg.Changes = append(pkg.Changes, c)
	}

	return pkg, nil
}

func fromWire(w wireChange) (change.Packaged, error) {
	timing, err := change.ParseTiming(w.Timing)
	if err != nil {
		return change.Packaged{}, err
	}

	ty, err := change.ParseType(w.Type)
	if err != nil {
		return change.Packaged{}, err
	}

	if w.Hash == "" {
		return change.Packaged{}, errMissingHash
	}

	if change.ContentHash(w.Up) != w.UpSum {
		return change.Packaged{}, fmt.Errorf("checksum mismatch in %s up script", w.Hash)
	}

	if change.ContentHash(w.Down) != w.DownSum {
		return change.Packaged{}, fmt.Errorf("checksum mismatch in %s down script", w.Hash)
	}

	return change.Packaged{
		Meta: change.Meta{Timing: timing, Type: ty, Hash: w.Hash},
		Up:   string(w.Up),
		Down: string(w.Down),
	}, nil
}
