package change

import (
	"crypto/md5" //nolint:gosec // identity naming, not a security boundary
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

// Meta is the persisted description of a change inside a project document.
type Meta struct {
	Timing Timing `json:"timing"`
	Type   Type   `json:"change_type"`
	Hash   string `json:"hash"`
}

// Change is anything that can hand out its metadata and the script body for
// a direction. Live changes read from disk; packaged changes carry bodies inline.
type Change interface {
	Metadata() Meta
	Content(d Direction) (string, error)
}

// Live is a change backed by a directory holding up.sql and down.sql.
type Live struct {
	Meta
	Dir string // <project root>/<hash>
}

// Metadata returns the change metadata.
func (l Live) Metadata() Meta { return l.Meta }

// ScriptPath returns the path of the script for d.
func (l Live) ScriptPath(d Direction) string {
	return filepath.Join(l.Dir, d.FileName())
}

// Content reads the script for d from disk.
func (l Live) Content(d Direction) (string, error) {
	path := l.ScriptPath(d)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrScriptMissing, path)
		}

		return "", fmt.Errorf("reading change script %s: %w", path, err)
	}

	return string(data), nil
}

// Packaged is a change whose script bodies travel with it.
type Packaged struct {
	Meta
	Up   string
	Down string
}

// Metadata returns the change metadata.
func (p Packaged) Metadata() Meta { return p.Meta }

// Content returns the inline body for d.
func (p Packaged) Content(d Direction) (string, error) {
	switch d {
	case Up:
		return p.Up, nil
	case Down:
		return p.Down, nil
	default:
		return "", fmt.Errorf("%w: %d", ErrInvalidDirection, int(d))
	}
}

// NewIdentity returns a fresh change hash: 32 random bits, MD5-hashed,
// lowercase hex. Uniqueness within a project is the caller's concern.
func NewIdentity() (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generating change identity: %w", err)
	}

	seed := strconv.FormatUint(uint64(binary.BigEndian.Uint32(buf[:])), 10)
	sum := md5.Sum([]byte(seed)) //nolint:gosec // see import

	return hex.EncodeToString(sum[:]), nil
}

// ContentHash returns the SHA-256 hex digest of data.
func ContentHash(data []byte) string {
	h := sha256.Sum256(data)

	return hex.EncodeToString(h[:])
}
