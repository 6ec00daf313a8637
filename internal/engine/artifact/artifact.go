// Package artifact stores compiled lookup tables on disk so a deployment can
// ship precompiled tables instead of compiling the corpus at startup.
package artifact

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/crimson-sun/iconclass/internal/engine/ngram"
	"github.com/crimson-sun/iconclass/internal/model"
)

// Current schema version. Increment when the payload layout changes.
const schemaVersion uint16 = 1

// ErrSchemaMismatch is returned when a file was written by a different schema.
var ErrSchemaMismatch = errors.New("artifact: schema version mismatch")

type payload struct {
	Schema    uint16          `msgpack:"schema"`
	Artifacts model.Artifacts `msgpack:"artifacts"`
}

// Encode writes arts to w.
func Encode(w io.Writer, arts *model.Artifacts) error {
	if err := Validate(arts); err != nil {
		return err
	}
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(payload{Schema: schemaVersion, Artifacts: *arts}); err != nil {
		return fmt.Errorf("artifact: encode: %w", err)
	}
	return nil
}

// Decode reads and validates artifacts from r.
func Decode(r io.Reader) (*model.Artifacts, error) {
	var p payload
	if err := msgpack.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("artifact: decode: %w", err)
	}
	if p.Schema != schemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchemaMismatch, p.Schema, schemaVersion)
	}
	arts := p.Artifacts
	if err := Validate(&arts); err != nil {
		return nil, err
	}
	return &arts, nil
}

// SaveFile writes arts to path atomically via a temp file and rename.
func SaveFile(path string, arts *model.Artifacts) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	if err := Encode(w, arts); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("artifact: flush: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("artifact: %w", err)
	}
	return nil
}

// LoadFile reads artifacts written by SaveFile.
func LoadFile(path string) (*model.Artifacts, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("artifact: %w", err)
	}
	defer f.Close()
	return Decode(bufio.NewReader(f))
}

// Validate checks the structural invariants of compiled artifacts.
func Validate(arts *model.Artifacts) error {
	if arts == nil {
		return errors.New("artifact: nil artifacts")
	}
	if _, err := ngram.ParseVariant(arts.Variant); err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	width := ngram.Variant(arts.Variant).Width()

	vocab := make(map[string]struct{}, len(arts.Vocabulary))
	for _, g := range arts.Vocabulary {
		if len(g) != width {
			return fmt.Errorf("artifact: n-gram %q has %d bytes, want %d", g, len(g), width)
		}
		if _, dup := vocab[g]; dup {
			return fmt.Errorf("artifact: duplicate n-gram %q", g)
		}
		vocab[g] = struct{}{}
	}

	labels := make(map[string]struct{}, len(arts.Labels))
	for _, l := range arts.Labels {
		if _, dup := labels[l]; dup {
			return fmt.Errorf("artifact: duplicate label %q", l)
		}
		labels[l] = struct{}{}
	}

	for i, ex := range arts.Examples {
		if len(ex.Features) != len(arts.Vocabulary) {
			return fmt.Errorf("artifact: example %d has %d features, want %d", i, len(ex.Features), len(arts.Vocabulary))
		}
		if _, ok := labels[ex.Label]; !ok {
			return fmt.Errorf("artifact: example %d has unknown label %q", i, ex.Label)
		}
	}
	return nil
}
