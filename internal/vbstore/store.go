// Package vbstore implements the Checkpoint Store: the
// content-addressed on-disk layout, meta.toml sidecar, and the index that
// tracks which checkpoint is active per unit.
package vbstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/vibesafe/vibesafe/internal/vberrors"
	"github.com/vibesafe/vibesafe/internal/vbhash"
	"github.com/vibesafe/vibesafe/internal/vbinvariant"
)

// Store is rooted at <root>, laid out as cache/, checkpoints/<unit_id>/<chk>/, and index.toml.
type Store struct {
	checkpointsDir string
	indexFile      string
	cacheDir       string
}

// New constructs a Store rooted at root. root is created lazily by write
// operations; Store never creates it eagerly.
func New(root string) *Store {
	return NewWithPaths(
		filepath.Join(root, "checkpoints"),
		filepath.Join(root, "index.toml"),
		filepath.Join(root, "cache"),
	)
}

// NewWithPaths constructs a Store with each location configured
// independently, the way vibesafe.toml's [paths] section spells them out.
func NewWithPaths(checkpointsDir, indexFile, cacheDir string) *Store {
	return &Store{checkpointsDir: checkpointsDir, indexFile: indexFile, cacheDir: cacheDir}
}

func splitUnitID(unitID string) (modulePath, unitName string) {
	idx := strings.LastIndex(unitID, "/")
	if idx < 0 {
		return "", unitID
	}
	return unitID[:idx], unitID[idx+1:]
}

func (s *Store) unitDir(unitID string) string {
	modulePath, unitName := splitUnitID(unitID)
	return filepath.Join(s.checkpointsDir, modulePath, unitName)
}

func (s *Store) checkpointDir(unitID string, chk vbhash.Digest) string {
	return filepath.Join(s.unitDir(unitID), chk.String())
}

func (s *Store) indexPath() string {
	return s.indexFile
}

// CachePath is the path the Provider Client's content-addressed cache
// lives under.
func (s *Store) CachePath() string {
	return s.cacheDir
}

// Write writes implBytes + meta under the checkpoint directory derived
// from specHash, promptHash, and implBytes's own hash, verifying the
// write by reading the bytes back. It is
// idempotent: writing the same bytes twice resolves to the same checkpoint
// directory with the same impl bytes; meta.toml is rewritten from the
// second call's meta.
func (s *Store) Write(unitID string, specHash, promptHash vbhash.Digest, implBytes []byte, meta Meta, ext string) (string, error) {
	vbinvariant.Precondition(unitID != "", "Write: unitID must not be empty")
	vbinvariant.Precondition(ext != "", "Write: ext must not be empty")

	implHash := vbhash.ComputeImplHash(implBytes)
	chk := vbhash.ComputeCheckpointHash(specHash, promptHash, implHash)

	dir := s.checkpointDir(unitID, chk)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &vberrors.StorageError{Kind: vberrors.WriteFailed, UnitID: unitID, Detail: err.Error()}
	}

	implPath := filepath.Join(dir, "impl."+ext)
	if err := writeAtomic(implPath, implBytes); err != nil {
		return "", &vberrors.StorageError{Kind: vberrors.WriteFailed, UnitID: unitID, Detail: err.Error()}
	}

	// Re-reading the bytes this same call just wrote via writeAtomic is a
	// logic error to fail, not a user-facing storage condition: the
	// temp-file+rename already completed successfully immediately above.
	written, err := os.ReadFile(implPath)
	vbinvariant.ExpectNoError(err, fmt.Sprintf("re-reading impl bytes just written to %s", implPath))
	vbinvariant.Invariant(vbhash.ComputeImplHash(written) == implHash,
		"impl bytes on disk at %s do not hash to the H_chk just computed for them", implPath)

	meta.SpecHash = specHash.String()
	meta.ChkSha = chk.String()
	if meta.HashInputs == nil {
		meta.HashInputs = map[string]string{}
	}
	meta.HashInputs["spec_hash"] = specHash.String()
	meta.HashInputs["prompt_hash"] = promptHash.String()
	meta.HashInputs["impl_hash"] = implHash.String()

	metaPath := filepath.Join(dir, "meta.toml")
	metaBuf := &strings.Builder{}
	if err := toml.NewEncoder(metaBuf).Encode(meta); err != nil {
		return "", &vberrors.StorageError{Kind: vberrors.WriteFailed, UnitID: unitID, Detail: "encoding meta.toml: " + err.Error()}
	}
	if err := writeAtomic(metaPath, []byte(metaBuf.String())); err != nil {
		return "", &vberrors.StorageError{Kind: vberrors.WriteFailed, UnitID: unitID, Detail: err.Error()}
	}

	return dir, nil
}

// SetDeps rewrites a checkpoint's meta.toml with a dependency-freeze pin
// list.
func (s *Store) SetDeps(unitID string, chk vbhash.Digest, deps []DepPin) error {
	dir := s.checkpointDir(unitID, chk)
	metaPath := filepath.Join(dir, "meta.toml")

	var meta Meta
	if _, err := toml.DecodeFile(metaPath, &meta); err != nil {
		return &vberrors.StorageError{Kind: vberrors.WriteFailed, UnitID: unitID, Detail: "reading meta.toml: " + err.Error()}
	}
	meta.Deps = deps

	buf := &strings.Builder{}
	if err := toml.NewEncoder(buf).Encode(meta); err != nil {
		return &vberrors.StorageError{Kind: vberrors.WriteFailed, UnitID: unitID, Detail: "encoding meta.toml: " + err.Error()}
	}
	return writeAtomic(metaPath, []byte(buf.String()))
}

// Read loads the impl bytes and meta for an existing checkpoint.
func (s *Store) Read(unitID string, chk vbhash.Digest) ([]byte, Meta, error) {
	dir := s.checkpointDir(unitID, chk)

	implPath, err := findImplFile(dir)
	if err != nil {
		return nil, Meta{}, &vberrors.StorageError{Kind: vberrors.WriteFailed, UnitID: unitID, Detail: err.Error()}
	}
	implBytes, err := os.ReadFile(implPath)
	if err != nil {
		return nil, Meta{}, &vberrors.StorageError{Kind: vberrors.WriteFailed, UnitID: unitID, Detail: err.Error()}
	}

	var meta Meta
	if _, err := toml.DecodeFile(filepath.Join(dir, "meta.toml"), &meta); err != nil {
		return nil, Meta{}, &vberrors.StorageError{Kind: vberrors.WriteFailed, UnitID: unitID, Detail: "reading meta.toml: " + err.Error()}
	}

	return implBytes, meta, nil
}

func findImplFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "impl.") {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("no impl.* file found in %s", dir)
}

// index is the decoded form of index.toml.
type index struct {
	Active map[string]string `toml:"active"`
}

func (s *Store) readIndex() (index, error) {
	idx := index{Active: map[string]string{}}
	path := s.indexPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return idx, nil
	}
	if _, err := toml.DecodeFile(path, &idx); err != nil {
		return index{}, err
	}
	if idx.Active == nil {
		idx.Active = map[string]string{}
	}
	return idx, nil
}

func (s *Store) writeIndex(idx index) error {
	buf := &strings.Builder{}
	if err := toml.NewEncoder(buf).Encode(idx); err != nil {
		return err
	}
	return writeAtomic(s.indexPath(), []byte(buf.String()))
}

// Activate atomically sets unit_id's active checkpoint to chk. Concurrent Activate calls
// are serialised by an exclusive lock on a sidecar file so exactly one
// writer wins the race for a given moment, and every write is a complete,
// consistent index.toml (no reader ever observes a torn write).
func (s *Store) Activate(ctx context.Context, unitID string, chk vbhash.Digest) error {
	lock, err := acquireIndexLock(ctx, s.indexPath()+".lock")
	if err != nil {
		return err
	}
	defer lock.release()

	idx, err := s.readIndex()
	if err != nil {
		return &vberrors.StorageError{Kind: vberrors.WriteFailed, UnitID: unitID, Detail: "reading index.toml: " + err.Error()}
	}
	idx.Active[unitID] = chk.String()
	if err := s.writeIndex(idx); err != nil {
		return &vberrors.StorageError{Kind: vberrors.WriteFailed, UnitID: unitID, Detail: "writing index.toml: " + err.Error()}
	}
	return nil
}

// Active returns unit_id's currently active checkpoint, if any.
func (s *Store) Active(unitID string) (vbhash.Digest, bool, error) {
	idx, err := s.readIndex()
	if err != nil {
		return vbhash.Digest{}, false, &vberrors.StorageError{Kind: vberrors.WriteFailed, UnitID: unitID, Detail: "reading index.toml: " + err.Error()}
	}
	raw, ok := idx.Active[unitID]
	if !ok {
		return vbhash.Digest{}, false, nil
	}
	chk, err := vbhash.ParseDigest(raw)
	if err != nil {
		return vbhash.Digest{}, false, &vberrors.StorageError{Kind: vberrors.WriteFailed, UnitID: unitID, Detail: "index.toml contains invalid digest: " + err.Error()}
	}
	return chk, true, nil
}

// checkpointEntry pairs a checkpoint digest with its recorded timestamp,
// so ListCheckpoints can return them in a deterministic order without
// the Store itself reading the wall clock.
type checkpointEntry struct {
	chk       vbhash.Digest
	timestamp string
}

// ListCheckpoints returns unit_id's checkpoints ordered by their recorded
// creation timestamp.
func (s *Store) ListCheckpoints(unitID string) ([]vbhash.Digest, error) {
	dir := s.unitDir(unitID)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &vberrors.StorageError{Kind: vberrors.WriteFailed, UnitID: unitID, Detail: err.Error()}
	}

	var checkpoints []checkpointEntry
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		chk, err := vbhash.ParseDigest(e.Name())
		if err != nil {
			continue // not a checkpoint directory
		}
		var meta Meta
		_, _ = toml.DecodeFile(filepath.Join(dir, e.Name(), "meta.toml"), &meta)
		checkpoints = append(checkpoints, checkpointEntry{chk: chk, timestamp: meta.Timestamp})
	}

	sort.Slice(checkpoints, func(i, j int) bool {
		if checkpoints[i].timestamp != checkpoints[j].timestamp {
			return checkpoints[i].timestamp < checkpoints[j].timestamp
		}
		return checkpoints[i].chk.String() < checkpoints[j].chk.String()
	})

	out := make([]vbhash.Digest, len(checkpoints))
	for i, c := range checkpoints {
		out[i] = c.chk
	}
	return out, nil
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmpPath := path + ".vibesafe.tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
