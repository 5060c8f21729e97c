// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

// Package storage persists versioned model artifacts on local disk.
//
// # Format
//
// Each version lives in {name}_v{version}.gob.gz. The file is a gob-encoded
// envelope holding Metadata and the gzip-compressed gob payload. Metadata
// carries the SHA-256 of the uncompressed payload, which Load verifies before
// decoding.
//
// Sidecar descriptors (for example the feature schema) are written as
// indented JSON next to the artifacts so they can be inspected without
// decoding a model.
//
// Writes go to a temporary file that is renamed into place, so a reader in
// another process never observes a partially written artifact.
package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

const artifactExt = ".gob.gz"

// ErrNotFound is returned when no artifact exists for a name or version.
var ErrNotFound = errors.New("artifact not found")

// ErrChecksum is returned when a payload does not match its recorded digest.
var ErrChecksum = errors.New("artifact checksum mismatch")

// Metadata describes one stored artifact version.
type Metadata struct {
	Name      string            `json:"name"`
	Version   int               `json:"version"`
	TrainedAt time.Time         `json:"trained_at"`
	SavedAt   time.Time         `json:"saved_at"`
	Checksum  string            `json:"checksum"`
	SizeBytes int64             `json:"size_bytes"`
	Labels    map[string]string `json:"labels,omitempty"`
}

type envelope struct {
	Metadata       Metadata
	CompressedData []byte
}

// Store manages artifact files under one directory.
type Store struct {
	baseDir  string
	mu       sync.RWMutex
	versions map[string][]int // ascending
}

// NewStore creates baseDir if needed and indexes existing artifacts.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	s := &Store{baseDir: baseDir}
	if err := s.Refresh(); err != nil {
		return nil, fmt.Errorf("scan artifacts: %w", err)
	}
	return s, nil
}

// Dir returns the store's directory.
func (s *Store) Dir() string {
	return s.baseDir
}

// Refresh rescans the directory. Call it to pick up artifacts written by
// another process.
func (s *Store) Refresh() error {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return err
	}
	found := make(map[string][]int)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, version, ok := parseArtifactFilename(e.Name())
		if !ok {
			continue
		}
		found[name] = append(found[name], version)
	}
	for name := range found {
		slices.Sort(found[name])
	}

	s.mu.Lock()
	s.versions = found
	s.mu.Unlock()
	return nil
}

// parseArtifactFilename splits "price_model_v3.gob.gz" into ("price_model", 3).
func parseArtifactFilename(filename string) (string, int, bool) {
	base, ok := strings.CutSuffix(filename, artifactExt)
	if !ok {
		return "", 0, false
	}
	idx := strings.LastIndex(base, "_v")
	if idx <= 0 {
		return "", 0, false
	}
	version, err := strconv.Atoi(base[idx+2:])
	if err != nil || version < 1 {
		return "", 0, false
	}
	return base[:idx], version, true
}

func (s *Store) path(name string, version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d%s", name, version, artifactExt))
}

// NextVersion returns one past the latest stored version of name.
func (s *Store) NextVersion(name string) int {
	v, _ := s.LatestVersion(name)
	return v + 1
}

// LatestVersion returns the highest stored version of name.
func (s *Store) LatestVersion(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vs := s.versions[name]
	if len(vs) == 0 {
		return 0, false
	}
	return vs[len(vs)-1], true
}

// Versions returns every stored version of name in ascending order.
func (s *Store) Versions(name string) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.versions[name])
}

// Save gob-encodes data, records its checksum, compresses it and writes the
// envelope atomically.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *Store) Save(ctx context.Context, name string, version int, data any, meta Metadata) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if version < 1 {
		return nil, fmt.Errorf("artifact version must be positive, got %d", version)
	}

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(data); err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	sum := sha256.Sum256(raw.Bytes())

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return nil, fmt.Errorf("compress artifact: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}

	meta.Name = name
	meta.Version = version
	meta.Checksum = hex.EncodeToString(sum[:])
	meta.SizeBytes = int64(compressed.Len())
	meta.SavedAt = time.Now().UTC()

	var file bytes.Buffer
	if err := gob.NewEncoder(&file).Encode(envelope{Metadata: meta, CompressedData: compressed.Bytes()}); err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeFileAtomic(s.path(name, version), file.Bytes()); err != nil {
		return nil, err
	}
	if !slices.Contains(s.versions[name], version) {
		s.versions[name] = append(s.versions[name], version)
		slices.Sort(s.versions[name])
	}
	return &meta, nil
}

// Load decodes version of name into target. Version 0 means latest.
func (s *Store) Load(ctx context.Context, name string, version int, target any) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if version == 0 {
		v, ok := s.LatestVersion(name)
		if !ok {
			return nil, fmt.Errorf("%w: no versions of %s", ErrNotFound, name)
		}
		version = v
	}

	s.mu.RLock()
	f, err := os.Open(s.path(name, version))
	s.mu.RUnlock()
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s v%d", ErrNotFound, name, version)
	}
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer func() { _ = f.Close() }()

	var env envelope
	if err := gob.NewDecoder(f).Decode(&env); err != nil {
		return nil, fmt.Errorf("read artifact envelope: %w", err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(env.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("decompress artifact: %w", err)
	}
	raw, err := io.ReadAll(gzr)
	_ = gzr.Close()
	if err != nil {
		return nil, fmt.Errorf("read decompressed artifact: %w", err)
	}

	sum := sha256.Sum256(raw)
	if got := hex.EncodeToString(sum[:]); got != env.Metadata.Checksum {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrChecksum, env.Metadata.Checksum, got)
	}

	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(target); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return &env.Metadata, nil
}

// Prune deletes all but the newest keep versions of name and returns how
// many files were removed.
func (s *Store) Prune(ctx context.Context, name string, keep int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if keep < 1 {
		keep = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	vs := s.versions[name]
	if len(vs) <= keep {
		return 0, nil
	}
	drop := vs[:len(vs)-keep]
	removed := 0
	for _, v := range drop {
		if err := os.Remove(s.path(name, v)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("remove %s v%d: %w", name, v, err)
		}
		removed++
	}
	s.versions[name] = slices.Clone(vs[len(vs)-keep:])
	return removed, nil
}

// WriteJSON writes v as indented JSON to filename inside the store directory.
func (s *Store) WriteJSON(filename string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filename, err)
	}
	return writeFileAtomic(filepath.Join(s.baseDir, filename), append(data, '\n'))
}

// ReadJSON decodes filename inside the store directory into v.
func (s *Store) ReadJSON(filename string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.baseDir, filepath.Base(filename)))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filename, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filename, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
