// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package pricing

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/tomtom215/kisaanconnect/internal/pricing/storage"
)

const (
	// ArtifactName is the base filename of persisted price models.
	ArtifactName = "price_model"

	// SchemaFilename is the feature schema descriptor written beside the models.
	SchemaFilename = "feature_columns.json"
)

// ArtifactLoader provides fitted artifacts to the Service.
type ArtifactLoader interface {
	// LoadLatest returns the newest artifact.
	LoadLatest(ctx context.Context) (*Artifact, error)
}

// LoaderFunc adapts a function to ArtifactLoader.
type LoaderFunc func(ctx context.Context) (*Artifact, error)

// LoadLatest calls f.
func (f LoaderFunc) LoadLatest(ctx context.Context) (*Artifact, error) {
	return f(ctx)
}

// schemaFile is the JSON layout of SchemaFilename.
type schemaFile struct {
	FeatureSchema
	Target      string   `json:"target"`
	Version     int      `json:"version"`
	FeatureList []string `json:"expanded_features"`
}

// FileStore persists artifacts through storage.Store.
type FileStore struct {
	store *storage.Store
	keep  int
}

// NewFileStore opens (or creates) the model directory. keep bounds how many
// artifact versions survive a save; values below 1 keep everything.
func NewFileStore(dir string, keep int) (*FileStore, error) {
	s, err := storage.NewStore(dir)
	if err != nil {
		return nil, err
	}
	return &FileStore{store: s, keep: keep}, nil
}

// Dir returns the model directory.
func (fs *FileStore) Dir() string {
	return fs.store.Dir()
}

// Save writes a as the next version, writes the schema descriptor and prunes
// old versions. It sets a.Version.
func (fs *FileStore) Save(ctx context.Context, a *Artifact, target string) (int, error) {
	version := fs.store.NextVersion(ArtifactName)
	a.Version = version
	meta := storage.Metadata{
		TrainedAt: a.Summary.TrainedAt,
		Labels: map[string]string{
			"mae":        strconv.FormatFloat(a.Summary.MAE, 'f', 4, 64),
			"train_rows": strconv.Itoa(a.Summary.TrainRows),
			"test_rows":  strconv.Itoa(a.Summary.TestRows),
		},
	}
	if _, err := fs.store.Save(ctx, ArtifactName, version, a, meta); err != nil {
		return 0, fmt.Errorf("save artifact: %w", err)
	}

	desc := schemaFile{
		FeatureSchema: a.Schema,
		Target:        target,
		Version:       version,
		FeatureList:   a.Pipeline.FeatureNames(),
	}
	if err := fs.store.WriteJSON(SchemaFilename, desc); err != nil {
		return version, fmt.Errorf("write feature schema: %w", err)
	}

	if fs.keep > 0 {
		if _, err := fs.store.Prune(ctx, ArtifactName, fs.keep); err != nil {
			return version, fmt.Errorf("prune artifacts: %w", err)
		}
	}
	return version, nil
}

// Load decodes a specific version. Version 0 means latest.
func (fs *FileStore) Load(ctx context.Context, version int) (*Artifact, error) {
	var a Artifact
	meta, err := fs.store.Load(ctx, ArtifactName, version, &a)
	if err != nil {
		return nil, err
	}
	if err := a.prepare(); err != nil {
		return nil, fmt.Errorf("artifact v%d: %w", meta.Version, err)
	}
	a.Version = meta.Version
	return &a, nil
}

// LoadLatest rescans the directory and loads the newest version. When the
// schema descriptor belongs to that version it must list the same features
// as the artifact.
func (fs *FileStore) LoadLatest(ctx context.Context) (*Artifact, error) {
	if err := fs.store.Refresh(); err != nil {
		return nil, fmt.Errorf("scan model directory: %w", err)
	}
	a, err := fs.Load(ctx, 0)
	if err != nil {
		return nil, err
	}
	if err := fs.checkSchemaFile(a); err != nil {
		return nil, err
	}
	return a, nil
}

// checkSchemaFile compares a with the descriptor written by the Save that
// produced it. A missing descriptor, or one written for another version, is
// not checked.
func (fs *FileStore) checkSchemaFile(a *Artifact) error {
	desc, err := fs.readSchema()
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if desc.Version != a.Version {
		return nil
	}
	if !desc.FeatureSchema.Equal(a.Schema) {
		return schemaErrorf("%s for v%d lists %v %v, artifact has %v %v", SchemaFilename, a.Version,
			desc.NumericFeatures, desc.CategoricalFeatures, a.Schema.NumericFeatures, a.Schema.CategoricalFeatures)
	}
	return nil
}

// LatestVersion rescans the directory and returns the newest version, or 0.
func (fs *FileStore) LatestVersion() (int, error) {
	if err := fs.store.Refresh(); err != nil {
		return 0, err
	}
	v, _ := fs.store.LatestVersion(ArtifactName)
	return v, nil
}

func (fs *FileStore) readSchema() (schemaFile, error) {
	var desc schemaFile
	if err := fs.store.ReadJSON(SchemaFilename, &desc); err != nil {
		return schemaFile{}, err
	}
	return desc, nil
}
