// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package pricing

import (
	"slices"
	"strings"
	"unicode"
)

// Canonical column names of the crop price dataset.
const (
	ColCropName    = "crop_name"
	ColQuantity    = "quantity"
	ColSeason      = "season"
	ColRegion      = "region"
	ColRainFall    = "rain_fall"
	ColTemperature = "temperature"
	ColSoilQuality = "soil_quality"
	ColPrice       = "price"
)

// DefaultSoilQuality replaces a missing soil_quality at inference time.
const DefaultSoilQuality = "Medium"

// FeatureSchema lists the model inputs. Order is significant and fixed once
// training has produced the schema.
type FeatureSchema struct {
	NumericFeatures     []string `json:"numeric_features"`
	CategoricalFeatures []string `json:"categorical_features"`
}

// CanonicalSchema is the schema of the crop price dataset in column order.
func CanonicalSchema() FeatureSchema {
	return FeatureSchema{
		NumericFeatures:     []string{ColQuantity, ColRainFall, ColTemperature},
		CategoricalFeatures: []string{ColCropName, ColSeason, ColRegion, ColSoilQuality},
	}
}

// Validate rejects empty schemas and duplicate names.
func (s FeatureSchema) Validate() error {
	if len(s.NumericFeatures)+len(s.CategoricalFeatures) == 0 {
		return schemaErrorf("no feature columns")
	}
	seen := make(map[string]struct{}, len(s.NumericFeatures)+len(s.CategoricalFeatures))
	for _, name := range slices.Concat(s.NumericFeatures, s.CategoricalFeatures) {
		if strings.TrimSpace(name) == "" {
			return schemaErrorf("blank feature name")
		}
		if _, dup := seen[name]; dup {
			return schemaErrorf("duplicate feature %q", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Equal reports whether both schemas list the same names in the same order.
func (s FeatureSchema) Equal(o FeatureSchema) bool {
	return slices.Equal(s.NumericFeatures, o.NumericFeatures) &&
		slices.Equal(s.CategoricalFeatures, o.CategoricalFeatures)
}

// CheckServable rejects schemas with features a PredictionRequest cannot
// supply. A model trained on such a column would see only its fill value at
// inference time.
func (s FeatureSchema) CheckServable() error {
	canon := CanonicalSchema()
	var unknown []string
	for _, name := range s.NumericFeatures {
		if !slices.Contains(canon.NumericFeatures, name) {
			unknown = append(unknown, name)
		}
	}
	for _, name := range s.CategoricalFeatures {
		if !slices.Contains(canon.CategoricalFeatures, name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return schemaErrorf("features %s cannot be supplied by a prediction request", strings.Join(unknown, ", "))
	}
	return nil
}

// NormalizeColumnName maps a dataset header to snake_case, so "Crop_Name",
// "Crop Name" and "RainFall" become crop_name, crop_name and rain_fall.
func NormalizeColumnName(name string) string {
	var b strings.Builder
	runes := []rune(strings.TrimSpace(name))
	pendingSep := false
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if unicode.IsUpper(r) && i > 0 && b.Len() > 0 && !pendingSep {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					pendingSep = true
				}
			}
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToLower(r))
		default:
			pendingSep = true
		}
	}
	return b.String()
}

// ColumnKind classifies a dataset column.
type ColumnKind int

const (
	// KindNumeric is a continuous column.
	KindNumeric ColumnKind = iota
	// KindCategorical is a discrete string column.
	KindCategorical
)

// Column describes one column of a loaded dataset.
type Column struct {
	Name string
	Kind ColumnKind
}

// InferSchema derives the feature schema from dataset columns. The target is
// the column named price, or the last column when there is none. Column order
// is preserved within each kind.
func InferSchema(columns []Column) (FeatureSchema, string, error) {
	if len(columns) < 2 {
		return FeatureSchema{}, "", schemaErrorf("need at least one feature and a target column, got %d columns", len(columns))
	}

	target := columns[len(columns)-1]
	for _, c := range columns {
		if c.Name == ColPrice {
			target = c
			break
		}
	}
	if target.Kind != KindNumeric {
		return FeatureSchema{}, "", schemaErrorf("target column %q is not numeric", target.Name)
	}

	var s FeatureSchema
	for _, c := range columns {
		if c.Name == target.Name {
			continue
		}
		switch c.Kind {
		case KindNumeric:
			s.NumericFeatures = append(s.NumericFeatures, c.Name)
		case KindCategorical:
			s.CategoricalFeatures = append(s.CategoricalFeatures, c.Name)
		}
	}
	if err := s.Validate(); err != nil {
		return FeatureSchema{}, "", err
	}
	return s, target.Name, nil
}

// Record is one row of features. A missing value is an absent key.
type Record struct {
	Numeric     map[string]float64
	Categorical map[string]string
}

// NewRecord returns an empty record ready for assignment.
func NewRecord() Record {
	return Record{Numeric: map[string]float64{}, Categorical: map[string]string{}}
}

func (r Record) clone() Record {
	c := Record{
		Numeric:     make(map[string]float64, len(r.Numeric)),
		Categorical: make(map[string]string, len(r.Categorical)),
	}
	for k, v := range r.Numeric {
		c.Numeric[k] = v
	}
	for k, v := range r.Categorical {
		c.Categorical[k] = v
	}
	return c
}

// TrainingRecord is a typed row of the crop price dataset.
type TrainingRecord struct {
	CropName    string
	Quantity    *float64
	Season      string
	Region      string
	RainFall    *float64
	Temperature *float64
	SoilQuality *string
	Price       float64
}

// Record converts t to the generic form. Empty strings and nil pointers are
// treated as missing.
func (t TrainingRecord) Record() Record {
	r := NewRecord()
	putNum := func(name string, v *float64) {
		if v != nil {
			r.Numeric[name] = *v
		}
	}
	putCat := func(name, v string) {
		if v != "" {
			r.Categorical[name] = v
		}
	}
	putNum(ColQuantity, t.Quantity)
	putNum(ColRainFall, t.RainFall)
	putNum(ColTemperature, t.Temperature)
	putCat(ColCropName, t.CropName)
	putCat(ColSeason, t.Season)
	putCat(ColRegion, t.Region)
	if t.SoilQuality != nil {
		putCat(ColSoilQuality, *t.SoilQuality)
	}
	return r
}

// Dataset is a loaded training set with its inferred schema.
type Dataset struct {
	Schema  FeatureSchema
	Target  string
	Records []Record
	Targets []float64
}

// NewDataset builds a Dataset with the canonical schema from typed rows.
func NewDataset(rows []TrainingRecord) *Dataset {
	ds := &Dataset{
		Schema:  CanonicalSchema(),
		Target:  ColPrice,
		Records: make([]Record, 0, len(rows)),
		Targets: make([]float64, 0, len(rows)),
	}
	for _, row := range rows {
		ds.Records = append(ds.Records, row.Record())
		ds.Targets = append(ds.Targets, row.Price)
	}
	return ds
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Records)
}
