// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package pricing

import (
	"math"
	"strconv"
	"strings"
)

// Confidence is a heuristic label derived from how many optional request
// fields were supplied. It is not a statistical measure.
type Confidence string

// Confidence levels.
const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// PredictionRequest is the body of a price prediction call. Optional fields
// are pointers so that "absent" and "zero" stay distinguishable.
type PredictionRequest struct {
	CropName    string   `json:"crop_name" validate:"required,notblank,max=100"`
	Quantity    float64  `json:"quantity" validate:"gt=0,finite"`
	Season      string   `json:"season" validate:"required,notblank,max=50"`
	Region      string   `json:"region" validate:"required,notblank,max=100"`
	RainFall    *float64 `json:"rain_fall,omitempty" validate:"omitempty,finite"`
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,finite"`
	SoilQuality *string  `json:"soil_quality,omitempty" validate:"omitempty,max=50"`
}

// WeatherFactors echoes the weather inputs as supplied.
type WeatherFactors struct {
	RainFall    *float64 `json:"rain_fall"`
	Temperature *float64 `json:"temperature"`
}

// Factors echoes the request inputs in the response.
type Factors struct {
	CropType          string         `json:"crop_type"`
	Quantity          float64        `json:"quantity"`
	Season            string         `json:"season"`
	Region            string         `json:"region"`
	WeatherConditions WeatherFactors `json:"weather_conditions"`
	SoilQuality       *string        `json:"soil_quality"`
}

// PredictionResponse is the result of a price prediction.
//
// MinPrice and MaxPrice are a fixed ±10% band around PredictedPrice, not a
// statistical interval.
type PredictionResponse struct {
	PredictedPrice float64    `json:"predicted_price"`
	PricePerKg     float64    `json:"price_per_kg"`
	MinPrice       float64    `json:"min_price"`
	MaxPrice       float64    `json:"max_price"`
	MedianPrice    float64    `json:"median_price"`
	Confidence     Confidence `json:"confidence"`
	Factors        Factors    `json:"factors"`
}

// validate checks the fields the model cannot work without. It runs before
// any model access.
func (r *PredictionRequest) validate() error {
	if math.IsNaN(r.Quantity) || math.IsInf(r.Quantity, 0) || r.Quantity <= 0 {
		return invalidInputf("quantity must be greater than 0, got %v", r.Quantity)
	}
	for _, f := range []struct{ name, value string }{
		{ColCropName, r.CropName},
		{ColSeason, r.Season},
		{ColRegion, r.Region},
	} {
		if strings.TrimSpace(f.value) == "" {
			return invalidInputf("%s is required", f.name)
		}
	}
	for _, f := range []struct {
		name  string
		value *float64
	}{
		{ColRainFall, r.RainFall},
		{ColTemperature, r.Temperature},
	} {
		if f.value != nil && (math.IsNaN(*f.value) || math.IsInf(*f.value, 0)) {
			return invalidInputf("%s must be a finite number", f.name)
		}
	}
	return nil
}

// missingOptional counts absent optional fields.
func (r *PredictionRequest) missingOptional() int {
	n := 0
	if r.RainFall == nil {
		n++
	}
	if r.Temperature == nil {
		n++
	}
	if r.SoilQuality == nil {
		n++
	}
	return n
}

// record applies defaults and returns the model input.
func (r *PredictionRequest) record() Record {
	rec := NewRecord()
	rec.Numeric[ColQuantity] = r.Quantity
	rec.Numeric[ColRainFall] = deref(r.RainFall, 0)
	rec.Numeric[ColTemperature] = deref(r.Temperature, 0)
	rec.Categorical[ColCropName] = r.CropName
	rec.Categorical[ColSeason] = r.Season
	rec.Categorical[ColRegion] = r.Region
	rec.Categorical[ColSoilQuality] = deref(r.SoilQuality, DefaultSoilQuality)
	return rec
}

// cacheKey identifies the normalized request.
func (r *PredictionRequest) cacheKey() string {
	var b strings.Builder
	b.WriteString(r.CropName)
	b.WriteByte(0)
	b.WriteString(r.Season)
	b.WriteByte(0)
	b.WriteString(r.Region)
	b.WriteByte(0)
	b.WriteString(strconv.FormatFloat(r.Quantity, 'g', -1, 64))
	for _, v := range []*float64{r.RainFall, r.Temperature} {
		b.WriteByte(0)
		if v != nil {
			b.WriteString(strconv.FormatFloat(*v, 'g', -1, 64))
		} else {
			b.WriteByte('-')
		}
	}
	b.WriteByte(0)
	if r.SoilQuality != nil {
		b.WriteString(*r.SoilQuality)
	} else {
		b.WriteByte('-')
	}
	return b.String()
}

func (r *PredictionRequest) factors() Factors {
	return Factors{
		CropType: r.CropName,
		Quantity: r.Quantity,
		Season:   r.Season,
		Region:   r.Region,
		WeatherConditions: WeatherFactors{
			RainFall:    r.RainFall,
			Temperature: r.Temperature,
		},
		SoilQuality: r.SoilQuality,
	}
}

func confidenceFor(missing int) Confidence {
	switch {
	case missing == 0:
		return ConfidenceHigh
	case missing == 1:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// round2 rounds half away from zero to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
