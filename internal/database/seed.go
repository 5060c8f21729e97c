// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/kisaanconnect/internal/logging"
	"github.com/tomtom215/kisaanconnect/internal/models"
)

// Seed account usernames.
const (
	SeedFarmerUsername   = "farmer1"
	SeedConsumerUsername = "consumer1"
)

type sampleCrop struct {
	name        string
	quantity    float64
	price       float64
	description string
	location    string
}

var sampleCrops = []sampleCrop{
	{"Rice", 100, 45, "High quality Basmati rice", "Punjab"},
	{"Wheat", 200, 30, "Organic wheat", "Haryana"},
	{"Tomatoes", 50, 25, "Fresh red tomatoes", "Maharashtra"},
	{"Potatoes", 150, 20, "High quality potatoes", "Uttar Pradesh"},
	{"Onions", 75, 35, "Fresh red onions", "Maharashtra"},
}

// SeedSampleData creates the test farmer and consumer, both with
// passwordHash, and lists the sample crops for the farmer. It does nothing
// if the farmer account already exists.
func (db *DB) SeedSampleData(ctx context.Context, passwordHash string) error {
	if _, err := db.GetUserByUsername(ctx, SeedFarmerUsername); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	logging.Info().Msg("Seeding database with sample users and crops")

	farmerName, consumerName := "Test Farmer", "Test Consumer"
	farmer := &models.User{Username: SeedFarmerUsername, PasswordHash: passwordHash, Role: models.RoleFarmer, Name: &farmerName}
	if err := db.CreateUser(ctx, farmer); err != nil {
		return fmt.Errorf("seed farmer: %w", err)
	}
	consumer := &models.User{Username: SeedConsumerUsername, PasswordHash: passwordHash, Role: models.RoleConsumer, Name: &consumerName}
	if err := db.CreateUser(ctx, consumer); err != nil && !errors.Is(err, ErrUsernameTaken) {
		return fmt.Errorf("seed consumer: %w", err)
	}

	for _, s := range sampleCrops {
		desc, loc := s.description, s.location
		_, err := db.CreateCrop(ctx, farmer.ID, &models.CropInput{
			Name:         s.name,
			Quantity:     s.quantity,
			Unit:         models.DefaultCropUnit,
			PricePerUnit: s.price,
			Description:  &desc,
			Location:     &loc,
		})
		if err != nil {
			return fmt.Errorf("seed crop %s: %w", s.name, err)
		}
	}

	logging.Info().Int("crops", len(sampleCrops)).Msg("Sample data seeded")
	return nil
}
