// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

/*
Package cache provides a thread-safe generic LRU cache with TTL expiry.

The price prediction service uses it to memoise responses keyed by the
normalized request. The cache is cleared whenever a new model is loaded, so a
cached value always comes from the model that is currently serving.

# Usage

	c := cache.NewLRU[Response](1024, 10*time.Minute)
	c.Add(key, resp)
	if v, ok := c.Get(key); ok {
	    return v
	}

Expiry is lazy: an expired entry is dropped when it is next read, or in bulk
by CleanupExpired.
*/
package cache
