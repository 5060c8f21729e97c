// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/kisaanconnect/internal/auth"
	"github.com/tomtom215/kisaanconnect/internal/middleware"
	"github.com/tomtom215/kisaanconnect/internal/models"
)

// Router wires handlers, authentication and middleware together.
type Router struct {
	handler *Handler
	authMW  *auth.Middleware
	chiMW   *ChiMiddleware
}

// NewRouter creates a Router. A nil chiMW uses DefaultChiMiddlewareConfig.
func NewRouter(handler *Handler, authMW *auth.Middleware, chiMW *ChiMiddleware) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, authMW: authMW, chiMW: chiMW}
}

// SetupChi builds the chi router.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMW.CORS())
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).NotFound("Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).Error(http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
	})

	r.Get("/", h.Root)
	r.Group(func(r chi.Router) {
		r.Use(router.chiMW.RateLimitCustom(RateLimitHealth))
		r.Get("/health", h.Health)
		r.Get("/health/live", h.HealthLive)
		r.Get("/health/ready", h.HealthReady)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(chimiddleware.Compress(5, "application/json"))

		r.Route("/price-prediction", router.pricingRoutes)
		r.Route("/auth", router.authRoutes)
		r.Route("/farmer", router.farmerRoutes)
		r.Route("/consumer", router.consumerRoutes)
	})
	return r
}

func (router *Router) pricingRoutes(r chi.Router) {
	h := router.handler
	r.With(router.chiMW.RateLimitCustom(RateLimitPredict)).Post("/predict", h.Predict)
	r.With(router.chiMW.RateLimitCustom(RateLimitHealth)).Get("/health", h.PricingHealth)
	r.With(
		router.chiMW.RateLimitCustom(RateLimitWrite),
		router.authMW.RequireAuth,
		router.authMW.RequireRole(models.RoleFarmer),
	).Post("/reload", h.ReloadModel)
}

func (router *Router) authRoutes(r chi.Router) {
	h := router.handler
	r.With(router.chiMW.RateLimitCustom(RateLimitAuth)).Post("/register", h.Register)
	r.Group(func(r chi.Router) {
		r.Use(router.chiMW.RateLimitCustom(RateLimitLogin))
		r.Post("/login", h.Login)
		r.Post("/login/user", h.LoginJSON)
	})
	r.Group(func(r chi.Router) {
		r.Use(router.chiMW.RateLimit())
		r.Use(router.authMW.RequireAuth)
		r.Get("/me", withUser(h.Me))
		r.Post("/logout", h.Logout)
	})
}

func (router *Router) farmerRoutes(r chi.Router) {
	h := router.handler
	r.Use(router.chiMW.RateLimit())
	r.Use(router.authMW.RequireAuth)
	r.Use(router.authMW.RequireRole(models.RoleFarmer))

	r.Get("/crops", withUser(h.ListCrops))
	r.Get("/crops/{id}", withUser(h.GetCrop))
	r.Get("/dashboard/stats", withUser(h.FarmerStats))
	r.Group(func(r chi.Router) {
		r.Use(router.chiMW.RateLimitCustom(RateLimitWrite))
		r.Post("/crops", withUser(h.CreateCrop))
		r.Put("/crops/{id}", withUser(h.UpdateCrop))
		r.Delete("/crops/{id}", withUser(h.DeleteCrop))
	})
}

func (router *Router) consumerRoutes(r chi.Router) {
	h := router.handler
	r.Use(router.chiMW.RateLimit())
	r.Use(router.authMW.RequireAuth)
	r.Use(router.authMW.RequireRole(models.RoleConsumer))

	r.Get("/marketplace", withUser(h.Marketplace))
	r.Get("/dashboard/stats", withUser(h.ConsumerStats))
	r.Get("/cart/{cartID}", withUser(h.GetCart))
	r.Get("/orders", withUser(h.ListOrders))
	r.Get("/orders/{id}", withUser(h.GetOrder))
	r.Group(func(r chi.Router) {
		r.Use(router.chiMW.RateLimitCustom(RateLimitWrite))
		r.Post("/cart", withUser(h.NewCart))
		r.Post("/cart/{cartID}/items", withUser(h.AddCartItem))
		r.Delete("/cart/{cartID}/items/{itemID}", withUser(h.RemoveCartItem))
		r.Post("/orders", withUser(h.CreateOrder))
	})
}
