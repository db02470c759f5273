package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// healthCheckHandler handles health check requests to verify service status
//
//	@Summary		Health check
//	@Description	Returns OK while the process is serving requests
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	Response{data=map[string]string}
//	@Router			/health [get]
func healthCheckHandler(w http.ResponseWriter, _ *http.Request) {
	// Return simple health status response indicating service is operational
	sendResponse(w, http.StatusOK, StatusOK, map[string]string{"status": "healthy"})
}

// newRouter builds the REST façade over app
func newRouter(app *application, rl *rateLimiter) http.Handler {
	cfg := app.cfg.Server
	h := &apiHandlers{controller: app.controller, stations: app.stations, service: app.service}
	m := app.metrics

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(DefaultRequestTimeout))
	if rl != nil {
		r.Use(rateLimitMiddleware(rl))
	}
	r.Use(securityHeadersMiddleware)
	r.Use(corsMiddleware(splitOrigins(cfg.CORSAllowedOrigins), cfg.CORSMaxAge))

	// Health, metrics and docs stay outside authentication
	r.Get("/health", healthCheckHandler)
	r.Method(http.MethodGet, "/metrics", m.handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.MiddlewareAuth {
			r.Use(apiKeyAuthMiddleware(cfg.AuthKey))
		}
		r.Get("/wifi", m.instrument("/wifi", h.getWifiStatusHandler))
		r.Post("/wifi", m.instrument("/wifi", h.setWifiStatusHandler))
		r.Get("/wifi/summary", m.instrument("/wifi/summary", h.getWifiSummaryHandler))
		r.Get("/wifi/bands/{band}", m.instrument("/wifi/bands/{band}", h.getBandStatusHandler))
		r.Post("/wifi/bands/{band}", m.instrument("/wifi/bands/{band}", h.setBandStatusHandler))
		r.Get("/wifi/stations", m.instrument("/wifi/stations", h.getStationsHandler))
		r.Get("/wifi/stations/{band}", m.instrument("/wifi/stations/{band}", h.getBandStationsHandler))
		r.Post("/cache/clear", m.instrument("/cache/clear", h.clearCacheHandler))

		r.Get("/smart_band", m.instrument("/smart_band", h.getSmartBandHandler))
		r.Post("/smart_band", m.instrument("/smart_band", h.setSmartBandHandler))
		r.Get("/smart_band/stations", m.instrument("/smart_band/stations", h.getSmartBandStationsHandler))
	})
	return r
}
