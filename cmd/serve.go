package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bazarlink/match-cli/internal/config"
	"github.com/bazarlink/match-cli/internal/dedup"
	"github.com/bazarlink/match-cli/internal/imagehash"
	"github.com/bazarlink/match-cli/internal/match"
	"github.com/bazarlink/match-cli/internal/model"
	"github.com/bazarlink/match-cli/internal/scorer"
	"github.com/bazarlink/match-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the matching HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := scorer.ValidateConfig(cfg.Match); err != nil {
			return err
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		api := newAPIServer(s, *cfg)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           api.router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// apiServer bundles the matching components behind HTTP handlers.
type apiServer struct {
	store    store.Store
	engine   *match.Engine
	detector *dedup.Detector
	cfg      config.Config
}

func newAPIServer(s store.Store, cfg config.Config) *apiServer {
	return &apiServer{
		store:    s,
		engine:   match.NewEngine(cfg.Match),
		detector: dedup.NewDetector(cfg.Dedup, imagehash.New(cfg.Hash)),
		cfg:      cfg,
	}
}

func (a *apiServer) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(rateLimit(a.cfg.Server.RatePerSecond, a.cfg.Server.RateBurst))

	r.Get("/health", a.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/requirements/{id}/matches", a.handleRequirementMatches)
		r.Post("/listings/{id}/matches", a.handleListingMatches)
		r.Post("/listings/{id}/duplicates", a.handleListingDuplicates)
	})
	return r
}

// rateLimit applies a process-wide token bucket to every request.
func rateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// matchRequest carries optional per-request tuning for a matching call.
// Adjacency, same-city membership, and distance are precomputed by the
// caller; the engine never resolves geography itself.
type matchRequest struct {
	Limit       int  `json:"limit,omitempty"`
	Concurrency int  `json:"concurrency,omitempty"`
	Save        bool `json:"save,omitempty"`

	AdjacentLocations []string `json:"adjacent_locations,omitempty"`
	SameCityLocations []string `json:"same_city_locations,omitempty"`
	DistanceKm        *float64 `json:"distance_km,omitempty"`
}

// locationContext converts the request hints into the scorer's form, or nil
// when no hints were supplied.
func (m matchRequest) locationContext() *scorer.LocationContext {
	if len(m.AdjacentLocations) == 0 && len(m.SameCityLocations) == 0 && m.DistanceKm == nil {
		return nil
	}
	loc := &scorer.LocationContext{DistanceKm: m.DistanceKm}
	if len(m.AdjacentLocations) > 0 {
		loc.Adjacent = make(map[string]struct{}, len(m.AdjacentLocations))
		for _, id := range m.AdjacentLocations {
			loc.Adjacent[id] = struct{}{}
		}
	}
	if len(m.SameCityLocations) > 0 {
		loc.SameCity = make(map[string]struct{}, len(m.SameCityLocations))
		for _, id := range m.SameCityLocations {
			loc.SameCity[id] = struct{}{}
		}
	}
	return loc
}

func (a *apiServer) handleRequirementMatches(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req, ok := decodeMatchRequest(w, r)
	if !ok {
		return
	}

	row, err := a.store.GetRequirement(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "requirement")
		return
	}
	requirement := store.FromStoredRequirement(*row, nil)

	listings, _, err := loadListingSnapshots(r.Context(), a.store, requirement.CategoryID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load candidates")
		return
	}

	opts := match.Options{
		MaxCandidates: req.Limit,
		Concurrency:   req.Concurrency,
		Location:      req.locationContext(),
	}
	opts.Rejected, err = rejectedCandidates(r.Context(), a.store,
		store.MatchFilter{RequirementID: id},
		func(m store.Match) string { return m.ListingID })
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load rejections")
		return
	}

	results, err := a.engine.FindMatchesForRequirement(r.Context(), requirement, listings, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "matching failed")
		return
	}

	if req.Save && !a.saveMatches(r.Context(), w, results) {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"requirement_id": id,
		"count":          len(results),
		"matches":        results,
	})
}

func (a *apiServer) handleListingMatches(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req, ok := decodeMatchRequest(w, r)
	if !ok {
		return
	}

	row, err := a.store.GetListing(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "listing")
		return
	}
	listing := store.FromStoredListing(*row)

	requirements, err := loadRequirementSnapshots(r.Context(), a.store, listing.CategoryID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load candidates")
		return
	}

	opts := match.Options{
		MaxCandidates: req.Limit,
		Concurrency:   req.Concurrency,
		Location:      req.locationContext(),
	}
	opts.Rejected, err = rejectedCandidates(r.Context(), a.store,
		store.MatchFilter{ListingID: id},
		func(m store.Match) string { return m.RequirementID })
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load rejections")
		return
	}

	results, err := a.engine.FindMatchesForListing(r.Context(), listing, requirements, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "matching failed")
		return
	}

	if req.Save && !a.saveMatches(r.Context(), w, results) {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"listing_id": id,
		"count":      len(results),
		"matches":    results,
	})
}

func (a *apiServer) handleListingDuplicates(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	row, err := a.store.GetListing(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "listing")
		return
	}
	listing := store.FromStoredListing(*row)

	existing, _, err := loadListingSnapshots(r.Context(), a.store, listing.CategoryID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load candidates")
		return
	}

	var results []model.DuplicateCheckResult
	if minScore := r.URL.Query().Get("min_score"); minScore != "" {
		floor, err := strconv.Atoi(minScore)
		if err != nil || floor < 0 || floor > 100 {
			writeError(w, http.StatusBadRequest, "min_score must be an integer in [0,100]")
			return
		}
		results = a.detector.FindAllSimilar(listing, existing, floor)
	} else {
		results = a.detector.FindDuplicates(listing, existing)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"listing_id": id,
		"count":      len(results),
		"duplicates": results,
	})
}

func (a *apiServer) saveMatches(ctx context.Context, w http.ResponseWriter, results []model.MatchResult) bool {
	for _, res := range results {
		m := &store.Match{
			ListingID:     res.ListingID,
			RequirementID: res.RequirementID,
			Score:         res.Score,
		}
		if err := a.store.UpsertMatch(ctx, m); err != nil {
			zap.L().Error("save match failed",
				zap.String("listing_id", res.ListingID),
				zap.String("requirement_id", res.RequirementID),
				zap.Error(err),
			)
			writeError(w, http.StatusInternalServerError, "save matches")
			return false
		}
	}
	return true
}

func decodeMatchRequest(w http.ResponseWriter, r *http.Request) (matchRequest, bool) {
	var req matchRequest
	if r.Body == nil || r.ContentLength == 0 {
		return req, true
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	return req, true
}

func writeStoreError(w http.ResponseWriter, err error, entity string) {
	if eris.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, entity+" not found")
		return
	}
	zap.L().Error("store error", zap.String("entity", entity), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "storage error")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
