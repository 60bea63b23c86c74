package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/bazarlink/match-cli/internal/model"
	"github.com/bazarlink/match-cli/internal/store"
)

// openStore opens the configured storage backend and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	var (
		s   store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		s, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		s, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// loadListingSnapshots fetches the active listings in a category as scoring
// snapshots, keyed by id for priority sorting.
func loadListingSnapshots(ctx context.Context, s store.Store, categoryID string) ([]model.ListingSnapshot, map[string]model.ListingSnapshot, error) {
	rows, err := s.ListActiveListings(ctx, categoryID)
	if err != nil {
		return nil, nil, err
	}
	snaps := make([]model.ListingSnapshot, 0, len(rows))
	byID := make(map[string]model.ListingSnapshot, len(rows))
	for _, row := range rows {
		snap := store.FromStoredListing(row)
		snaps = append(snaps, snap)
		byID[snap.ID] = snap
	}
	return snaps, byID, nil
}

func loadRequirementSnapshots(ctx context.Context, s store.Store, categoryID string) ([]model.RequirementSnapshot, error) {
	rows, err := s.ListActiveRequirements(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	snaps := make([]model.RequirementSnapshot, 0, len(rows))
	for _, row := range rows {
		snaps = append(snaps, store.FromStoredRequirement(row, nil))
	}
	return snaps, nil
}

// rejectedCandidates loads the candidate ids whose pairing with the anchor
// entity was previously rejected, so the engine skips re-proposing them. The
// filter pins the anchor side; pick extracts the candidate side's id.
func rejectedCandidates(ctx context.Context, s store.Store, filter store.MatchFilter, pick func(store.Match) string) (map[string]struct{}, error) {
	filter.Status = store.MatchStatusRejected
	matches, err := s.ListMatches(ctx, filter)
	if err != nil {
		return nil, err
	}
	rejected := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		rejected[pick(m)] = struct{}{}
	}
	return rejected, nil
}
