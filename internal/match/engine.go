// Package match orchestrates the scorer across candidate sets and orders
// the results for delivery.
package match

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bazarlink/match-cli/internal/config"
	"github.com/bazarlink/match-cli/internal/model"
	"github.com/bazarlink/match-cli/internal/scorer"
)

// Activity is the caller-supplied moderation state of a candidate entity.
type Activity struct {
	Active  bool `json:"active"`
	Blocked bool `json:"blocked"`
}

// Options tunes a batch matching call. The zero value scores every candidate
// sequentially with no exclusions.
type Options struct {
	// Rejected holds candidate ids to skip entirely.
	Rejected map[string]struct{}

	// Activity, when supplied, gates candidates on "active and not blocked".
	// Candidates without an entry pass the gate; excluding stale ids is the
	// caller's job.
	Activity map[string]Activity

	// Location carries proximity hints forwarded to the scorer.
	Location *scorer.LocationContext

	// MaxCandidates caps how many candidates are scored; 0 means all.
	MaxCandidates int

	// Concurrency overrides the configured fan-out limit; 0 keeps it.
	Concurrency int
}

// Engine applies the scorer across one-to-many candidate sets.
type Engine struct {
	scorer *scorer.Scorer
	cfg    config.MatchConfig
}

// NewEngine creates an Engine with the given match configuration.
func NewEngine(cfg config.MatchConfig) *Engine {
	return &Engine{scorer: scorer.New(cfg), cfg: cfg}
}

// CalculateMatch scores a single listing/requirement pair with no filtering.
// Used for idempotent re-scoring of an existing pair.
func (e *Engine) CalculateMatch(l model.ListingSnapshot, r model.RequirementSnapshot, loc *scorer.LocationContext) model.MatchResult {
	score := e.scorer.Score(l, r, loc)
	return model.MatchResult{
		ListingID:     l.ID,
		RequirementID: r.ID,
		Score:         score,
		IsValid:       score >= e.cfg.ValidityThreshold,
	}
}

// FindMatchesForRequirement scores every candidate listing against the
// requirement and returns the valid matches ordered for delivery: VIP
// listings first, then by score descending.
func (e *Engine) FindMatchesForRequirement(ctx context.Context, r model.RequirementSnapshot, listings []model.ListingSnapshot, opts Options) ([]model.MatchResult, error) {
	listings = capCandidates(listings, opts.MaxCandidates)

	results, err := e.scoreAll(ctx, len(listings), opts,
		func(i int) string { return listings[i].ID },
		func(i int) model.MatchResult { return e.CalculateMatch(listings[i], r, opts.Location) },
	)
	if err != nil {
		return nil, err
	}

	valid := keepValid(results)

	byID := make(map[string]model.ListingSnapshot, len(listings))
	for _, l := range listings {
		byID[l.ID] = l
	}
	SortByPriority(valid, byID)

	zap.L().Debug("match: requirement batch scored",
		zap.String("requirement_id", r.ID),
		zap.Int("candidates", len(listings)),
		zap.Int("valid", len(valid)),
	)
	return valid, nil
}

// FindMatchesForListing is the symmetric counterpart: one listing against
// many requirements, valid matches sorted by score descending.
func (e *Engine) FindMatchesForListing(ctx context.Context, l model.ListingSnapshot, requirements []model.RequirementSnapshot, opts Options) ([]model.MatchResult, error) {
	requirements = capCandidates(requirements, opts.MaxCandidates)

	results, err := e.scoreAll(ctx, len(requirements), opts,
		func(i int) string { return requirements[i].ID },
		func(i int) model.MatchResult { return e.CalculateMatch(l, requirements[i], opts.Location) },
	)
	if err != nil {
		return nil, err
	}

	valid := keepValid(results)
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].Score > valid[j].Score })

	zap.L().Debug("match: listing batch scored",
		zap.String("listing_id", l.ID),
		zap.Int("candidates", len(requirements)),
		zap.Int("valid", len(valid)),
	)
	return valid, nil
}

// scoreAll runs the per-candidate scoring function over n candidates,
// skipping those the rejection and activity gates exclude. Candidates are
// independent and immutable, so the fan-out writes into per-index slots with
// no locking.
func (e *Engine) scoreAll(ctx context.Context, n int, opts Options, id func(i int) string, score func(i int) model.MatchResult) ([]*model.MatchResult, error) {
	results := make([]*model.MatchResult, n)

	concurrency := opts.Concurrency
	if concurrency == 0 {
		concurrency = e.cfg.Concurrency
	}

	if concurrency <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if excluded(id(i), opts) {
				continue
			}
			res := score(i)
			results[i] = &res
		}
		return results, nil
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if excluded(id(i), opts) {
			continue
		}
		i := i
		g.Go(func() error {
			res := score(i)
			results[i] = &res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, ctx.Err()
}

func excluded(id string, opts Options) bool {
	if _, rejected := opts.Rejected[id]; rejected {
		return true
	}
	if a, ok := opts.Activity[id]; ok && (!a.Active || a.Blocked) {
		return true
	}
	return false
}

func keepValid(results []*model.MatchResult) []model.MatchResult {
	valid := make([]model.MatchResult, 0, len(results))
	for _, res := range results {
		if res != nil && res.IsValid {
			valid = append(valid, *res)
		}
	}
	return valid
}

func capCandidates[T any](candidates []T, max int) []T {
	if max > 0 && len(candidates) > max {
		return candidates[:max]
	}
	return candidates
}
