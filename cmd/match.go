package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bazarlink/match-cli/internal/match"
	"github.com/bazarlink/match-cli/internal/model"
	"github.com/bazarlink/match-cli/internal/scorer"
	"github.com/bazarlink/match-cli/internal/store"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score and rank matches for a requirement or a listing",
	Long: `Scores active candidates against one anchor entity and prints the
valid matches. For a requirement, results are ordered VIP-first; for a
listing, by score descending.

Examples:
  # All valid matches for a buyer requirement
  match --requirement 4f3c...

  # Requirements a new listing satisfies, top 20
  match --listing 91ab... --limit 20

  # Persist the computed matches
  match --requirement 4f3c... --save

  # Export to CSV
  match --requirement 4f3c... --format csv --output matches.csv`,
	RunE: runMatch,
}

func init() {
	f := matchCmd.Flags()
	f.String("requirement", "", "requirement id to find listings for")
	f.String("listing", "", "listing id to find requirements for")
	f.Int("limit", 0, "maximum candidates to score (0=all)")
	f.Int("concurrency", 0, "scoring fan-out (0=use config)")
	f.String("format", "table", "output format: table or csv")
	f.String("output", "", "output file path (default: stdout)")
	f.Bool("save", false, "persist computed matches to the store")

	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	requirementID, _ := cmd.Flags().GetString("requirement")
	listingID, _ := cmd.Flags().GetString("listing")
	limit, _ := cmd.Flags().GetInt("limit")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	save, _ := cmd.Flags().GetBool("save")

	if (requirementID == "") == (listingID == "") {
		return eris.New("match: exactly one of --requirement or --listing is required")
	}
	if format != "table" && format != "csv" {
		return eris.Errorf("match: --format must be table or csv (got %q)", format)
	}
	if err := scorer.ValidateConfig(cfg.Match); err != nil {
		return err
	}

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	engine := match.NewEngine(cfg.Match)
	opts := match.Options{MaxCandidates: limit, Concurrency: concurrency}

	var results []model.MatchResult
	if requirementID != "" {
		results, err = matchRequirement(ctx, s, engine, requirementID, opts)
	} else {
		results, err = matchListing(ctx, s, engine, listingID, opts)
	}
	if err != nil {
		return err
	}

	if err := outputMatchResults(results, format, outputPath); err != nil {
		return err
	}

	if save && len(results) > 0 {
		for _, res := range results {
			m := &store.Match{
				ListingID:     res.ListingID,
				RequirementID: res.RequirementID,
				Score:         res.Score,
			}
			if err := s.UpsertMatch(ctx, m); err != nil {
				return eris.Wrap(err, "match: save")
			}
		}
		fmt.Printf("Saved %d matches\n", len(results))
	}

	zap.L().Info("match complete", zap.Int("valid", len(results)))
	return nil
}

func matchRequirement(ctx context.Context, s store.Store, engine *match.Engine, id string, opts match.Options) ([]model.MatchResult, error) {
	row, err := s.GetRequirement(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "match: requirement %s", id)
	}
	r := store.FromStoredRequirement(*row, nil)

	listings, _, err := loadListingSnapshots(ctx, s, r.CategoryID)
	if err != nil {
		return nil, err
	}

	opts.Rejected, err = rejectedCandidates(ctx, s,
		store.MatchFilter{RequirementID: id},
		func(m store.Match) string { return m.ListingID })
	if err != nil {
		return nil, err
	}

	return engine.FindMatchesForRequirement(ctx, r, listings, opts)
}

func matchListing(ctx context.Context, s store.Store, engine *match.Engine, id string, opts match.Options) ([]model.MatchResult, error) {
	row, err := s.GetListing(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "match: listing %s", id)
	}
	l := store.FromStoredListing(*row)

	requirements, err := loadRequirementSnapshots(ctx, s, l.CategoryID)
	if err != nil {
		return nil, err
	}

	opts.Rejected, err = rejectedCandidates(ctx, s,
		store.MatchFilter{ListingID: id},
		func(m store.Match) string { return m.RequirementID })
	if err != nil {
		return nil, err
	}

	return engine.FindMatchesForListing(ctx, l, requirements, opts)
}

func outputMatchResults(results []model.MatchResult, format, outputPath string) error {
	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return eris.Wrap(err, "match: create output file")
		}
		defer f.Close()
		out = f
	}

	if format == "csv" {
		w := csv.NewWriter(out)
		if err := w.Write([]string{"listing_id", "requirement_id", "score"}); err != nil {
			return eris.Wrap(err, "match: write csv header")
		}
		for _, res := range results {
			if err := w.Write([]string{res.ListingID, res.RequirementID, strconv.Itoa(res.Score)}); err != nil {
				return eris.Wrap(err, "match: write csv row")
			}
		}
		w.Flush()
		return eris.Wrap(w.Error(), "match: flush csv")
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LISTING\tREQUIREMENT\tSCORE")
	for _, res := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\n", res.ListingID, res.RequirementID, res.Score)
	}
	return w.Flush()
}
