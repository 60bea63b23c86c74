package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bazarlink/match-cli/internal/dedup"
	"github.com/bazarlink/match-cli/internal/imagehash"
	"github.com/bazarlink/match-cli/internal/model"
	"github.com/bazarlink/match-cli/internal/store"
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "Scan for probable duplicates of a listing",
	Long: `Compares one listing against every other active listing in its
category and reports similar pairs with a per-criterion breakdown.

Examples:
  # Pairs at or above the duplicate threshold
  duplicates --listing 91ab...

  # Exploratory review down to a lower similarity floor
  duplicates --listing 91ab... --all --min-score 50

  # Skip perceptual image comparison
  duplicates --listing 91ab... --no-images`,
	RunE: runDuplicates,
}

func init() {
	f := duplicatesCmd.Flags()
	f.String("listing", "", "listing id to scan (required)")
	f.Bool("all", false, "report every pair above --min-score, not only flagged duplicates")
	f.Int("min-score", 0, "similarity floor for --all (default: half the duplicate threshold)")
	f.Bool("no-images", false, "disable perceptual image comparison")
	_ = duplicatesCmd.MarkFlagRequired("listing")

	rootCmd.AddCommand(duplicatesCmd)
}

func runDuplicates(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listingID, _ := cmd.Flags().GetString("listing")
	all, _ := cmd.Flags().GetBool("all")
	minScore, _ := cmd.Flags().GetInt("min-score")
	noImages, _ := cmd.Flags().GetBool("no-images")

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	row, err := s.GetListing(ctx, listingID)
	if err != nil {
		return eris.Wrapf(err, "duplicates: listing %s", listingID)
	}
	anchor := store.FromStoredListing(*row)

	existing, _, err := loadListingSnapshots(ctx, s, anchor.CategoryID)
	if err != nil {
		return err
	}

	var hasher dedup.ImageHasher = imagehash.New(cfg.Hash)
	if noImages {
		hasher = imagehash.Disabled{}
	}
	detector := dedup.NewDetector(cfg.Dedup, hasher)

	var results []model.DuplicateCheckResult
	if all {
		if minScore <= 0 {
			minScore = cfg.Dedup.DuplicateThreshold / 2
		}
		results = detector.FindAllSimilar(anchor, existing, minScore)
	} else {
		results = detector.FindDuplicates(anchor, existing)
	}

	if len(results) == 0 {
		fmt.Println("No similar listings found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OTHER LISTING\tSCORE\tDUPLICATE\tLOCATION\tPRICE\tAREA\tROOMS\tIMAGE")
	for _, res := range results {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			res.OtherListingID, res.SimilarityScore, yesNo(res.IsPotentialDuplicate),
			yesNo(res.Breakdown.LocationMatch), yesNo(res.Breakdown.PriceMatch),
			yesNo(res.Breakdown.AreaMatch), yesNo(res.Breakdown.RoomsMatch),
			yesNo(res.Breakdown.ImageMatch),
		)
	}
	if err := w.Flush(); err != nil {
		return eris.Wrap(err, "duplicates: flush output")
	}

	zap.L().Info("duplicate scan complete",
		zap.String("listing_id", listingID),
		zap.Int("similar", len(results)),
	)
	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
