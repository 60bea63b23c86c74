package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bazarlink/match-cli/internal/imagehash"
	"github.com/bazarlink/match-cli/internal/store"
)

// importListing is a listing row plus optional local photo paths to hash at
// import time.
type importListing struct {
	store.Listing
	ImagePaths []string `json:"image_paths,omitempty"`
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-load listings and requirements from JSON files",
	Long: `Loads listings and requirements from JSON arrays into the store.
Listings may carry an "image_paths" field with local photo files; each is
hashed at import time and stored alongside any pre-computed hashes.

Examples:
  import --listings listings.json
  import --requirements requirements.json
  import --listings listings.json --requirements requirements.json`,
	RunE: runImport,
}

func init() {
	f := importCmd.Flags()
	f.String("listings", "", "path to a JSON array of listings")
	f.String("requirements", "", "path to a JSON array of requirements")

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listingsPath, _ := cmd.Flags().GetString("listings")
	requirementsPath, _ := cmd.Flags().GetString("requirements")

	if listingsPath == "" && requirementsPath == "" {
		return eris.New("import: at least one of --listings or --requirements is required")
	}

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if listingsPath != "" {
		n, err := importListings(ctx, s, listingsPath)
		if err != nil {
			return err
		}
		zap.L().Info("listings imported", zap.Int("count", n), zap.String("file", listingsPath))
	}

	if requirementsPath != "" {
		n, err := importRequirements(ctx, s, requirementsPath)
		if err != nil {
			return err
		}
		zap.L().Info("requirements imported", zap.Int("count", n), zap.String("file", requirementsPath))
	}

	return nil
}

func importListings(ctx context.Context, s store.Store, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, eris.Wrap(err, "import: read listings file")
	}
	var rows []importListing
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, eris.Wrap(err, "import: decode listings")
	}

	hasher := imagehash.New(cfg.Hash)
	for i := range rows {
		for _, imgPath := range rows[i].ImagePaths {
			img, err := os.ReadFile(imgPath)
			if err != nil {
				return 0, eris.Wrapf(err, "import: read image %s", imgPath)
			}
			h, err := hasher.ComputeHash(img)
			if err != nil {
				zap.L().Warn("import: image not hashable, skipping",
					zap.String("path", imgPath),
					zap.Error(err),
				)
				continue
			}
			rows[i].ImageHashes = append(rows[i].ImageHashes, h)
		}
		if err := s.CreateListing(ctx, &rows[i].Listing); err != nil {
			return 0, eris.Wrapf(err, "import: listing %d", i)
		}
	}
	return len(rows), nil
}

func importRequirements(ctx context.Context, s store.Store, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, eris.Wrap(err, "import: read requirements file")
	}
	var rows []store.Requirement
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, eris.Wrap(err, "import: decode requirements")
	}
	for i := range rows {
		if err := s.CreateRequirement(ctx, &rows[i]); err != nil {
			return 0, eris.Wrapf(err, "import: requirement %d", i)
		}
	}
	return len(rows), nil
}
