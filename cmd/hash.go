package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/bazarlink/match-cli/internal/imagehash"
)

var hashCmd = &cobra.Command{
	Use:   "hash <image>...",
	Short: "Compute perceptual hashes for image files",
	Long: `Computes the perceptual fingerprint used by duplicate detection for
one or more image files (PNG or JPEG).

Examples:
  # Production perceptual hash
  hash photo1.jpg photo2.jpg

  # Compare two images directly
  hash --compare photo1.jpg photo2.jpg

  # Alternative algorithms
  hash --algorithm dhash photo.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHash,
}

func init() {
	f := hashCmd.Flags()
	f.String("algorithm", string(imagehash.AlgorithmPerception), "hash algorithm: phash, ahash, or dhash")
	f.Bool("compare", false, "compare exactly two images and print their hamming distance")

	rootCmd.AddCommand(hashCmd)
}

func runHash(cmd *cobra.Command, args []string) error {
	algorithm, _ := cmd.Flags().GetString("algorithm")
	compare, _ := cmd.Flags().GetBool("compare")

	alg := imagehash.Algorithm(algorithm)
	switch alg {
	case imagehash.AlgorithmPerception, imagehash.AlgorithmAverage, imagehash.AlgorithmDifference:
	default:
		return eris.Errorf("hash: unknown algorithm %q", algorithm)
	}

	hasher := imagehash.New(cfg.Hash)

	hashes := make([]string, 0, len(args))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return eris.Wrapf(err, "hash: read %s", path)
		}
		h, err := hasher.ComputeHashWith(data, alg)
		if err != nil {
			return eris.Wrapf(err, "hash: %s", path)
		}
		hashes = append(hashes, h)
		fmt.Fprintf(w, "%s\t%s\n", path, h)
	}
	if err := w.Flush(); err != nil {
		return eris.Wrap(err, "hash: flush output")
	}

	if compare {
		if len(hashes) != 2 {
			return eris.Errorf("hash: --compare needs exactly 2 images (got %d)", len(hashes))
		}
		d := hasher.HammingDistance(hashes[0], hashes[1])
		if d == imagehash.DistanceUnknown {
			return eris.New("hash: hashes are not comparable")
		}
		fmt.Printf("distance: %d (threshold %d, similar: %s)\n", d, hasher.Threshold(), yesNo(hasher.AreSimilar(hashes[0], hashes[1])))
	}

	return nil
}
