package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bingo-kit/internal/card"
	"bingo-kit/internal/grid"
	cardimage "bingo-kit/internal/image"
	"bingo-kit/internal/manifest"
	"bingo-kit/internal/verify"
)

const (
	verificationGridName = "verification_grid.png"
	comparisonName       = "comparison.png"
)

func (a *app) verifyCmd() *cobra.Command {
	var (
		original   string
		background string
		out        string
	)
	cmd := &cobra.Command{
		Use:   "verify <squares_dir>",
		Short: "Render verification images and check the round trip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if err := requireDir(dir); err != nil {
				return err
			}
			if out == "" {
				out = dir
			}
			if background == "" {
				background = a.cfg.Output.Background
			}

			meta, err := manifest.Load(dir)
			if err != nil {
				return err
			}
			squares, err := card.LoadSquares(dir)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(out, 0o755); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "squares: %d of 25, size %dx%d\n", len(squares), meta.SquareSize.Width, meta.SquareSize.Height)
			uniformErr := verify.UniformSize(squares, meta.SquareSize)
			if uniformErr != nil {
				fmt.Fprintf(w, "size check: %v\n", uniformErr)
			}

			gridPath := filepath.Join(out, verificationGridName)
			if err := cardimage.SavePNG(gridPath, verify.Grid(squares, meta.SquareSize)); err != nil {
				return err
			}
			log.WithField("path", gridPath).Info("saved verification grid")

			if original == "" {
				original = meta.SourceImage
			}
			if original == "" {
				log.Warn("no original image recorded, skipping comparison")
				return uniformErr
			}
			if err := requireFile(original); err != nil {
				return err
			}
			orig, err := cardimage.Load(original)
			if err != nil {
				return err
			}

			cmpPath := filepath.Join(out, comparisonName)
			if err := cardimage.SavePNG(cmpPath, verify.Compare(orig, squares, meta)); err != nil {
				return err
			}
			log.WithField("path", cmpPath).Info("saved comparison")

			if _, err := os.Stat(background); err != nil {
				log.WithField("background", background).Warn("background not found, skipping round trip")
				return uniformErr
			}
			bg, err := cardimage.Load(background)
			if err != nil {
				return err
			}
			rep, err := verify.RoundTrip(orig, bg, squares, meta)
			if err != nil {
				return err
			}
			printReport(w, rep)
			return uniformErr
		},
	}
	cmd.Flags().StringVar(&original, "original", "", "source image (default from metadata)")
	cmd.Flags().StringVar(&background, "background", "", "transparent background template (default from config)")
	cmd.Flags().StringVar(&out, "out", "", "output directory (default the squares directory)")
	return cmd
}

func printReport(w io.Writer, rep verify.Report) {
	if rep.Exact() {
		fmt.Fprintf(w, "round trip: exact (%d pixels)\n", rep.Checked)
		return
	}
	fmt.Fprintf(w, "round trip: %d of %d pixels differ, max delta %d\n", rep.Differing, rep.Checked, rep.MaxDelta)
	for _, c := range grid.AllCells() {
		if n := rep.PerCell[c]; n > 0 {
			fmt.Fprintf(w, "  %s: %d\n", c, n)
		}
	}
	for _, c := range rep.Missing {
		fmt.Fprintf(w, "  %s: missing\n", c)
	}
}
