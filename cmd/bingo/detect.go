package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bingo-kit/internal/grid"
	cardimage "bingo-kit/internal/image"
	"bingo-kit/internal/overlay"
)

func (a *app) detectCmd() *cobra.Command {
	var (
		out    string
		method string
	)
	cmd := &cobra.Command{
		Use:   "detect <image>",
		Short: "Detect grid lines and write a debug overlay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFile(args[0]); err != nil {
				return err
			}
			params, err := a.cfg.DetectionParams()
			if err != nil {
				return err
			}
			if method != "" {
				m, err := grid.ParseScanMethod(method)
				if err != nil {
					return err
				}
				params = params.WithMethod(m)
			}

			img, err := cardimage.Load(args[0])
			if err != nil {
				return err
			}
			res, err := grid.Detect(img, params)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "confidence: %s\n", res.Confidence)
			fmt.Fprintf(w, "bounds:     %s\n", res.Bounds)
			fmt.Fprintf(w, "horizontal: %v\n", res.Lines.Horizontal)
			fmt.Fprintf(w, "vertical:   %v\n", res.Lines.Vertical)
			if res.Confidence.Trusted() {
				fmt.Fprintf(w, "spacing variance: rows %.1f, cols %.1f\n", res.RowVariance, res.ColVariance)
			}

			vis, err := overlay.Detection(img, res)
			if err != nil {
				return fmt.Errorf("failed to draw overlay: %w", err)
			}
			if err := cardimage.SavePNG(out, vis); err != nil {
				return err
			}
			log.WithField("path", out).Info("saved detection overlay")
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "grid_detection.png", "overlay output path")
	cmd.Flags().StringVar(&method, "method", "", "scan method: dark-run or edge")
	return cmd
}
