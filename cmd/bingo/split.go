package main

import (
	"fmt"
	"image"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bingo-kit/internal/background"
	"bingo-kit/internal/extract"
	"bingo-kit/internal/grid"
	cardimage "bingo-kit/internal/image"
	"bingo-kit/internal/manifest"
	"bingo-kit/internal/overlay"
	"bingo-kit/pkg/geometry"
)

// debugOverlayName is written next to the squares by split --debug.
const debugOverlayName = "extraction_debug.png"

type splitOptions struct {
	squaresDir string
	background string
	bounds     string
	saveConfig bool
	debug      bool
	extract    extract.Options
}

func (a *app) splitCmd() *cobra.Command {
	var (
		mode      string
		bounds    string
		lineWidth int
		noSave    bool
		debug     bool
	)
	cmd := &cobra.Command{
		Use:   "split <image> [squares_dir] [background]",
		Short: "Cut a card into 25 squares and a background template",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := splitOptions{
				squaresDir: a.cfg.Output.SquaresDir,
				background: a.cfg.Output.Background,
				bounds:     bounds,
				saveConfig: a.cfg.Output.SaveGridConfig && !noSave,
				debug:      debug,
			}
			if len(args) > 1 {
				opts.squaresDir = args[1]
			}
			if len(args) > 2 {
				opts.background = args[2]
			}

			var err error
			if opts.extract, err = a.cfg.ExtractOptions(); err != nil {
				return err
			}
			if cmd.Flags().Changed("mode") {
				if opts.extract.Mode, err = extract.ParseMode(mode); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("line-width") {
				opts.extract.LineWidth = lineWidth
			}
			return a.split(args[0], opts)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "extraction mode: interior, cell or even")
	cmd.Flags().StringVar(&bounds, "bounds", "", "manual grid bounds as top,bottom,left,right")
	cmd.Flags().IntVar(&lineWidth, "line-width", 0, "grid line width in pixels (0 estimates it)")
	cmd.Flags().BoolVar(&noSave, "no-save-config", false, "do not record the bounds in the grid config")
	cmd.Flags().BoolVar(&debug, "debug", false, "write an overlay of the crop rectangles next to the squares")
	return cmd
}

func (a *app) split(imagePath string, opts splitOptions) error {
	if err := requireFile(imagePath); err != nil {
		return err
	}
	img, err := cardimage.Load(imagePath)
	if err != nil {
		return err
	}

	det, err := a.locateGrid(img, imagePath, opts.bounds)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"bounds":     det.Bounds.String(),
		"confidence": det.Confidence.String(),
	}).Info("grid located")

	res, err := extract.Extract(img, det.Lines, det.Bounds, opts.extract)
	if err != nil {
		return fmt.Errorf("failed to extract squares: %w", err)
	}
	if err := res.Save(opts.squaresDir); err != nil {
		return err
	}
	if err := manifest.New(imagePath, res, det).Save(opts.squaresDir); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"dir":     opts.squaresDir,
		"squares": len(res.Squares),
		"size":    fmt.Sprintf("%dx%d", res.Width, res.Height),
		"resized": res.ResizedCount(),
	}).Info("saved squares")

	white, err := background.Build(img, det.Bounds).Save(opts.background)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"transparent": opts.background, "white": white}).Info("saved background templates")

	if opts.debug {
		a.writeExtractionOverlay(img, res, filepath.Join(opts.squaresDir, debugOverlayName))
	}

	// Measured lines are not evenly spaced in general; saving only their
	// bounds would replace them with even lines on the next run.
	if opts.saveConfig && !det.Confidence.Trusted() {
		gc := manifest.LoadGridConfig(a.cfg.Output.GridConfig)
		gc.Put(manifest.Key(imagePath), det.Bounds)
		if err := gc.Save(); err != nil {
			return fmt.Errorf("failed to save grid config: %w", err)
		}
		log.WithField("path", gc.Path()).Info("saved grid bounds")
	}
	return nil
}

// locateGrid picks the grid from, in order, the --bounds flag, the saved
// grid config and detection.
func (a *app) locateGrid(img image.Image, imagePath, boundsFlag string) (*grid.Result, error) {
	if boundsFlag != "" {
		b, err := parseBounds(boundsFlag)
		if err != nil {
			return nil, err
		}
		return grid.FromBounds(b, grid.ConfidenceManual), nil
	}

	if b, ok := manifest.LoadGridConfig(a.cfg.Output.GridConfig).Lookup(manifest.Key(imagePath)); ok {
		if b.Valid() {
			return grid.FromBounds(b, grid.ConfidenceSaved), nil
		}
		log.WithField("bounds", b.String()).Warn("ignoring invalid saved bounds")
	}

	params, err := a.cfg.DetectionParams()
	if err != nil {
		return nil, err
	}
	return grid.Detect(img, params)
}

// parseBounds parses "top,bottom,left,right".
func parseBounds(s string) (geometry.Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geometry.Bounds{}, fmt.Errorf("bounds %q: want top,bottom,left,right", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return geometry.Bounds{}, fmt.Errorf("bounds %q: %w", s, err)
		}
		v[i] = n
	}
	b := geometry.Bounds{Top: v[0], Bottom: v[1], Left: v[2], Right: v[3]}
	if !b.Valid() {
		return geometry.Bounds{}, fmt.Errorf("bounds %q describe an empty area", s)
	}
	return b, nil
}

func (a *app) writeExtractionOverlay(img image.Image, res *extract.Result, path string) {
	vis, err := overlay.Extraction(img, res)
	if err == nil {
		err = cardimage.SavePNG(path, vis)
	}
	if err != nil {
		log.WithError(err).Warn("failed to write extraction overlay")
		return
	}
	log.WithField("path", path).Info("saved extraction overlay")
}
