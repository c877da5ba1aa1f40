package main

import (
	"errors"
	"image"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bingo-kit/internal/card"
	"bingo-kit/internal/grid"
	cardimage "bingo-kit/internal/image"
	"bingo-kit/internal/manifest"
)

// deck is everything needed to compose cards.
type deck struct {
	background image.Image
	squares    card.Squares
	layout     card.Layout
}

func loadDeck(backgroundPath, squaresDir string) (*deck, error) {
	if err := requireFile(backgroundPath); err != nil {
		return nil, err
	}
	if err := requireDir(squaresDir); err != nil {
		return nil, err
	}

	bg, err := cardimage.Load(backgroundPath)
	if err != nil {
		return nil, err
	}
	squares, err := card.LoadSquares(squaresDir)
	if err != nil {
		return nil, err
	}

	var layout card.Layout
	meta, err := manifest.Load(squaresDir)
	switch {
	case err == nil:
		layout = card.LayoutFromMetadata(meta)
	case errors.Is(err, manifest.ErrNoMetadata):
		b := bg.Bounds()
		layout = card.FallbackLayout(b.Dx(), b.Dy())
	default:
		return nil, err
	}
	return &deck{background: bg, squares: squares, layout: layout}, nil
}

// seedFlag resolves the effective seed: the flag when given, else the
// configured seed, else the clock.
func (a *app) seedFlag(cmd *cobra.Command, seed int64) int64 {
	if !cmd.Flags().Changed("seed") {
		seed = a.cfg.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return seed
}

// freeFlag resolves the free-space cell from the flag or the config.
func (a *app) freeFlag(cmd *cobra.Command, free string) (grid.Cell, error) {
	if cmd.Flags().Changed("free") {
		return grid.ParseCell(free)
	}
	return a.cfg.FreeCell()
}

func (a *app) composeCmd() *cobra.Command {
	var (
		noShuffle bool
		seed      int64
		free      string
	)
	cmd := &cobra.Command{
		Use:   "compose <background> <squares_dir> <out>",
		Short: "Compose one card from a background and squares",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeck(args[0], args[1])
			if err != nil {
				return err
			}
			freeCell, err := a.freeFlag(cmd, free)
			if err != nil {
				return err
			}

			s := a.seedFlag(cmd, seed)
			opts := card.Options{
				Shuffle: a.cfg.Compose.Shuffle && !noShuffle,
				Free:    freeCell,
				Rand:    rand.New(rand.NewSource(s)),
			}
			c, err := card.Compose(d.background, d.squares, d.layout, opts)
			if err != nil {
				return err
			}
			if err := c.Save(args[2]); err != nil {
				return err
			}

			fields := log.Fields{"path": args[2], "shuffled": opts.Shuffle}
			if opts.Shuffle {
				fields["seed"] = s
			}
			if len(c.Missing) > 0 {
				fields["missing"] = len(c.Missing)
			}
			log.WithFields(fields).Info("saved card")
			return nil
		},
	}
	cmd.Flags().BoolVar(&noShuffle, "no-shuffle", false, "keep every square on its own cell")
	cmd.Flags().Int64Var(&seed, "seed", 0, "shuffle seed (0 uses the clock)")
	cmd.Flags().StringVar(&free, "free", "", "free-space cell as row,col")
	return cmd
}
