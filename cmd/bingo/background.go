package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bingo-kit/internal/background"
	cardimage "bingo-kit/internal/image"
	"bingo-kit/internal/manifest"
)

func (a *app) backgroundCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "background <image> <squares_dir> [out]",
		Short: "Rebuild the background templates from saved metadata",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := a.cfg.Output.Background
			if len(args) > 2 {
				out = args[2]
			}
			if err := requireFile(args[0]); err != nil {
				return err
			}
			if err := requireDir(args[1]); err != nil {
				return err
			}

			meta, err := manifest.Load(args[1])
			if err != nil {
				return err
			}
			img, err := cardimage.Load(args[0])
			if err != nil {
				return err
			}

			white, err := background.Build(img, meta.GridBounds).Save(out)
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{
				"bounds":      meta.GridBounds.String(),
				"transparent": out,
				"white":       white,
			}).Info("saved background templates")
			return nil
		},
	}
}
