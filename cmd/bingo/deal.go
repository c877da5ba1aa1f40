package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bingo-kit/internal/card"
	"bingo-kit/internal/sheet"
)

func (a *app) dealCmd() *cobra.Command {
	var (
		count   int
		seed    int64
		free    string
		gifPath string
		pdfPath string
	)
	cmd := &cobra.Command{
		Use:   "deal <background> <squares_dir> <out_dir>",
		Short: "Compose a batch of shuffled cards",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("count") {
				count = a.cfg.Compose.Count
			}
			d, err := loadDeck(args[0], args[1])
			if err != nil {
				return err
			}
			freeCell, err := a.freeFlag(cmd, free)
			if err != nil {
				return err
			}

			s := a.seedFlag(cmd, seed)
			cards, err := card.Deal(d.background, d.squares, d.layout, count, s, freeCell)
			if err != nil {
				return err
			}
			paths, err := card.SaveAll(cards, args[2])
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{"dir": args[2], "cards": len(paths), "seed": s}).Info("dealt cards")

			return writeSheets(paths, gifPath, pdfPath, sheet.DefaultGIFOptions())
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 10, "number of cards")
	cmd.Flags().Int64Var(&seed, "seed", 0, "base seed; card i uses seed+i (0 uses the clock)")
	cmd.Flags().StringVar(&free, "free", "", "free-space cell as row,col")
	cmd.Flags().StringVar(&gifPath, "gif", "", "also write an animated GIF preview")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "also write a PDF with one card per page")
	return cmd
}
