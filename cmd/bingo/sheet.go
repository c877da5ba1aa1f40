package main

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cardimage "bingo-kit/internal/image"
	"bingo-kit/internal/sheet"
)

func (a *app) sheetCmd() *cobra.Command {
	var (
		gifPath string
		pdfPath string
		delay   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "sheet <inputs...>",
		Short: "Bundle card images into a GIF preview or a printable PDF",
		Long: "Inputs may be image files, directories or glob patterns; " +
			"they are ordered naturally (card-2 before card-10).",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if gifPath == "" && pdfPath == "" {
				return fmt.Errorf("nothing to write: pass --gif and/or --pdf")
			}
			paths, err := cardimage.CollectImages(args)
			if err != nil {
				return err
			}
			opts := sheet.DefaultGIFOptions()
			opts.Delay = delay
			return writeSheets(paths, gifPath, pdfPath, opts)
		},
	}
	cmd.Flags().StringVar(&gifPath, "gif", "", "animated GIF output path")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "PDF output path")
	cmd.Flags().DurationVar(&delay, "delay", sheet.DefaultGIFOptions().Delay, "GIF frame delay")
	return cmd
}

func writeSheets(paths []string, gifPath, pdfPath string, opts sheet.GIFOptions) error {
	if gifPath != "" {
		if err := sheet.WriteGIF(paths, gifPath, opts); err != nil {
			return err
		}
		log.WithFields(log.Fields{"path": gifPath, "frames": len(paths)}).Info("saved GIF preview")
	}
	if pdfPath != "" {
		if err := sheet.WritePDF(paths, pdfPath); err != nil {
			return err
		}
		log.WithFields(log.Fields{"path": pdfPath, "pages": len(paths)}).Info("saved PDF")
	}
	return nil
}
