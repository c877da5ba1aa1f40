package main

import (
	"context"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bingo-kit/internal/card"
	"bingo-kit/internal/grid"
	"bingo-kit/internal/manifest"
	"bingo-kit/internal/ocr"
)

func (a *app) labelCmd() *cobra.Command {
	var engine string
	cmd := &cobra.Command{
		Use:   "label <squares_dir>",
		Short: "Read the text of every square and report duplicates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if err := requireDir(dir); err != nil {
				return err
			}
			if !cmd.Flags().Changed("engine") {
				engine = a.cfg.OCR.Engine
			}

			meta, err := manifest.Load(dir)
			if err != nil {
				return err
			}
			squares, err := card.LoadSquares(dir)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			labeler, err := a.newLabeler(ctx, engine)
			if err != nil {
				return err
			}
			defer labeler.Close()

			if err := ocr.LabelSquares(ctx, labeler, squares, meta); err != nil {
				return err
			}
			if err := meta.Save(dir); err != nil {
				return err
			}
			log.WithFields(log.Fields{"engine": engine, "squares": len(squares)}).Info("labelled squares")

			w := cmd.OutOrStdout()
			printLabels(w, meta)
			printGroups(w, "duplicates", ocr.Duplicates(meta))
			printGroups(w, "near duplicates", ocr.NearDuplicates(meta, a.cfg.OCR.Similarity))
			return nil
		},
	}
	cmd.Flags().StringVar(&engine, "engine", "tesseract", "OCR engine: tesseract or gemini")
	return cmd
}

func (a *app) newLabeler(ctx context.Context, engine string) (ocr.Labeler, error) {
	switch engine {
	case "tesseract":
		return ocr.NewEngine(a.cfg.OCR.Language)
	case "gemini":
		return ocr.NewGeminiLabeler(ctx, a.cfg.OCR.Project, a.cfg.OCR.Region, a.cfg.OCR.Model)
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", engine)
	}
}

func printLabels(w io.Writer, meta *manifest.Metadata) {
	for _, c := range meta.Cells() {
		sq, _ := meta.Square(c)
		fmt.Fprintf(w, "%s %q\n", c, sq.Label)
	}
}

func printGroups(w io.Writer, title string, groups []ocr.Group) {
	if len(groups) == 0 {
		fmt.Fprintf(w, "%s: none\n", title)
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, g := range groups {
		fmt.Fprintf(w, "  %q at %v\n", g.Label, cellList(g.Cells))
	}
}

func cellList(cells []grid.Cell) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.String()
	}
	return out
}
