package sheet

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	log "github.com/sirupsen/logrus"

	cardimage "bingo-kit/internal/image"
)

// pdfcpu embeds these formats directly; anything else is re-encoded as
// PNG first.
var pdfFormats = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true, ".webp": true,
}

// WritePDF writes one image per page to out, each page sized to its image.
func WritePDF(paths []string, out string) (err error) {
	if len(paths) == 0 {
		return fmt.Errorf("no pages to write")
	}

	// pdfcpu panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf import panicked: %v", r)
		}
	}()

	pages, cleanup, err := pdfInputs(paths)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
		return err
	}

	imp := pdfcpu.DefaultImportConfig()
	conf := model.NewDefaultConfiguration()
	if err := api.ImportImagesFile(pages, out, imp, conf); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	log.WithFields(log.Fields{"path": out, "pages": len(pages)}).Info("wrote pdf")
	return nil
}

// pdfInputs converts unsupported formats to temporary PNG files.
func pdfInputs(paths []string) ([]string, func(), error) {
	var tmp string
	cleanup := func() {
		if tmp != "" {
			os.RemoveAll(tmp)
		}
	}

	out := make([]string, 0, len(paths))
	for i, p := range paths {
		if pdfFormats[strings.ToLower(filepath.Ext(p))] {
			out = append(out, p)
			continue
		}
		if tmp == "" {
			dir, err := os.MkdirTemp("", "bingo-pdf-")
			if err != nil {
				return nil, cleanup, err
			}
			tmp = dir
		}
		img, err := cardimage.Load(p)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		conv := filepath.Join(tmp, fmt.Sprintf("page-%03d.png", i+1))
		if err := cardimage.SavePNG(conv, img); err != nil {
			cleanup()
			return nil, func() {}, err
		}
		out = append(out, conv)
	}
	return out, cleanup, nil
}
