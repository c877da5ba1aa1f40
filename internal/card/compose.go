package card

import (
	"errors"
	"fmt"
	"image"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	cardimage "bingo-kit/internal/image"
	"bingo-kit/internal/grid"
	"bingo-kit/pkg/colorutil"
)

// Squares maps each source cell to its square image.
type Squares map[grid.Cell]image.Image

// LoadSquares reads square_{row}_{col}.png for all 25 cells of dir.
// Missing files are logged and left out.
func LoadSquares(dir string) (Squares, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("squares directory: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("squares directory: %s is not a directory", dir)
	}

	squares := make(Squares, grid.Size*grid.Size)
	for _, c := range grid.AllCells() {
		path := filepath.Join(dir, c.FileName())
		img, err := cardimage.Load(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.WithField("path", path).Warn("square not found")
				continue
			}
			return nil, err
		}
		squares[c] = img
	}
	if len(squares) != grid.Size*grid.Size {
		log.WithField("found", len(squares)).Warn("expected 25 squares")
	}
	return squares, nil
}

// Positions returns the cells other than free in row-major order.
func Positions(free grid.Cell) []grid.Cell {
	out := make([]grid.Cell, 0, grid.Size*grid.Size-1)
	for _, c := range grid.AllCells() {
		if c != free {
			out = append(out, c)
		}
	}
	return out
}

// Shuffle permutes cells in place with a Fisher-Yates shuffle drawn from
// rng.
func Shuffle(cells []grid.Cell, rng *rand.Rand) {
	rng.Shuffle(len(cells), func(i, j int) {
		cells[i], cells[j] = cells[j], cells[i]
	})
}

// Options configures Compose.
type Options struct {
	Shuffle bool
	Free    grid.Cell
	Rand    *rand.Rand // seeded from the clock when nil
}

// DefaultOptions shuffles around the centre free space.
func DefaultOptions() Options {
	return Options{Shuffle: true, Free: grid.FreeSpace}
}

// Placement records which source square landed on a target cell.
type Placement struct {
	Target grid.Cell `json:"target"`
	Source grid.Cell `json:"source"`
}

// Card is a composed card.
type Card struct {
	Image      *image.RGBA
	Placements []Placement // row-major by target, free space included
	Missing    []grid.Cell // targets left empty because their square was missing
}

// Compose pastes squares onto bg following layout. The free-space square
// stays on its own cell; the other 24 fill the remaining cells in
// row-major order, shuffled when opts.Shuffle is set. Each square's alpha
// is its paste mask, and the result is flattened onto white.
func Compose(bg image.Image, squares Squares, layout Layout, opts Options) (*Card, error) {
	if !opts.Free.Valid() {
		return nil, fmt.Errorf("free space %s outside the grid", opts.Free)
	}

	sources := Positions(opts.Free)
	if opts.Shuffle {
		rng := opts.Rand
		if rng == nil {
			rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		Shuffle(sources, rng)
	}

	canvas := cardimage.ToNRGBA(bg)
	card := &Card{}
	next := 0
	for _, target := range grid.AllCells() {
		source := target
		if target != opts.Free {
			source = sources[next]
			next++
		}
		card.Placements = append(card.Placements, Placement{Target: target, Source: source})

		sq, ok := squares[source]
		if !ok {
			log.WithFields(log.Fields{
				"target": target.String(),
				"source": source.String(),
			}).Warn("square missing, leaving cell empty")
			card.Missing = append(card.Missing, target)
			continue
		}
		cardimage.Paste(canvas, sq, layout.Origin(target), cardimage.PasteOver)
	}

	card.Image = cardimage.Flatten(canvas, colorutil.White)
	return card, nil
}

// Save writes the card image as PNG.
func (c *Card) Save(path string) error {
	return cardimage.SavePNG(path, c.Image)
}

// FileName returns the name of the i-th dealt card, counting from 1.
func FileName(i int) string {
	return fmt.Sprintf("card-%03d.png", i)
}

// Deal composes n shuffled cards. Card i is drawn from seed+i, so a deal
// is reproducible for a fixed seed.
func Deal(bg image.Image, squares Squares, layout Layout, n int, seed int64, free grid.Cell) ([]*Card, error) {
	if n < 1 {
		return nil, fmt.Errorf("card count must be positive, got %d", n)
	}
	cards := make([]*Card, 0, n)
	for i := 0; i < n; i++ {
		c, err := Compose(bg, squares, layout, Options{
			Shuffle: true,
			Free:    free,
			Rand:    rand.New(rand.NewSource(seed + int64(i))),
		})
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// SaveAll writes cards into dir as card-001.png, card-002.png, ...
// and returns the written paths.
func SaveAll(cards []*Card, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(cards))
	for i, c := range cards {
		path := filepath.Join(dir, FileName(i+1))
		if err := c.Save(path); err != nil {
			return paths, fmt.Errorf("failed to save %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
