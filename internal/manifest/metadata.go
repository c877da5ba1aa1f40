// Package manifest provides the JSON files shared between pipeline steps:
// the squares metadata and the saved grid config.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"bingo-kit/internal/extract"
	"bingo-kit/internal/grid"
	"bingo-kit/pkg/geometry"
)

// FileName is the metadata file written into a squares directory.
const FileName = "metadata.json"

// ErrNoMetadata is returned when a squares directory has no metadata file.
var ErrNoMetadata = errors.New("no metadata")

// Size is a width and height. It is written as a {"width","height"}
// object.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Dims is a per-square size. It is written as [w, h] and read from either
// that form or a {"width","height"} object.
type Dims Size

// MarshalJSON implements json.Marshaler.
func (d Dims) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{d.Width, d.Height})
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Dims) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("size must have 2 values, got %d", len(pair))
		}
		d.Width, d.Height = pair[0], pair[1]
		return nil
	}
	var s Size
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*d = Dims(s)
	return nil
}

// Detection records how the grid lines were obtained.
type Detection struct {
	Confidence string `json:"confidence"`
	Method     string `json:"method,omitempty"`
	Pass       int    `json:"pass,omitempty"` // 1 or 2; 0 when not detected
}

// Square describes one saved square.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`

	// ExtractionBounds is [left, top, right, bottom] in source image
	// coordinates, right and bottom exclusive.
	ExtractionBounds *[4]int `json:"extraction_bounds,omitempty"`
	Size             Dims    `json:"size"`
	Resized          bool    `json:"resized,omitempty"`
	Label            string  `json:"label,omitempty"`
}

// Cell returns the grid cell of the square.
func (s Square) Cell() grid.Cell {
	return grid.Cell{Row: s.Row, Col: s.Col}
}

// Rect returns the extraction rectangle, if recorded.
func (s Square) Rect() (geometry.RectInt, bool) {
	if s.ExtractionBounds == nil {
		return geometry.RectInt{}, false
	}
	return geometry.FromBox(*s.ExtractionBounds), true
}

// Metadata describes one extraction run. It is stored as metadata.json in
// the squares directory.
type Metadata struct {
	SourceImage  string            `json:"source_image,omitempty"`
	Created      time.Time         `json:"created"`
	SquareSize   Size              `json:"square_size"`
	GridBounds   geometry.Bounds   `json:"grid_bounds"`
	GridLines    *grid.Lines       `json:"grid_lines,omitempty"`
	Detection    *Detection        `json:"detection,omitempty"`
	Mode         string            `json:"mode,omitempty"`
	LineBuffer   int               `json:"line_buffer,omitempty"`
	LineWidth    int               `json:"line_width_estimate,omitempty"`
	TotalSquares int               `json:"total_squares"`
	Squares      map[string]Square `json:"squares"`
}

// UnmarshalJSON accepts the older detected_lines key for grid_lines.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	type plain Metadata
	aux := struct {
		*plain
		DetectedLines *grid.Lines `json:"detected_lines,omitempty"`
	}{plain: (*plain)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if m.GridLines == nil && aux.DetectedLines != nil {
		m.GridLines = aux.DetectedLines
	}
	return nil
}

// New builds metadata for an extraction run. det may be nil when the
// bounds were not detected.
func New(source string, res *extract.Result, det *grid.Result) *Metadata {
	lines := res.Lines
	m := &Metadata{
		SourceImage:  source,
		Created:      time.Now(),
		SquareSize:   Size{Width: res.Width, Height: res.Height},
		GridBounds:   res.Bounds,
		GridLines:    &lines,
		Mode:         res.Mode.String(),
		LineBuffer:   res.Buffer,
		LineWidth:    res.LineWidth,
		TotalSquares: len(res.Squares),
		Squares:      make(map[string]Square, len(res.Squares)),
	}
	if det != nil {
		m.Detection = &Detection{
			Confidence: det.Confidence.String(),
			Method:     det.Params.Method.String(),
		}
		switch det.Confidence {
		case grid.ConfidenceDetected:
			m.Detection.Pass = 1
		case grid.ConfidenceRelaxed:
			m.Detection.Pass = 2
		}
	}
	for _, sq := range res.Squares {
		box := sq.Bounds.Box()
		m.Squares[sq.Cell.FileName()] = Square{
			Row:              sq.Cell.Row,
			Col:              sq.Cell.Col,
			ExtractionBounds: &box,
			Size:             Dims{Width: res.Width, Height: res.Height},
			Resized:          sq.Resized,
		}
	}
	return m
}

// Path returns the metadata path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Load reads the metadata of a squares directory.
func Load(dir string) (*Metadata, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w in %s", ErrNoMetadata, dir)
		}
		return nil, err
	}

	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", Path(dir), err)
	}
	if m.Squares == nil {
		m.Squares = map[string]Square{}
	}
	return &m, nil
}

// Save writes the metadata into dir, replacing any earlier run.
func (m *Metadata) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(Path(dir), data, 0644)
}

// Square returns the entry for cell c.
func (m *Metadata) Square(c grid.Cell) (Square, bool) {
	sq, ok := m.Squares[c.FileName()]
	return sq, ok
}

// SetLabel records the text read from the square of cell c.
func (m *Metadata) SetLabel(c grid.Cell, label string) {
	sq, ok := m.Squares[c.FileName()]
	if !ok {
		sq = Square{Row: c.Row, Col: c.Col, Size: Dims(m.SquareSize)}
	}
	sq.Label = label
	m.Squares[c.FileName()] = sq
}

// Lines returns the recorded grid lines, or even lines over the grid
// bounds when none were recorded.
func (m *Metadata) Lines() grid.Lines {
	if m.GridLines != nil && m.GridLines.Validate() == nil {
		return *m.GridLines
	}
	return grid.EvenLines(m.GridBounds)
}

// Cells returns the cells present in the metadata in row-major order.
func (m *Metadata) Cells() []grid.Cell {
	cells := make([]grid.Cell, 0, len(m.Squares))
	for _, sq := range m.Squares {
		cells = append(cells, sq.Cell())
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Row != cells[j].Row {
			return cells[i].Row < cells[j].Row
		}
		return cells[i].Col < cells[j].Col
	})
	return cells
}
