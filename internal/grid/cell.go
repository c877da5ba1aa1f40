// Package grid locates the 5×5 cell grid of a bingo card image.
package grid

import (
	"errors"
	"fmt"
)

// Size is the number of cells per row and column.
const Size = 5

// Cell identifies one grid compartment.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// FreeSpace is the centre cell, exempt from shuffling.
var FreeSpace = Cell{Row: 2, Col: 2}

// AllCells returns the 25 cells in row-major order.
func AllCells() []Cell {
	cells := make([]Cell, 0, Size*Size)
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			cells = append(cells, Cell{Row: row, Col: col})
		}
	}
	return cells
}

// Valid reports whether the cell lies on the grid.
func (c Cell) Valid() bool {
	return c.Row >= 0 && c.Row < Size && c.Col >= 0 && c.Col < Size
}

// FileName returns the square image name for the cell.
func (c Cell) FileName() string {
	return fmt.Sprintf("square_%d_%d.png", c.Row, c.Col)
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// ErrBadCellName is returned for names that are not square_{row}_{col}.png.
var ErrBadCellName = errors.New("not a square file name")

// ParseCellFileName is the inverse of Cell.FileName.
func ParseCellFileName(name string) (Cell, error) {
	var c Cell
	var rest string
	n, _ := fmt.Sscanf(name, "square_%d_%d%s", &c.Row, &c.Col, &rest)
	if n != 3 || rest != ".png" || !c.Valid() {
		return Cell{}, fmt.Errorf("%w: %q", ErrBadCellName, name)
	}
	return c, nil
}

// ParseCell parses "row,col".
func ParseCell(s string) (Cell, error) {
	var c Cell
	if _, err := fmt.Sscanf(s, "%d,%d", &c.Row, &c.Col); err != nil {
		return Cell{}, fmt.Errorf("bad cell %q: %w", s, err)
	}
	if !c.Valid() {
		return Cell{}, fmt.Errorf("cell %s outside the %dx%d grid", c, Size, Size)
	}
	return c, nil
}
