package model

// Tile classifies one cell of a zone.
type Tile byte

const (
	Plain Tile = 0
	Swamp Tile = 1
	Wall  Tile = 2
)

// Terrain is a zone's tile grid, stored row-major.
type Terrain struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Tiles  []Tile `json:"tiles"`
}

// At returns the tile at (x, y). Out-of-bounds cells read as Wall.
func (t *Terrain) At(x, y int) Tile {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return Wall
	}
	i := y*t.Width + x
	if i >= len(t.Tiles) {
		return Wall
	}
	return t.Tiles[i]
}

// OpenTilesAround counts walkable tiles in the ring around (x, y).
// A nil terrain assumes all eight neighbours are open.
func (t *Terrain) OpenTilesAround(x, y int) int {
	if t == nil {
		return 8
	}
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if t.At(x+dx, y+dy) != Wall {
				n++
			}
		}
	}
	return n
}
