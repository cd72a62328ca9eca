package terrain

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds = errors.New("coordinate out of bounds")
	ErrBadTerrain  = errors.New("unknown terrain id")
	ErrBadShape    = errors.New("terrain matrix is not a rectangular box")
)

// Terrain is the content of one cube. Numeric values are the ids used by
// scenario files.
type Terrain uint8

const (
	Air      Terrain = 0
	Rock     Terrain = 1
	Tree     Terrain = 2
	Workshop Terrain = 3
)

// Palette lists terrain names by id.
var Palette = []string{"AIR", "ROCK", "TREE", "WORKSHOP"}

func ParseID(id int) (Terrain, error) {
	if id < 0 || id >= len(Palette) {
		return Air, fmt.Errorf("%w: %d", ErrBadTerrain, id)
	}
	return Terrain(id), nil
}

func (t Terrain) IsPassable() bool {
	switch t {
	case Air, Workshop:
		return true
	default:
		return false
	}
}

func (t Terrain) IsSolid() bool { return !t.IsPassable() }

func (t Terrain) String() string {
	if int(t) < len(Palette) {
		return Palette[t]
	}
	return fmt.Sprintf("TERRAIN(%d)", uint8(t))
}
