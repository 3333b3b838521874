package geo

import (
	"fmt"
	"strings"

	"github.com/uber/h3-go/v4"
)

// ZoneIndex flags points that fall inside designated remote zones, stored as
// H3 cells at a single resolution.
type ZoneIndex struct {
	resolution int
	cells      map[string]struct{}
}

// NewZoneIndex builds an index over H3 cell ids (hex strings)
func NewZoneIndex(cells []string, resolution int) (*ZoneIndex, error) {
	if resolution < 0 || resolution > 15 {
		return nil, fmt.Errorf("h3 resolution %d out of range", resolution)
	}
	idx := &ZoneIndex{resolution: resolution, cells: make(map[string]struct{}, len(cells))}
	for _, c := range cells {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		idx.cells[c] = struct{}{}
	}
	return idx, nil
}

// CellFor returns the H3 cell id containing p at the index resolution
func (z *ZoneIndex) CellFor(p LatLng) (string, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), z.resolution)
	if err != nil {
		return "", fmt.Errorf("failed to index %s: %w", p, err)
	}
	return cell.String(), nil
}

// IsRemote reports whether p lies in a remote zone
func (z *ZoneIndex) IsRemote(p LatLng) bool {
	if z == nil || len(z.cells) == 0 {
		return false
	}
	cell, err := z.CellFor(p)
	if err != nil {
		return false
	}
	_, ok := z.cells[cell]
	return ok
}

// AnyRemote reports whether any of the points lies in a remote zone
func (z *ZoneIndex) AnyRemote(points ...LatLng) bool {
	for _, p := range points {
		if z.IsRemote(p) {
			return true
		}
	}
	return false
}

// Size returns the number of indexed cells
func (z *ZoneIndex) Size() int {
	if z == nil {
		return 0
	}
	return len(z.cells)
}
