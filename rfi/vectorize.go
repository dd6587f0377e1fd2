package rfi

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
)

// VectorizeMask traces the outlines of the flagged regions of a mask
// into polygons in pixel coordinates, with ring vertices on the cell
// grid corners. Outlines are simplified with Douglas-Peucker at the
// given tolerance (0 keeps every vertex). Interior holes are returned
// as rings of their own polygon; the tracer emits one polygon per
// closed boundary ring, which is sufficient for plotting.
func VectorizeMask(mask *Mask, tolerance float64) []orb.Polygon {
	rings := traceBoundaryRings(mask)
	polygons := make([]orb.Polygon, 0, len(rings))
	for _, ring := range rings {
		if tolerance > 0 {
			ring = simplify.DouglasPeucker(tolerance).Simplify(ring).(orb.Ring)
		}
		if len(ring) >= 4 {
			polygons = append(polygons, orb.Polygon{ring})
		}
	}
	return polygons
}

// edgePoint is a lattice corner of the pixel grid.
type edgePoint struct {
	x, y int
}

// traceBoundaryRings builds directed boundary edges between flagged
// and unflagged cells, interior kept on the left, and chains them into
// closed rings.
func traceBoundaryRings(mask *Mask) []orb.Ring {
	width := mask.Width()
	height := mask.Height()
	flagged := func(x, y int) bool {
		if x < 0 || x >= width || y < 0 || y >= height {
			return false
		}
		return mask.Value(x, y)
	}

	// Directed edges keyed by their start corner. A corner can start at
	// most two edges (at saddle configurations); the walk takes them in
	// insertion order, which is deterministic.
	edges := make(map[edgePoint][]edgePoint)
	addEdge := func(from, to edgePoint) {
		edges[from] = append(edges[from], to)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !flagged(x, y) {
				continue
			}
			if !flagged(x, y-1) {
				addEdge(edgePoint{x, y}, edgePoint{x + 1, y})
			}
			if !flagged(x+1, y) {
				addEdge(edgePoint{x + 1, y}, edgePoint{x + 1, y + 1})
			}
			if !flagged(x, y+1) {
				addEdge(edgePoint{x + 1, y + 1}, edgePoint{x, y + 1})
			}
			if !flagged(x-1, y) {
				addEdge(edgePoint{x, y + 1}, edgePoint{x, y})
			}
		}
	}

	var rings []orb.Ring
	for y := 0; y <= height; y++ {
		for x := 0; x <= width; x++ {
			start := edgePoint{x, y}
			for len(edges[start]) > 0 {
				ring := walkRing(edges, start)
				if len(ring) >= 4 {
					rings = append(rings, ring)
				}
			}
		}
	}
	return rings
}

// walkRing follows edges from start until the walk returns to start,
// consuming the edges it uses.
func walkRing(edges map[edgePoint][]edgePoint, start edgePoint) orb.Ring {
	ring := orb.Ring{{float64(start.x), float64(start.y)}}
	current := start
	for {
		nexts := edges[current]
		if len(nexts) == 0 {
			// Dangling walk; drop the partial ring.
			return nil
		}
		next := nexts[0]
		if len(nexts) == 1 {
			delete(edges, current)
		} else {
			edges[current] = nexts[1:]
		}
		ring = append(ring, orb.Point{float64(next.x), float64(next.y)})
		if next == start {
			return ring
		}
		current = next
	}
}
