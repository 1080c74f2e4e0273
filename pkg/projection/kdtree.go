package projection

import (
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// planePoint is a point projected onto the plane perpendicular to the camera
// normal. Two projected points are as far apart as the original point is from
// the other's line of sight.
type planePoint struct {
	r3.Vec
	idx int
}

// project removes the component of p along the unit normal n.
func project(p, n r3.Vec, idx int) planePoint {
	return planePoint{Vec: r3.Sub(p, r3.Scale(r3.Dot(p, n), n)), idx: idx}
}

// Compare implements the kdtree.Comparable interface
func (p planePoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(planePoint)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	case 2:
		return p.Z - q.Z
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (p planePoint) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between two points
func (p planePoint) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(p.Vec, c.(planePoint).Vec))
}

// planePoints is a collection of planePoint that satisfies kdtree.Interface
type planePoints []planePoint

func (p planePoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p planePoints) Len() int                              { return len(p) }
func (p planePoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method
func (p planePoints) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(pointPlane{planePoints: p, Dim: d}, kdtree.MedianOfRandoms(pointPlane{planePoints: p, Dim: d}, 100))
}

// pointPlane implements sort.Interface and kdtree.SortSlicer for planePoints
type pointPlane struct {
	planePoints
	kdtree.Dim
}

func (p pointPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.planePoints[i].X < p.planePoints[j].X
	case 1:
		return p.planePoints[i].Y < p.planePoints[j].Y
	case 2:
		return p.planePoints[i].Z < p.planePoints[j].Z
	default:
		panic("illegal dimension")
	}
}

func (p pointPlane) Slice(start, end int) kdtree.SortSlicer {
	return pointPlane{planePoints: p.planePoints[start:end], Dim: p.Dim}
}

func (p pointPlane) Swap(i, j int) {
	p.planePoints[i], p.planePoints[j] = p.planePoints[j], p.planePoints[i]
}

// within returns the indices of the points of t within distance r of q.
func within(t *kdtree.Tree, q planePoint, r float64) []int {
	keep := kdtree.NewDistKeeper(r * r)
	t.NearestSet(keep, q)

	idx := make([]int, 0, keep.Len())
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		idx = append(idx, c.Comparable.(planePoint).idx)
	}
	return idx
}
