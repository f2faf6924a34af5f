// Package landmark defines the face landmark record produced by the detection
// collaborator and the fixed mesh indices the estimators read from it.
package landmark

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Face mesh indices following the MediaPipe 468/478-point convention.
// Eye index order is: outer corner, two upper-lid points, inner corner,
// two lower-lid points.
var (
	RightEye = [6]int{33, 160, 158, 133, 153, 144}
	LeftEye  = [6]int{362, 385, 387, 263, 373, 380}
)

// Outer eye corners used for the inter-eye pixel distance.
const (
	RightEyeOuter = 33
	LeftEyeOuter  = 263
)

// MinMeshSize is the smallest landmark count that covers every index above.
var MinMeshSize = meshSize(RightEye, LeftEye, [6]int{RightEyeOuter, LeftEyeOuter})

func meshSize(sets ...[6]int) int {
	n := 0
	for _, set := range sets {
		for _, idx := range set {
			n = max(n, idx+1)
		}
	}
	return n
}

// Point is a normalized landmark (x, y in 0-1 of frame size, z relative depth).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// Pixel converts a normalized point to floating pixel coordinates.
func (p Point) Pixel(w, h int) (x, y float64) {
	return p.X * float64(w), p.Y * float64(h)
}

// PixelInt converts a normalized point to truncated integer pixel coordinates.
func (p Point) PixelInt(w, h int) (x, y int) {
	return int(p.X * float64(w)), int(p.Y * float64(h))
}

// Face is one detected face: the landmark mesh and an optional 4x4
// head transformation matrix in row-major order.
type Face struct {
	Landmarks []Point   `json:"landmarks"`
	Transform []float64 `json:"transform,omitempty"`
}

// HasMesh reports whether the mesh is large enough to address the eye indices.
func (f *Face) HasMesh() bool {
	return f != nil && len(f.Landmarks) >= MinMeshSize
}

// HasTransform reports whether a full 4x4 transform is present.
func (f *Face) HasTransform() bool {
	return f != nil && len(f.Transform) == 16
}

// Eye copies the six landmarks of one eye in canonical order.
// ok is false when the mesh does not cover the indices.
func (f *Face) Eye(indices [6]int) (eye [6]Point, ok bool) {
	if !f.HasMesh() {
		return eye, false
	}
	for i, idx := range indices {
		eye[i] = f.Landmarks[idx]
	}
	return eye, true
}

// Rotation returns the top-left 3x3 block of the transform.
func (f *Face) Rotation() (*mat.Dense, bool) {
	if !f.HasTransform() {
		return nil, false
	}
	m := mat.NewDense(4, 4, append([]float64(nil), f.Transform...))
	r := mat.DenseCopyOf(m.Slice(0, 3, 0, 3))
	return r, true
}

// EyePixels returns the outer eye corners in truncated pixel coordinates.
func (f *Face) EyePixels(w, h int) (right, left [2]int, ok bool) {
	if !f.HasMesh() {
		return right, left, false
	}
	rx, ry := f.Landmarks[RightEyeOuter].PixelInt(w, h)
	lx, ly := f.Landmarks[LeftEyeOuter].PixelInt(w, h)
	return [2]int{rx, ry}, [2]int{lx, ly}, true
}

// Dist is the planar Euclidean distance between two pixel positions.
func Dist(ax, ay, bx, by float64) float64 {
	return math.Hypot(bx-ax, by-ay)
}
