package collada

import "math"

// mat4 is a row-major 4x4 matrix: m[row*4+col]. Transforms compose by
// ordinary matrix multiplication; a point is transformed by treating it
// as a column vector with w=1, a direction with w=0 (so translation
// never affects normals/tangents).
type mat4 [16]float32

func identity4() mat4 {
	return mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func mul4(a, b mat4) mat4 {
	var r mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[row*4+k] * b[k*4+col]
			}
			r[row*4+col] = sum
		}
	}
	return r
}

func translateMat(v [3]float32) mat4 {
	m := identity4()
	m[3] = v[0]
	m[7] = v[1]
	m[11] = v[2]
	return m
}

func scaleMat(v [3]float32) mat4 {
	m := identity4()
	m[0] = v[0]
	m[5] = v[1]
	m[10] = v[2]
	return m
}

func uniformScaleMat(s float32) mat4 {
	return scaleMat([3]float32{s, s, s})
}

// rotateMat builds a rotation matrix for a right-handed rotation of
// degrees around axis (need not be normalized).
func rotateMat(axis [3]float32, degrees float32) mat4 {
	x, y, z := normalize3(axis)[0], normalize3(axis)[1], normalize3(axis)[2]
	rad := float64(degrees) * math.Pi / 180
	c := float32(math.Cos(rad))
	s := float32(math.Sin(rad))
	t := 1 - c
	m := identity4()
	m[0] = t*x*x + c
	m[1] = t*x*y - s*z
	m[2] = t*x*z + s*y
	m[4] = t*x*y + s*z
	m[5] = t*y*y + c
	m[6] = t*y*z - s*x
	m[8] = t*x*z - s*y
	m[9] = t*y*z + s*x
	m[10] = t*z*z + c
	return m
}

// lookAtMat builds a matrix whose basis columns are (right, up, -dir) and
// whose translation column is eye, matching a camera-to-world transform.
func lookAtMat(eye, target, up [3]float32) mat4 {
	dir := normalize3(sub3(target, eye))
	right := normalize3(cross3(dir, up))
	realUp := cross3(right, dir)
	m := identity4()
	m[0], m[4], m[8] = right[0], right[1], right[2]
	m[1], m[5], m[9] = realUp[0], realUp[1], realUp[2]
	m[2], m[6], m[10] = -dir[0], -dir[1], -dir[2]
	m[3], m[7], m[11] = eye[0], eye[1], eye[2]
	return m
}

func transformPoint(m mat4, v [3]float32) [3]float32 {
	return [3]float32{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2] + m[3],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2] + m[7],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2] + m[11],
	}
}

func transformDirection(m mat4, v [3]float32) [3]float32 {
	return [3]float32{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2],
	}
}

func sub3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func cross3(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalize3(v [3]float32) [3]float32 {
	l := float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
	if l == 0 {
		return v
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}
