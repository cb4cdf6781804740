package rotation

// Matrix is a 3x3 rotation in row major order: m[3*r+c] is row r, column c.
type Matrix = [9]float64

// Identity is the rotation that does nothing
var Identity = Matrix{1, 0, 0, 0, 1, 0, 0, 0, 1}

// ApplyRotToVec returns r·v
func ApplyRotToVec(r Matrix, v [3]float64) [3]float64 {
	x, y, z := v[0], v[1], v[2]
	return [3]float64{
		r[0]*x + r[1]*y + r[2]*z,
		r[3]*x + r[4]*y + r[5]*z,
		r[6]*x + r[7]*y + r[8]*z,
	}
}

// ApplyInverseRotToVec returns rᵗ·v, which is the inverse rotation as long
// as r is orthonormal.
func ApplyInverseRotToVec(r Matrix, v [3]float64) [3]float64 {
	x, y, z := v[0], v[1], v[2]
	return [3]float64{
		r[0]*x + r[3]*y + r[6]*z,
		r[1]*x + r[4]*y + r[7]*z,
		r[2]*x + r[5]*y + r[8]*z,
	}
}

// Multiply returns the product a·b, i.e. the rotation that applies b first
// and a second.
func Multiply(a, b Matrix) Matrix {
	var m Matrix
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m[3*r+c] = a[3*r]*b[c] + a[3*r+1]*b[3+c] + a[3*r+2]*b[6+c]
		}
	}
	return m
}

// Transpose returns mᵗ
func Transpose(m Matrix) Matrix {
	return Matrix{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// Determinant of a 3x3 matrix
func Determinant(m Matrix) float64 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}
