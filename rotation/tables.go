package rotation

// quatToRot holds, for every component pair (i, j) of a quaternion
// (w, x, y, z), the contribution of q_i*q_j to the nine row-major entries of
// the rotation matrix. Only i <= j is populated, so contracting against the
// full outer product counts every cross term once.
var quatToRot [4][4][9]float64

// quatMultiply[k][i][j] is the coefficient of a_i*b_j in component k of the
// Hamilton product a*b.
var quatMultiply = [4][4][4]float64{
	{
		{1, 0, 0, 0},
		{0, -1, 0, 0},
		{0, 0, -1, 0},
		{0, 0, 0, -1},
	},
	{
		{0, 1, 0, 0},
		{1, 0, 0, 0},
		{0, 0, 0, 1},
		{0, 0, -1, 0},
	},
	{
		{0, 0, 1, 0},
		{0, 0, 0, -1},
		{1, 0, 0, 0},
		{0, 1, 0, 0},
	},
	{
		{0, 0, 0, 1},
		{0, 0, 1, 0},
		{0, -1, 0, 0},
		{1, 0, 0, 0},
	},
}

// quatMultiplyByVec drops the real column of quatMultiply: it is the
// coefficient table for a*(0, v), indexed [i][j][k] with j over v's three
// components.
var quatMultiplyByVec [4][3][4]float64

func init() {
	set := func(i, j int, m [9]float64) { quatToRot[i][j] = m }

	set(0, 0, [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1})   // rr
	set(1, 1, [9]float64{1, 0, 0, 0, -1, 0, 0, 0, -1}) // ii
	set(2, 2, [9]float64{-1, 0, 0, 0, 1, 0, 0, 0, -1}) // jj
	set(3, 3, [9]float64{-1, 0, 0, 0, -1, 0, 0, 0, 1}) // kk
	set(1, 2, [9]float64{0, 2, 0, 2, 0, 0, 0, 0, 0})   // ij
	set(1, 3, [9]float64{0, 0, 2, 0, 0, 0, 2, 0, 0})   // ik
	set(2, 3, [9]float64{0, 0, 0, 0, 0, 2, 0, 2, 0})   // jk
	set(0, 1, [9]float64{0, 0, 0, 0, 0, -2, 0, 2, 0})  // ir
	set(0, 2, [9]float64{0, 0, 2, 0, 0, 0, -2, 0, 0})  // jr
	set(0, 3, [9]float64{0, -2, 0, 2, 0, 0, 0, 0, 0})  // kr

	for i := 0; i < 4; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 4; k++ {
				quatMultiplyByVec[i][j][k] = quatMultiply[k][i][j+1]
			}
		}
	}
}
