package shader

// Matrix4 is a 4x4 column-major matrix, the layout uploaded to uniforms.
type Matrix4 [16]float32

// Identity4 returns the identity matrix.
func Identity4() Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate4 returns a translation matrix.
func Translate4(x, y, z float32) Matrix4 {
	m := Identity4()
	m[12], m[13], m[14] = x, y, z
	return m
}

// Scale4 returns a scale matrix.
func Scale4(x, y, z float32) Matrix4 {
	m := Identity4()
	m[0], m[5], m[10] = x, y, z
	return m
}

// Ortho returns an orthographic projection mapping the rectangle
// (0,0)-(width,height) to clip space with y pointing down.
func Ortho(width, height float32) Matrix4 {
	m := Identity4()
	m[0] = 2 / width
	m[5] = -2 / height
	m[12] = -1
	m[13] = 1
	return m
}

// Multiply returns m * n.
func (m Matrix4) Multiply(n Matrix4) Matrix4 {
	var r Matrix4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[k*4+row] * n[col*4+k]
			}
			r[col*4+row] = sum
		}
	}
	return r
}

// Apply maps the point (x, y, 0, 1) and returns the projected x and y.
func (m Matrix4) Apply(x, y float32) (float32, float32) {
	px := m[0]*x + m[4]*y + m[12]
	py := m[1]*x + m[5]*y + m[13]
	w := m[3]*x + m[7]*y + m[15]
	if w != 0 && w != 1 {
		px /= w
		py /= w
	}
	return px, py
}

// Rect is a float rectangle in layer coordinates.
type Rect struct {
	X, Y, W, H float32
}

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.W <= 0 || r.H <= 0
}

// geometry maps the unit square onto r.
func (r Rect) geometry() Matrix4 {
	return Translate4(r.X, r.Y, 0).Multiply(Scale4(r.W, r.H, 1))
}
