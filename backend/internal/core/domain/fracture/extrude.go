package fracture

import "github.com/go-gl/mathgl/mgl64"

// Mesh треугольная сетка с плоскими нормалями: у каждого треугольника
// свои три вершины
type Mesh struct {
	Vertices  []mgl64.Vec3
	Normals   []mgl64.Vec3
	Triangles [][3]int
}

func (m *Mesh) addTriangle(a, b, c, normal mgl64.Vec3) {
	base := len(m.Vertices)
	m.Vertices = append(m.Vertices, a, b, c)
	m.Normals = append(m.Normals, normal, normal, normal)
	m.Triangles = append(m.Triangles, [3]int{base, base + 1, base + 2})
}

// Translate сдвигает все вершины
func (m *Mesh) Translate(offset mgl64.Vec3) {
	for i := range m.Vertices {
		m.Vertices[i] = m.Vertices[i].Add(offset)
	}
}

// Extrusion результат выдавливания многоугольника сектора на толщину детали
type Extrusion struct {
	Mesh     Mesh
	Points   []mgl64.Vec3 // все вершины лицевой и тыльной сторон
	Centroid mgl64.Vec3
}

// Extrude выдавливает многоугольник сектора вдоль оси глубины грани.
// Лицевая сторона лежит на пораженной грани, тыльная на противоположной.
// Координаты локальные относительно центра детали.
// ok == false для вырожденного многоугольника (меньше 3 точек).
func Extrude(poly []mgl64.Vec2, frame Frame) (Extrusion, bool) {
	n := len(poly)
	if n < 3 {
		return Extrusion{}, false
	}

	sign := frame.Face.Sign()
	half := frame.Depth / 2
	front := make([]mgl64.Vec3, n)
	back := make([]mgl64.Vec3, n)
	for i, p := range poly {
		front[i] = frame.Lift(p, sign*half)
		back[i] = frame.Lift(p, -sign*half)
	}

	points := make([]mgl64.Vec3, 0, 2*n)
	points = append(points, front...)
	points = append(points, back...)
	centroid := Centroid3(points)

	normal := frame.Face.Normal()
	var mesh Mesh

	// веер от точки удара
	for i := 1; i < n-1; i++ {
		a, b, c := front[0], front[i], front[i+1]
		if b.Sub(a).Cross(c.Sub(a)).Dot(normal) < 0 {
			b, c = c, b
		}
		mesh.addTriangle(a, b, c, normal)

		a, b, c = back[0], back[i], back[i+1]
		if b.Sub(a).Cross(c.Sub(a)).Dot(normal.Mul(-1)) < 0 {
			b, c = c, b
		}
		mesh.addTriangle(a, b, c, normal.Mul(-1))
	}

	// боковые стенки: направление нормали сверяется с вектором от центра клина
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		f0, f1, b1, b0 := front[i], front[j], back[j], back[i]

		raw := f1.Sub(f0).Cross(b0.Sub(f0))
		l := raw.Len()
		if l < 1e-12 {
			continue
		}
		side := raw.Mul(1 / l)

		mid := f0.Add(f1).Add(b0).Add(b1).Mul(0.25)
		if side.Dot(mid.Sub(centroid)) < 0 {
			side = side.Mul(-1)
			f1, b0 = b0, f1
		}
		mesh.addTriangle(f0, f1, b1, side)
		mesh.addTriangle(f0, b1, b0, side)
	}

	return Extrusion{Mesh: mesh, Points: points, Centroid: centroid}, true
}

// Centroid3 среднее точек
func Centroid3(points []mgl64.Vec3) mgl64.Vec3 {
	var c mgl64.Vec3
	if len(points) == 0 {
		return c
	}
	for _, p := range points {
		c = c.Add(p)
	}
	return c.Mul(1 / float64(len(points)))
}
