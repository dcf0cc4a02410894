package entity

import "github.com/go-gl/mathgl/mgl64"

// Connection жесткая связь между деталями по именам
type Connection struct {
	A         string
	B         string
	Threshold float64
}

// Blueprint чертеж здания: детали в координатах относительно основания
// здания и связи между ними
type Blueprint struct {
	Kind        string
	Pieces      []PieceSpec
	Connections []Connection
}

// Translated возвращает копию чертежа, сдвинутую на offset
func (bp Blueprint) Translated(offset mgl64.Vec3) Blueprint {
	out := Blueprint{
		Kind:        bp.Kind,
		Pieces:      make([]PieceSpec, len(bp.Pieces)),
		Connections: append([]Connection(nil), bp.Connections...),
	}
	for i, p := range bp.Pieces {
		p.Position = p.Position.Add(offset)
		out.Pieces[i] = p
	}
	return out
}
