package entity

import (
	"math"
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// DebrisKind вид обломка
type DebrisKind int

const (
	DebrisFragment DebrisKind = iota
	DebrisChunk
)

func (k DebrisKind) String() string {
	if k == DebrisChunk {
		return "chunk"
	}
	return "fragment"
}

// Debris недолговечный обломок без структурной роли: мелкий фрагмент
// или клиновидный чанк излома (тогда заполнен Fracture).
type Debris struct {
	ID        string
	Kind      DebrisKind
	Source    string // имя разрушенной детали
	Position  mgl64.Vec3
	Size      mgl64.Vec3
	Color     mgl64.Vec4
	Mass      float64
	CreatedAt time.Time
	Lifetime  time.Duration

	// Только для чанков: чанк можно добить, фрагмент живет до конца срока
	Health    float64
	MaxHealth float64
	Fracture  *FractureDescriptor
	Hull      []mgl64.Vec3
}

// Expired истекло ли время жизни к моменту now
func (d *Debris) Expired(now time.Time) bool {
	return now.Sub(d.CreatedAt) > d.Lifetime
}

// HealthRatio доля оставшегося здоровья чанка, у фрагмента всегда 1
func (d *Debris) HealthRatio() float64 {
	if d.MaxHealth <= 0 {
		return 1
	}
	return math.Max(0, math.Min(1, d.Health/d.MaxHealth))
}

// ApplyDamage уменьшает здоровье чанка. Фрагменты урон не получают.
// Возвращает true, когда здоровье кончилось.
func (d *Debris) ApplyDamage(amount float64) bool {
	if d.MaxHealth <= 0 || d.Health <= 0 {
		return false
	}
	d.Health = math.Max(0, d.Health-math.Max(0, amount))
	return d.Health == 0
}

// DebrisPool владелец обломков: у здания свой пул, у мира - пул для
// обломков без здания. Сам пул не трогает физику, только учет.
type DebrisPool struct {
	items []*Debris
}

// NewDebrisPool создает пустой пул
func NewDebrisPool() *DebrisPool {
	return &DebrisPool{items: make([]*Debris, 0)}
}

// Add ставит отметку времени и добавляет обломки
func (p *DebrisPool) Add(now time.Time, debris ...*Debris) {
	for _, d := range debris {
		d.CreatedAt = now
		p.items = append(p.items, d)
	}
}

// Adopt добавляет обломки, сохраняя их время создания
func (p *DebrisPool) Adopt(debris ...*Debris) {
	p.items = append(p.items, debris...)
}

// Len количество обломков в пуле
func (p *DebrisPool) Len() int {
	return len(p.items)
}

// Items возвращает копию списка обломков
func (p *DebrisPool) Items() []*Debris {
	out := make([]*Debris, len(p.items))
	copy(out, p.items)
	return out
}

// Get ищет обломок по идентификатору
func (p *DebrisPool) Get(id string) *Debris {
	for _, d := range p.items {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// Remove извлекает обломок из пула, nil если его нет
func (p *DebrisPool) Remove(id string) *Debris {
	for i, d := range p.items {
		if d.ID == id {
			p.items = append(p.items[:i], p.items[i+1:]...)
			return d
		}
	}
	return nil
}

// Sweep извлекает из пула обломки с истекшим временем жизни и, если пул
// переполнен, самые старые сверх limit. limit <= 0 отключает ограничение.
func (p *DebrisPool) Sweep(now time.Time, limit int) []*Debris {
	kept := p.items[:0]
	var removed []*Debris
	for _, d := range p.items {
		if d.Expired(now) {
			removed = append(removed, d)
			continue
		}
		kept = append(kept, d)
	}
	p.items = kept

	if limit > 0 && len(p.items) > limit {
		sort.SliceStable(p.items, func(i, j int) bool {
			return p.items[i].CreatedAt.Before(p.items[j].CreatedAt)
		})
		excess := len(p.items) - limit
		removed = append(removed, p.items[:excess]...)
		p.items = append([]*Debris(nil), p.items[excess:]...)
	}

	return removed
}

// Drain забирает все обломки и очищает пул
func (p *DebrisPool) Drain() []*Debris {
	out := p.items
	p.items = make([]*Debris, 0)
	return out
}
