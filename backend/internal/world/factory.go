package world

import (
	"log"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"x-rubble/backend/internal/core/domain/entity"
)

// Типы зданий каталога
const (
	KindSimple   = "simple"
	KindJapanese = "japanese"
	KindTest     = "test"
)

// Цвета проемов по умолчанию
var (
	DoorColor   = mgl64.Vec4{0.2, 0.15, 0.1, 1.0}
	WindowColor = mgl64.Vec4{0.6, 0.8, 0.9, 0.7}
)

// Dimensions габариты здания: ширина по X, глубина по Y, высота стен по Z
type Dimensions struct {
	Width  float64
	Depth  float64
	Height float64
}

// Factory собирает чертежи зданий. Позиции деталей задаются относительно
// точки на земле под центром здания.
type Factory struct {
	builders map[string]func() entity.Blueprint
}

// NewFactory создает каталог со стандартными зданиями
func NewFactory() *Factory {
	f := &Factory{builders: make(map[string]func() entity.Blueprint)}
	f.Register(KindSimple, func() entity.Blueprint {
		return SimpleBuilding(Dimensions{Width: 10, Depth: 10, Height: 8})
	})
	f.Register(KindJapanese, func() entity.Blueprint {
		return JapaneseBuilding(Dimensions{Width: 12, Depth: 10, Height: 6})
	})
	f.Register(KindTest, TestStructure)
	return f
}

// Register добавляет или заменяет тип здания
func (f *Factory) Register(kind string, build func() entity.Blueprint) {
	f.builders[kind] = build
}

// Blueprint возвращает новый чертеж по типу здания
func (f *Factory) Blueprint(kind string) (entity.Blueprint, bool) {
	build, ok := f.builders[kind]
	if !ok {
		log.Printf("[World] Неизвестный тип здания: %s", kind)
		return entity.Blueprint{}, false
	}
	return build(), true
}

// Kinds перечисляет зарегистрированные типы
func (f *Factory) Kinds() []string {
	out := make([]string, 0, len(f.builders))
	for k := range f.builders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// draft накапливает детали и связи чертежа
type draft struct {
	bp entity.Blueprint
}

func (d *draft) piece(name string, t entity.PieceType, pos, size mgl64.Vec3, mass float64, color mgl64.Vec4) int {
	d.bp.Pieces = append(d.bp.Pieces, entity.PieceSpec{
		Name:     name,
		Type:     t,
		Position: pos,
		Size:     size,
		Mass:     mass,
		Color:    color,
	})
	return len(d.bp.Pieces) - 1
}

func (d *draft) roof(name string, pos, size mgl64.Vec3, mass float64, color mgl64.Vec4, curve float64, tier int) int {
	i := d.piece(name, entity.PieceRoof, pos, size, mass, color)
	d.bp.Pieces[i].Roof = &entity.RoofStyle{Curve: curve, Tier: tier}
	return i
}

func (d *draft) opening(i int, kind string, center, size mgl64.Vec3, color mgl64.Vec4) {
	d.bp.Pieces[i].Openings = append(d.bp.Pieces[i].Openings, entity.Opening{
		Type:   kind,
		Center: center,
		Size:   size,
		Color:  color,
	})
}

func (d *draft) connect(a, b string, threshold float64) {
	d.bp.Connections = append(d.bp.Connections, entity.Connection{A: a, B: b, Threshold: threshold})
}

// SimpleBuilding дом западного типа: фундамент, передняя стена с дверным
// проемом из трех частей, задняя и боковые стены, плоская крыша.
func SimpleBuilding(dim Dimensions) entity.Blueprint {
	var (
		wallColor       = mgl64.Vec4{0.8, 0.7, 0.6, 1.0}
		roofColor       = mgl64.Vec4{0.5, 0.3, 0.2, 1.0}
		foundationColor = mgl64.Vec4{0.6, 0.6, 0.6, 1.0}

		w, d, h   = dim.Width, dim.Depth, dim.Height
		thickness = 0.5
		wallMass  = 20.0
		overlap   = thickness
		base      = 1.0

		doorWidth  = 2.5
		doorHeight = 4.0
	)

	b := &draft{bp: entity.Blueprint{Kind: KindSimple}}
	b.piece("foundation", entity.PieceFoundation, mgl64.Vec3{0, 0, base / 2}, mgl64.Vec3{w, d, base}, 0, foundationColor)

	frontY := -d / 2
	segment := (w + 2*overlap - doorWidth) / 2
	segmentX := (w+2*overlap)/2 - segment/2
	lintel := h - doorHeight

	frontLeft := b.piece("wall_front_left", entity.PieceWall,
		mgl64.Vec3{-segmentX, frontY, base + h/2}, mgl64.Vec3{segment, thickness, h}, wallMass*0.4, wallColor)
	frontRight := b.piece("wall_front_right", entity.PieceWall,
		mgl64.Vec3{segmentX, frontY, base + h/2}, mgl64.Vec3{segment, thickness, h}, wallMass*0.4, wallColor)
	b.piece("wall_front_top", entity.PieceWall,
		mgl64.Vec3{0, frontY, base + doorHeight + lintel/2}, mgl64.Vec3{doorWidth, thickness, lintel}, wallMass*0.2, wallColor)
	back := b.piece("wall_back", entity.PieceWall,
		mgl64.Vec3{0, d / 2, base + h/2}, mgl64.Vec3{w + 2*overlap, thickness, h}, wallMass, wallColor)
	left := b.piece("wall_left", entity.PieceWall,
		mgl64.Vec3{-w / 2, 0, base + h/2}, mgl64.Vec3{thickness, d, h}, wallMass, wallColor)
	right := b.piece("wall_right", entity.PieceWall,
		mgl64.Vec3{w / 2, 0, base + h/2}, mgl64.Vec3{thickness, d, h}, wallMass, wallColor)
	b.piece("roof", entity.PieceRoof,
		mgl64.Vec3{0, 0, base + h + 0.25}, mgl64.Vec3{w + 1, d + 1, 0.5}, wallMass*1.5, roofColor)

	walls := []string{"wall_front_left", "wall_front_right", "wall_front_top", "wall_back", "wall_left", "wall_right"}
	for _, wall := range walls {
		b.connect(wall, "foundation", 100)
	}
	b.connect("wall_front_left", "wall_front_top", 80)
	b.connect("wall_front_right", "wall_front_top", 80)
	b.connect("wall_front_left", "wall_left", 80)
	b.connect("wall_front_right", "wall_right", 80)
	b.connect("wall_back", "wall_left", 80)
	b.connect("wall_back", "wall_right", 80)
	for _, wall := range walls {
		b.connect("roof", wall, 60)
	}

	windowWidth, windowHeight := 2.0, 1.5
	windowZ := h / 4
	front := mgl64.Vec3{windowWidth, thickness, windowHeight}
	side := mgl64.Vec3{thickness, windowWidth, windowHeight}

	b.opening(frontLeft, "window", mgl64.Vec3{0, 0, windowZ}, front, WindowColor)
	b.opening(frontRight, "window", mgl64.Vec3{0, 0, windowZ}, front, WindowColor)
	b.opening(back, "window", mgl64.Vec3{-w / 3, 0, windowZ}, front, WindowColor)
	b.opening(back, "window", mgl64.Vec3{w / 3, 0, windowZ}, front, WindowColor)
	sideWindows(b, []int{left, right}, d, windowZ, side, WindowColor)

	return b.bp
}

// JapaneseBuilding дом японского типа: каменный фундамент и поднятый
// деревянный настил (оба считаются фундаментом), тонкие стены с широким
// раздвижным проемом, четыре столба и трехъярусная изогнутая крыша.
func JapaneseBuilding(dim Dimensions) entity.Blueprint {
	var (
		woodColor       = mgl64.Vec4{0.55, 0.35, 0.25, 1.0}
		lightWoodColor  = mgl64.Vec4{0.75, 0.6, 0.45, 1.0}
		roofColor       = mgl64.Vec4{0.25, 0.25, 0.28, 1.0}
		foundationColor = mgl64.Vec4{0.5, 0.5, 0.5, 1.0}
		platformColor   = mgl64.Vec4{0.6, 0.45, 0.35, 1.0}
		shojiColor      = mgl64.Vec4{0.95, 0.95, 0.85, 0.6}

		w, d, h   = dim.Width, dim.Depth, dim.Height
		thickness = 0.3
		wallMass  = 15.0
		overlap   = thickness

		foundationHeight = 0.6
		platformHeight   = 0.8
		base             = foundationHeight + platformHeight

		doorWidth  = 3.5
		doorHeight = 3.0
		eaves      = 2.0
	)

	b := &draft{bp: entity.Blueprint{Kind: KindJapanese}}
	b.piece("foundation", entity.PieceFoundation,
		mgl64.Vec3{0, 0, foundationHeight / 2}, mgl64.Vec3{w + 1, d + 1, foundationHeight}, 0, foundationColor)
	b.piece("platform", entity.PieceFoundation,
		mgl64.Vec3{0, 0, foundationHeight + platformHeight/2}, mgl64.Vec3{w, d, platformHeight}, 0, platformColor)

	frontY := -d / 2
	segment := (w + 2*overlap - doorWidth) / 2
	segmentX := (w+2*overlap)/2 - segment/2
	lintel := h - doorHeight

	frontLeft := b.piece("wall_front_left", entity.PieceWall,
		mgl64.Vec3{-segmentX, frontY, base + h/2}, mgl64.Vec3{segment, thickness, h}, wallMass*0.4, lightWoodColor)
	frontRight := b.piece("wall_front_right", entity.PieceWall,
		mgl64.Vec3{segmentX, frontY, base + h/2}, mgl64.Vec3{segment, thickness, h}, wallMass*0.4, lightWoodColor)
	b.piece("wall_front_top", entity.PieceWall,
		mgl64.Vec3{0, frontY, base + doorHeight + lintel/2}, mgl64.Vec3{doorWidth, thickness, lintel}, wallMass*0.2, lightWoodColor)
	back := b.piece("wall_back", entity.PieceWall,
		mgl64.Vec3{0, d / 2, base + h/2}, mgl64.Vec3{w + 2*overlap, thickness, h}, wallMass, lightWoodColor)
	left := b.piece("wall_left", entity.PieceWall,
		mgl64.Vec3{-w / 2, 0, base + h/2}, mgl64.Vec3{thickness, d, h}, wallMass, lightWoodColor)
	right := b.piece("wall_right", entity.PieceWall,
		mgl64.Vec3{w / 2, 0, base + h/2}, mgl64.Vec3{thickness, d, h}, wallMass, lightWoodColor)

	roofBase := base + h + 0.3
	b.roof("roof_main", mgl64.Vec3{0, 0, roofBase + 0.2}, mgl64.Vec3{w + eaves, d + eaves, 0.5}, wallMass*1.5, roofColor, 0.8, 1)
	b.roof("roof_middle", mgl64.Vec3{0, 0, roofBase + 1.2}, mgl64.Vec3{w * 0.75, d * 0.75, 0.4}, wallMass*0.8, roofColor, 0.9, 2)
	b.roof("roof_upper", mgl64.Vec3{0, 0, roofBase + 2.2}, mgl64.Vec3{w * 0.5, d * 0.5, 0.3}, wallMass*0.5, roofColor, 1.0, 3)

	postHeight := platformHeight + h
	posts := []mgl64.Vec2{
		{-w/2 + 1, -d/2 + 1},
		{w/2 - 1, -d/2 + 1},
		{-w/2 + 1, d/2 - 1},
		{w/2 - 1, d/2 - 1},
	}
	postNames := make([]string, len(posts))
	for i, p := range posts {
		postNames[i] = "post_" + string(rune('0'+i))
		b.piece(postNames[i], entity.PieceWall,
			mgl64.Vec3{p.X(), p.Y(), foundationHeight + postHeight/2}, mgl64.Vec3{0.3, 0.3, postHeight}, wallMass*0.3, woodColor)
	}

	walls := []string{"wall_front_left", "wall_front_right", "wall_front_top", "wall_back", "wall_left", "wall_right"}
	for _, wall := range walls {
		b.connect(wall, "platform", 100)
	}
	b.connect("platform", "foundation", 150)
	b.connect("wall_front_left", "wall_front_top", 80)
	b.connect("wall_front_right", "wall_front_top", 80)
	b.connect("wall_front_left", "wall_left", 80)
	b.connect("wall_front_right", "wall_right", 80)
	b.connect("wall_back", "wall_left", 80)
	b.connect("wall_back", "wall_right", 80)
	for _, post := range postNames {
		b.connect(post, "platform", 100)
	}
	for _, wall := range walls {
		b.connect("roof_main", wall, 60)
	}
	b.connect("roof_middle", "roof_main", 50)
	b.connect("roof_upper", "roof_middle", 50)
	for _, post := range postNames {
		b.connect(post, "roof_main", 80)
	}

	// сёдзи ниже, чем окна западного дома
	windowWidth, windowHeight := 2.5, 2.0
	windowZ := h / 3
	front := mgl64.Vec3{windowWidth, thickness, windowHeight}

	b.opening(frontLeft, "window", mgl64.Vec3{0, 0, windowZ}, front, shojiColor)
	b.opening(frontRight, "window", mgl64.Vec3{0, 0, windowZ}, front, shojiColor)
	spacing := w / 4
	for i := 1; i <= 3; i++ {
		b.opening(back, "window", mgl64.Vec3{-w/2 + spacing*float64(i), 0, windowZ},
			mgl64.Vec3{windowWidth * 0.8, thickness, windowHeight}, shojiColor)
	}
	sideWindows(b, []int{left, right}, d, windowZ, mgl64.Vec3{thickness, windowWidth * 0.8, windowHeight}, shojiColor)

	return b.bp
}

// sideWindows одно окно по центру боковой стены или два, если стена длинная
func sideWindows(b *draft, walls []int, depth, z float64, size mgl64.Vec3, color mgl64.Vec4) {
	offsets := []float64{0}
	if depth > 8 {
		offsets = []float64{-depth / 4, depth / 4}
	}
	for _, i := range walls {
		for _, y := range offsets {
			b.opening(i, "window", mgl64.Vec3{0, y, z}, size, color)
		}
	}
}

// TestStructure фундамент и четыре стены, каждая держится за фундамент
func TestStructure() entity.Blueprint {
	var (
		wallColor       = mgl64.Vec4{0.7, 0.7, 0.75, 1.0}
		foundationColor = mgl64.Vec4{0.5, 0.5, 0.5, 1.0}
	)

	b := &draft{bp: entity.Blueprint{Kind: KindTest}}
	b.piece("foundation", entity.PieceFoundation, mgl64.Vec3{0, 0, 0.25}, mgl64.Vec3{8, 8, 0.5}, 0, foundationColor)
	b.piece("wall_north", entity.PieceWall, mgl64.Vec3{0, 3.5, 2}, mgl64.Vec3{8, 0.5, 3}, 20, wallColor)
	b.piece("wall_south", entity.PieceWall, mgl64.Vec3{0, -3.5, 2}, mgl64.Vec3{8, 0.5, 3}, 20, wallColor)
	b.piece("wall_east", entity.PieceWall, mgl64.Vec3{3.5, 0, 2}, mgl64.Vec3{0.5, 6.5, 3}, 20, wallColor)
	b.piece("wall_west", entity.PieceWall, mgl64.Vec3{-3.5, 0, 2}, mgl64.Vec3{0.5, 6.5, 3}, 20, wallColor)

	for _, wall := range []string{"wall_north", "wall_south", "wall_east", "wall_west"} {
		b.connect("foundation", wall, 100)
	}
	return b.bp
}
