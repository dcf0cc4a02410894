package physics

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrBodyNotFound       = errors.New("тело не найдено")
	ErrConstraintNotFound = errors.New("соединение не найдено")
	ErrDuplicateID        = errors.New("идентификатор уже занят")
	ErrInvalidShape       = errors.New("некорректная форма тела")
)

type body struct {
	spec        BodySpec
	halfExtents mgl64.Vec3 // габарит для земли и инерции
	position    mgl64.Vec3
	rotation    mgl64.Quat
	velocity    mgl64.Vec3
	angular     mgl64.Vec3
	mass        float64
	active      bool
	constraints map[string]struct{}
}

func (b *body) dynamic() bool {
	return b.mass > 0
}

// invInertia обратная диагональ тензора инерции бокса
func (b *body) invInertia() mgl64.Vec3 {
	if !b.dynamic() {
		return mgl64.Vec3{}
	}
	x, y, z := 2*b.halfExtents.X(), 2*b.halfExtents.Y(), 2*b.halfExtents.Z()
	ix := b.mass / 12 * (y*y + z*z)
	iy := b.mass / 12 * (x*x + z*z)
	iz := b.mass / 12 * (x*x + y*y)
	inv := func(i float64) float64 {
		if i < 1e-9 {
			return 0
		}
		return 1 / i
	}
	return mgl64.Vec3{inv(ix), inv(iy), inv(iz)}
}

type constraint struct {
	spec ConstraintSpec
}

// SimWorld упрощенный мир твердых тел: гравитация, плоскость земли,
// жесткие соединения и фиксированные подшаги. Тела описываются
// осевыми габаритами, повороты только накапливаются для отображения.
type SimWorld struct {
	mu          sync.RWMutex
	config      PhysicsConfig
	bodies      map[string]*body
	constraints map[string]*constraint
	elapsed     float64
	logger      *log.Logger
}

// NewSimWorld создает пустой мир с заданной конфигурацией
func NewSimWorld(config *PhysicsConfig, logger *log.Logger) *SimWorld {
	if config == nil {
		config = GetPhysicsConfig()
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[SimWorld] ", log.LstdFlags)
	}
	return &SimWorld{
		config:      *config,
		bodies:      make(map[string]*body),
		constraints: make(map[string]*constraint),
		logger:      logger,
	}
}

// Config возвращает текущую конфигурацию мира
func (w *SimWorld) Config() PhysicsConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// SetConfig заменяет конфигурацию мира
func (w *SimWorld) SetConfig(config PhysicsConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if config.Substeps <= 0 {
		config.Substeps = 1
	}
	w.config = config
	w.logger.Printf("Конфигурация обновлена: гравитация %v, подшагов %d", config.Gravity, config.Substeps)
}

// AddBody добавляет тело в мир
func (w *SimWorld) AddBody(spec BodySpec) error {
	half, err := shapeExtents(spec)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.bodies[spec.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, spec.ID)
	}
	w.bodies[spec.ID] = &body{
		spec:        spec,
		halfExtents: half,
		position:    spec.Position,
		rotation:    mgl64.QuatIdent(),
		mass:        math.Max(spec.Mass, 0),
		active:      spec.Mass > 0,
		constraints: make(map[string]struct{}),
	}
	return nil
}

// RemoveBody удаляет тело вместе с его соединениями
func (w *SimWorld) RemoveBody(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, ok := w.bodies[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrBodyNotFound, id)
	}
	for cid := range b.constraints {
		w.removeConstraintLocked(cid)
	}
	delete(w.bodies, id)
	return nil
}

// AddConstraint соединяет два тела жестко по всем осям
func (w *SimWorld) AddConstraint(spec ConstraintSpec) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.constraints[spec.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, spec.ID)
	}
	a, ok := w.bodies[spec.BodyA]
	if !ok {
		return fmt.Errorf("%w: %s", ErrBodyNotFound, spec.BodyA)
	}
	b, ok := w.bodies[spec.BodyB]
	if !ok {
		return fmt.Errorf("%w: %s", ErrBodyNotFound, spec.BodyB)
	}

	w.constraints[spec.ID] = &constraint{spec: spec}
	a.constraints[spec.ID] = struct{}{}
	b.constraints[spec.ID] = struct{}{}
	return nil
}

// RemoveConstraint удаляет соединение
func (w *SimWorld) RemoveConstraint(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.removeConstraintLocked(id) {
		return fmt.Errorf("%w: %s", ErrConstraintNotFound, id)
	}
	return nil
}

func (w *SimWorld) removeConstraintLocked(id string) bool {
	c, ok := w.constraints[id]
	if !ok {
		return false
	}
	if a, ok := w.bodies[c.spec.BodyA]; ok {
		delete(a.constraints, id)
	}
	if b, ok := w.bodies[c.spec.BodyB]; ok {
		delete(b.constraints, id)
	}
	delete(w.constraints, id)
	return true
}

// ApplyImpulse применяет центральный импульс. Статичные тела его игнорируют.
func (w *SimWorld) ApplyImpulse(id string, impulse mgl64.Vec3) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, ok := w.bodies[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrBodyNotFound, id)
	}
	if !b.dynamic() {
		return nil
	}
	b.velocity = b.velocity.Add(impulse.Mul(1 / b.mass))
	b.active = true
	return nil
}

// ApplyTorque применяет импульс крутящего момента
func (w *SimWorld) ApplyTorque(id string, torque mgl64.Vec3) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, ok := w.bodies[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrBodyNotFound, id)
	}
	if !b.dynamic() {
		return nil
	}
	inv := b.invInertia()
	b.angular = b.angular.Add(mgl64.Vec3{torque[0] * inv[0], torque[1] * inv[1], torque[2] * inv[2]})
	b.active = true
	return nil
}

// SetMass меняет массу: 0 делает тело статичным, положительная масса -
// динамическим
func (w *SimWorld) SetMass(id string, mass float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, ok := w.bodies[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrBodyNotFound, id)
	}
	b.mass = math.Max(mass, 0)
	if !b.dynamic() {
		b.velocity = mgl64.Vec3{}
		b.angular = mgl64.Vec3{}
		b.active = false
	}
	return nil
}

// SetActive будит или усыпляет тело
func (w *SimWorld) SetActive(id string, active bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, ok := w.bodies[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrBodyNotFound, id)
	}
	b.active = active && b.dynamic()
	return nil
}

// SetMotion задает поворот и скорости тела. Нулевой кватернион заменяется
// единичным. Скорости статичного тела остаются нулевыми.
func (w *SimWorld) SetMotion(id string, rotation mgl64.Quat, velocity, angular mgl64.Vec3) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, ok := w.bodies[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrBodyNotFound, id)
	}
	if rotation.Len() < 1e-9 {
		rotation = mgl64.QuatIdent()
	}
	b.rotation = rotation.Normalize()
	if !b.dynamic() {
		return nil
	}
	b.velocity = velocity
	b.angular = angular
	if velocity.Len() > 0 || angular.Len() > 0 {
		b.active = true
	}
	return nil
}

// State возвращает состояние тела
func (w *SimWorld) State(id string) (BodyState, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	b, ok := w.bodies[id]
	if !ok {
		return BodyState{}, fmt.Errorf("%w: %s", ErrBodyNotFound, id)
	}
	return BodyState{
		ID:              id,
		Position:        b.position,
		Rotation:        b.rotation,
		LinearVelocity:  b.velocity,
		AngularVelocity: b.angular,
		Mass:            b.mass,
		Active:          b.active,
	}, nil
}

// BodyCount количество тел в мире
func (w *SimWorld) BodyCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.bodies)
}

// ConstraintCount количество соединений в мире
func (w *SimWorld) ConstraintCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.constraints)
}

// Elapsed суммарное время симуляции в секундах
func (w *SimWorld) Elapsed() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.elapsed
}

// Step продвигает симуляцию на dt секунд фиксированными подшагами
func (w *SimWorld) Step(dt float64) {
	if dt <= 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	substeps := w.config.Substeps
	if substeps <= 0 {
		substeps = 1
	}
	h := dt / float64(substeps)
	groups := w.groupsLocked()

	for i := 0; i < substeps; i++ {
		for _, g := range groups {
			w.solveGroupLocked(g, h)
		}
	}
	w.elapsed += dt
}

// groupsLocked разбивает тела на компоненты связности по соединениям.
// Порядок детерминирован.
func (w *SimWorld) groupsLocked() [][]*body {
	ids := make([]string, 0, len(w.bodies))
	for id := range w.bodies {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	seen := make(map[string]bool, len(ids))
	var groups [][]*body
	for _, id := range ids {
		if seen[id] {
			continue
		}
		var group []*body
		stack := []string{id}
		seen[id] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			b := w.bodies[cur]
			group = append(group, b)
			for cid := range b.constraints {
				c := w.constraints[cid]
				peer := c.spec.BodyA
				if peer == cur {
					peer = c.spec.BodyB
				}
				if !seen[peer] {
					seen[peer] = true
					stack = append(stack, peer)
				}
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// solveGroupLocked интегрирует компоненту как одно твердое тело.
// Компонента, прикрепленная к статичному телу, не двигается.
func (w *SimWorld) solveGroupLocked(group []*body, h float64) {
	var (
		mass     float64
		momentum mgl64.Vec3
		angular  mgl64.Vec3
		active   bool
	)
	for _, b := range group {
		if !b.dynamic() {
			for _, o := range group {
				o.velocity = mgl64.Vec3{}
				o.angular = mgl64.Vec3{}
			}
			return
		}
		mass += b.mass
		momentum = momentum.Add(b.velocity.Mul(b.mass))
		angular = angular.Add(b.angular.Mul(b.mass))
		active = active || b.active
	}
	if !active || mass <= 0 {
		return
	}

	v := momentum.Mul(1 / mass)
	omega := angular.Mul(1 / mass)

	v = v.Add(w.config.Gravity.Mul(h))
	lin, ang := w.damping(group)
	v = v.Mul(math.Max(0, 1-lin*h))
	omega = omega.Mul(math.Max(0, 1-ang*h))
	if w.config.MaxSpeed > 0 && v.Len() > w.config.MaxSpeed {
		v = v.Normalize().Mul(w.config.MaxSpeed)
	}

	// земля: самая низкая точка компоненты не проходит сквозь плоскость
	delta := v.Mul(h)
	lowest := math.Inf(1)
	var restitution, friction float64
	for _, b := range group {
		bottom := b.position.Z() + delta.Z() - b.halfExtents.Z()
		if bottom < lowest {
			lowest = bottom
			restitution = b.spec.Restitution
			friction = b.spec.Friction
		}
	}
	if penetration := w.config.GroundHeight - lowest; penetration > 0 {
		delta[2] += penetration
		if v.Z() < 0 {
			v[2] = -v.Z() * restitution
		}
		k := math.Max(0, 1-(w.config.GroundFriction+friction)*h*10)
		v[0] *= k
		v[1] *= k
		omega = omega.Mul(k)
	}

	var dq mgl64.Quat
	turning := omega.Len() > 1e-9
	if turning {
		dq = mgl64.QuatRotate(omega.Len()*h, omega.Normalize())
	}

	asleep := onGround(w.config.GroundHeight, lowest) && v.Len() < w.config.SleepSpeed && omega.Len() < w.config.SleepSpeed
	for _, b := range group {
		b.position = b.position.Add(delta)
		b.velocity = v
		b.angular = omega
		if turning {
			b.rotation = dq.Mul(b.rotation).Normalize()
		}
		if asleep {
			b.velocity = mgl64.Vec3{}
			b.angular = mgl64.Vec3{}
			b.active = false
		}
	}
}

func onGround(ground, lowest float64) bool {
	return ground-lowest > -1e-6
}

// damping усредняет затухание компоненты
func (w *SimWorld) damping(group []*body) (float64, float64) {
	var lin, ang float64
	for _, b := range group {
		lin += b.spec.LinearDamping
		ang += b.spec.AngularDamping
	}
	n := float64(len(group))
	return lin/n + w.config.LinearDamping, ang/n + w.config.AngularDamping
}

// shapeExtents вычисляет габарит тела по форме
func shapeExtents(spec BodySpec) (mgl64.Vec3, error) {
	switch spec.Shape {
	case ShapeBox, "":
		h := spec.HalfExtents
		if h.X() <= 0 || h.Y() <= 0 || h.Z() <= 0 {
			return mgl64.Vec3{}, fmt.Errorf("%w: габарит %v", ErrInvalidShape, h)
		}
		return h, nil
	case ShapeConvexHull:
		if len(spec.HullPoints) < 4 {
			return mgl64.Vec3{}, fmt.Errorf("%w: у оболочки %d точек", ErrInvalidShape, len(spec.HullPoints))
		}
		var h mgl64.Vec3
		for _, p := range spec.HullPoints {
			for a := 0; a < 3; a++ {
				h[a] = math.Max(h[a], math.Abs(p[a]))
			}
		}
		return h, nil
	}
	return mgl64.Vec3{}, fmt.Errorf("%w: %q", ErrInvalidShape, spec.Shape)
}
