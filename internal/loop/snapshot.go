package loop

import "github.com/kingofdarck/idle-garden-sub001/internal/object"

// EntityView is the render-relevant part of one active entity.
type EntityView struct {
	Kind    object.Kind `msgpack:"kind"`
	X       float64     `msgpack:"x"`
	Y       float64     `msgpack:"y"`
	Width   float64     `msgpack:"w"`
	Height  float64     `msgpack:"h"`
	Size    int         `msgpack:"size,omitempty"`    // Asteroid size class
	Angle   float64     `msgpack:"angle,omitempty"`   // Asteroid rotation in radians
	Outline []float64   `msgpack:"outline,omitempty"` // Asteroid vertex radii, shared and read-only
}

// Snapshot is an immutable view of the engine for renderers.
type Snapshot struct {
	Phase     Phase        `msgpack:"phase"`
	State     GameState    `msgpack:"state"`
	Time      float64      `msgpack:"time"`
	Width     float64      `msgpack:"width"`
	Height    float64      `msgpack:"height"`
	MultiShot int          `msgpack:"multishot"`
	Boost     float64      `msgpack:"boost"` // Remaining boost in ms
	SpawnRate float64      `msgpack:"spawn_rate"`
	Ship      EntityView   `msgpack:"ship"`
	Entities  []EntityView `msgpack:"entities"` // Active asteroids and projectiles
}

// Snapshot copies the current state. Inactive entities are skipped.
func (e *Engine) Snapshot() *Snapshot {
	s := &Snapshot{
		Phase:     e.phase,
		State:     e.state,
		Time:      e.now,
		Width:     e.screen.Width,
		Height:    e.screen.Height,
		SpawnRate: e.difficulty.SpawnRate,
		Entities:  make([]EntityView, 0, len(e.entities)),
	}
	if e.ship != nil {
		s.Ship = viewOf(e.ship)
		s.MultiShot = e.ship.MultiShot
		s.Boost = e.ship.BoostRemaining(e.now)
	}

	for _, ent := range e.entities {
		if !ent.Active() || ent.Kind() == object.KindShip {
			continue
		}
		s.Entities = append(s.Entities, viewOf(ent))
	}
	return s
}

func viewOf(ent object.Entity) EntityView {
	b := ent.Base()
	v := EntityView{
		Kind:   ent.Kind(),
		X:      b.Position.X,
		Y:      b.Position.Y,
		Width:  b.Size.Width,
		Height: b.Size.Height,
	}
	if a, ok := ent.(*object.Asteroid); ok {
		v.Size = int(a.SizeClass)
		v.Angle = a.Angle
		v.Outline = a.Outline
	}
	return v
}
