package pool

import (
	"errors"
	"testing"

	"github.com/kingofdarck/idle-garden-sub001/internal/object"
)

func newProjectilePool(initial int) *Pool {
	p := New()
	p.Register(object.KindProjectile,
		func(req object.SpawnRequest) object.Entity {
			return object.NewProjectile(req.X, req.Y, req.Speed)
		},
		func(e object.Entity, req object.SpawnRequest) {
			e.(*object.Projectile).Reset(req.X, req.Y, req.Speed)
		},
		initial,
	)
	return p
}

func TestRegisterPrepopulates(t *testing.T) {
	p := newProjectilePool(4)
	s := p.Stats(object.KindProjectile)
	if s.Available != 4 || s.InUse != 0 || s.TotalCreated != 4 || s.TotalReused != 0 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestAcquireReusesBeforeCreating(t *testing.T) {
	p := newProjectilePool(1)

	first, err := p.Acquire(object.KindProjectile, object.SpawnRequest{X: 10, Y: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.Active() {
		t.Error("expected reused entity to be active")
	}
	if b := first.Bounds(); b.CenterX != 10 || b.Bottom != 20 {
		t.Errorf("expected reset to apply spawn position, got %+v", b)
	}

	second, err := p.Acquire(object.KindProjectile, object.SpawnRequest{X: 30, Y: 40})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == second {
		t.Fatal("expected two distinct entities")
	}

	s := p.Stats(object.KindProjectile)
	if s.TotalReused != 1 || s.TotalCreated != 2 || s.InUse != 2 || s.Available != 0 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestReleaseThenAcquireRecycles(t *testing.T) {
	p := newProjectilePool(0)
	ent, _ := p.Acquire(object.KindProjectile, object.SpawnRequest{X: 1, Y: 1})

	if !p.Release(object.KindProjectile, ent) {
		t.Fatal("expected release to succeed")
	}
	if ent.Active() {
		t.Error("expected released entity to be inactive")
	}
	if p.InUse(object.KindProjectile, ent) {
		t.Error("released entity must not stay in use")
	}

	again, _ := p.Acquire(object.KindProjectile, object.SpawnRequest{X: 5, Y: 5})
	if again != ent {
		t.Error("expected the released entity to be handed out again")
	}
	if !again.Active() {
		t.Error("expected recycled entity to be active")
	}
}

func TestReleaseUntrackedIsNoop(t *testing.T) {
	p := newProjectilePool(0)
	ent, _ := p.Acquire(object.KindProjectile, object.SpawnRequest{})

	if !p.Release(object.KindProjectile, ent) {
		t.Fatal("expected first release to succeed")
	}
	if p.Release(object.KindProjectile, ent) {
		t.Error("expected double release to be a no-op")
	}
	if p.Release(object.KindProjectile, object.NewProjectile(0, 0, 0)) {
		t.Error("expected release of a foreign entity to be a no-op")
	}
	if p.Release(object.KindAsteroid, ent) {
		t.Error("expected release to an unknown kind to be a no-op")
	}

	if s := p.Stats(object.KindProjectile); s.Available != 1 || s.InUse != 0 {
		t.Errorf("unexpected stats after no-op releases %+v", s)
	}
}

func TestAcquireUnknownKind(t *testing.T) {
	p := New()
	_, err := p.Acquire(object.KindAsteroid, object.SpawnRequest{})
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestAutoReleaseOnlyInactive(t *testing.T) {
	p := newProjectilePool(0)
	var ents []object.Entity
	for i := 0; i < 5; i++ {
		e, _ := p.Acquire(object.KindProjectile, object.SpawnRequest{})
		ents = append(ents, e)
	}
	ents[1].Destroy()
	ents[3].Destroy()

	if n := p.AutoRelease(object.KindProjectile, ents); n != 2 {
		t.Errorf("expected 2 released, got %d", n)
	}
	if n := p.AutoRelease(object.KindProjectile, ents); n != 0 {
		t.Errorf("expected second pass to release nothing, got %d", n)
	}

	s := p.Stats(object.KindProjectile)
	if s.InUse != 3 || s.Available != 2 {
		t.Errorf("unexpected stats %+v", s)
	}
	for i, e := range ents {
		inUse := p.InUse(object.KindProjectile, e)
		if inUse != e.Active() {
			t.Errorf("entity %d: in use %v but active %v", i, inUse, e.Active())
		}
	}
}

func TestNeverInBothSets(t *testing.T) {
	p := newProjectilePool(2)
	held := map[object.Entity]bool{}

	for round := 0; round < 20; round++ {
		e, err := p.Acquire(object.KindProjectile, object.SpawnRequest{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if held[e] {
			t.Fatalf("round %d: entity handed out twice", round)
		}
		held[e] = true

		if round%3 == 0 {
			for h := range held {
				p.Release(object.KindProjectile, h)
				delete(held, h)
				break
			}
		}
	}

	s := p.Stats(object.KindProjectile)
	if s.InUse != len(held) {
		t.Errorf("expected %d in use, got %d", len(held), s.InUse)
	}
	if s.TotalCreated != s.InUse+s.Available {
		t.Errorf("created %d but tracked %d", s.TotalCreated, s.InUse+s.Available)
	}
}
