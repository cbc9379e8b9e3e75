package ecs

import (
	"reflect"
	"testing"
)

type testPosition struct {
	X, Y float32
}

type testSkin struct {
	Name string
}

func TestCreateEntity(t *testing.T) {
	em := NewEntityManager()
	id1 := em.CreateEntity()
	id2 := em.CreateEntity()

	if id1 != 1 || id2 != 2 {
		t.Errorf("Expected ids 1 and 2, got %d and %d", id1, id2)
	}
	if em.Count() != 2 || !em.Exists(id1) || em.Exists(99) {
		t.Error("Unexpected entity bookkeeping")
	}
}

func TestAddAndGetComponent(t *testing.T) {
	em := NewEntityManager()
	id := em.CreateEntity()
	em.AddComponent(id, &testPosition{X: 100, Y: 200})

	pos, ok := GetComponent[*testPosition](em, id)
	if !ok {
		t.Fatal("Component should be found")
	}
	if pos.X != 100 || pos.Y != 200 {
		t.Errorf("Expected (100, 200), got (%v, %v)", pos.X, pos.Y)
	}

	if _, ok := GetComponent[*testSkin](em, id); ok {
		t.Error("Unexpected skin component")
	}
	if _, ok := GetComponent[*testPosition](em, 42); ok {
		t.Error("Unexpected component on unknown entity")
	}

	em.AddComponent(42, &testSkin{})
	if em.Exists(42) {
		t.Error("AddComponent must not create entities")
	}
}

func TestRemoveComponent(t *testing.T) {
	em := NewEntityManager()
	id := em.CreateEntity()
	em.AddComponent(id, &testPosition{})

	typ := reflect.TypeOf(&testPosition{})
	if !em.HasComponent(id, typ) {
		t.Fatal("Should have component after adding")
	}
	em.RemoveComponent(id, typ)
	if em.HasComponent(id, typ) {
		t.Error("Should not have component after removing")
	}
}

func TestDestroyEntity(t *testing.T) {
	em := NewEntityManager()
	ids := []EntityID{em.CreateEntity(), em.CreateEntity(), em.CreateEntity()}
	for _, id := range ids {
		em.AddComponent(id, &testPosition{})
	}

	em.DestroyEntity(ids[0])
	em.DestroyEntity(ids[2])
	if got := GetEntitiesWith1[*testPosition](em); len(got) != 3 {
		t.Errorf("Entities should remain until cleanup, got %v", got)
	}

	em.RemoveMarkedEntities()
	got := GetEntitiesWith1[*testPosition](em)
	if len(got) != 1 || got[0] != ids[1] {
		t.Errorf("Expected only %d, got %v", ids[1], got)
	}
}

func TestGetEntitiesWith(t *testing.T) {
	em := NewEntityManager()
	var both []EntityID
	for i := 0; i < 20; i++ {
		id := em.CreateEntity()
		em.AddComponent(id, &testPosition{})
		if i%2 == 0 {
			em.AddComponent(id, &testSkin{})
			both = append(both, id)
		}
	}
	skinOnly := em.CreateEntity()
	em.AddComponent(skinOnly, &testSkin{})

	got := GetEntitiesWith2[*testPosition, *testSkin](em)
	if len(got) != len(both) {
		t.Fatalf("Expected %d entities, got %d", len(both), len(got))
	}
	for i := range got {
		if got[i] != both[i] {
			t.Errorf("Expected ascending ids %v, got %v", both, got)
			break
		}
	}

	if n := len(GetEntitiesWith1[*testSkin](em)); n != len(both)+1 {
		t.Errorf("Expected %d skin entities, got %d", len(both)+1, n)
	}
}

func BenchmarkGetEntitiesWith2(b *testing.B) {
	em := NewEntityManager()
	for i := 0; i < 1000; i++ {
		id := em.CreateEntity()
		em.AddComponent(id, &testPosition{})
		if i%3 == 0 {
			em.AddComponent(id, &testSkin{})
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = GetEntitiesWith2[*testPosition, *testSkin](em)
	}
}
