// Package ecs is a small entity-component store used to manage many
// animated characters in one scene.
package ecs

import (
	"reflect"
	"slices"
)

// EntityID identifies an entity. Zero is never assigned.
type EntityID uint64

// EntityManager owns every entity and its components. Components are keyed
// by their dynamic type, so an entity holds at most one component per type.
type EntityManager struct {
	nextID uint64
	// entity -> component type -> component
	components map[EntityID]map[reflect.Type]any
	// destroyed at the next RemoveMarkedEntities
	entitiesToDestroy []EntityID
}

func NewEntityManager() *EntityManager {
	return &EntityManager{
		nextID:     1,
		components: make(map[EntityID]map[reflect.Type]any),
	}
}

// CreateEntity returns a new unique id.
func (em *EntityManager) CreateEntity() EntityID {
	id := EntityID(em.nextID)
	em.nextID++
	em.components[id] = make(map[reflect.Type]any)
	return id
}

// DestroyEntity marks id for removal. The entity stays queryable until
// RemoveMarkedEntities runs, so systems iterating this frame are unaffected.
func (em *EntityManager) DestroyEntity(id EntityID) {
	em.entitiesToDestroy = append(em.entitiesToDestroy, id)
}

// RemoveMarkedEntities deletes every entity passed to DestroyEntity.
func (em *EntityManager) RemoveMarkedEntities() {
	for _, id := range em.entitiesToDestroy {
		delete(em.components, id)
	}
	em.entitiesToDestroy = em.entitiesToDestroy[:0]
}

// Exists reports whether id is a live entity.
func (em *EntityManager) Exists(id EntityID) bool {
	_, ok := em.components[id]
	return ok
}

// Count returns the number of live entities.
func (em *EntityManager) Count() int {
	return len(em.components)
}

// AddComponent attaches component to id, replacing any component of the
// same type. Unknown ids are ignored.
func (em *EntityManager) AddComponent(id EntityID, component any) {
	if compMap, ok := em.components[id]; ok {
		compMap[reflect.TypeOf(component)] = component
	}
}

func (em *EntityManager) RemoveComponent(id EntityID, componentType reflect.Type) {
	if compMap, ok := em.components[id]; ok {
		delete(compMap, componentType)
	}
}

func (em *EntityManager) GetComponent(id EntityID, componentType reflect.Type) (any, bool) {
	comp, ok := em.components[id][componentType]
	return comp, ok
}

func (em *EntityManager) HasComponent(id EntityID, componentType reflect.Type) bool {
	_, ok := em.components[id][componentType]
	return ok
}

// GetEntitiesWith returns the entities holding every listed component type,
// in ascending id order so iteration is deterministic.
func (em *EntityManager) GetEntitiesWith(componentTypes ...reflect.Type) []EntityID {
	var result []EntityID
	for id, compMap := range em.components {
		hasAll := true
		for _, ct := range componentTypes {
			if _, ok := compMap[ct]; !ok {
				hasAll = false
				break
			}
		}
		if hasAll {
			result = append(result, id)
		}
	}
	slices.Sort(result)
	return result
}

// GetComponent returns the component of type T attached to id.
func GetComponent[T any](em *EntityManager, id EntityID) (T, bool) {
	var zero T
	comp, ok := em.GetComponent(id, reflect.TypeFor[T]())
	if !ok {
		return zero, false
	}
	return comp.(T), true
}

// GetEntitiesWith1 returns the entities holding a T component.
func GetEntitiesWith1[T any](em *EntityManager) []EntityID {
	return em.GetEntitiesWith(reflect.TypeFor[T]())
}

// GetEntitiesWith2 returns the entities holding both a T1 and a T2 component.
func GetEntitiesWith2[T1, T2 any](em *EntityManager) []EntityID {
	return em.GetEntitiesWith(reflect.TypeFor[T1](), reflect.TypeFor[T2]())
}
