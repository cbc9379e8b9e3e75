package systems

import (
	"fmt"
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/decker502/spine2d/pkg/components"
	"github.com/decker502/spine2d/pkg/ecs"
	"github.com/decker502/spine2d/pkg/timeline"
)

// EventHandler receives the events an entity fired during one update.
type EventHandler func(id ecs.EntityID, ev timeline.Event)

// AnimationSystem advances and poses every skeleton entity. Entities are
// processed in parallel; each entity is touched by exactly one goroutine.
type AnimationSystem struct {
	entityManager *ecs.EntityManager

	// Workers caps the number of goroutines. Zero means one per CPU.
	Workers int

	// OnEvent, when set, is called after each update for every fired
	// event, in entity order.
	OnEvent EventHandler

	verbose bool
	jobs    []animationJob
}

type animationJob struct {
	id   ecs.EntityID
	comp *components.SkeletonComponent
	pos  *components.PositionComponent
}

func NewAnimationSystem(em *ecs.EntityManager) *AnimationSystem {
	return &AnimationSystem{entityManager: em}
}

// SetVerbose enables per-entity event logging.
func (s *AnimationSystem) SetVerbose(verbose bool) {
	s.verbose = verbose
}

// Update advances every playback state by deltaTime seconds, applies it to
// its skeleton and recomputes world transforms.
func (s *AnimationSystem) Update(deltaTime float32) error {
	s.jobs = s.jobs[:0]
	for _, id := range ecs.GetEntitiesWith1[*components.SkeletonComponent](s.entityManager) {
		comp, _ := ecs.GetComponent[*components.SkeletonComponent](s.entityManager, id)
		pos, _ := ecs.GetComponent[*components.PositionComponent](s.entityManager, id)
		s.jobs = append(s.jobs, animationJob{id: id, comp: comp, pos: pos})
	}
	if len(s.jobs) == 0 {
		return nil
	}

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range s.jobs {
		job := &s.jobs[i]
		g.Go(func() error {
			return job.run(deltaTime)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if s.verbose {
		for _, job := range s.jobs {
			if n := len(job.comp.Events); n > 0 {
				log.Printf("[AnimationSystem] Entity %d fired %d events", job.id, n)
			}
		}
	}
	if s.OnEvent != nil {
		for _, job := range s.jobs {
			for _, ev := range job.comp.Events {
				s.OnEvent(job.id, ev)
			}
		}
	}
	return nil
}

func (j *animationJob) run(deltaTime float32) error {
	c := j.comp
	if c.Skeleton == nil || c.State == nil {
		return fmt.Errorf("entity %d: skeleton component is not initialized", j.id)
	}
	sk := c.Skeleton
	if j.pos != nil {
		sk.X, sk.Y = j.pos.X, j.pos.Y
	}
	c.State.Update(deltaTime)
	c.Events = c.State.Apply(sk)
	sk.UpdateWorldTransform()
	return nil
}
