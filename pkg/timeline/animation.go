package timeline

// Animation is a named group of timelines. Duration is the time of the
// latest key across all timelines.
type Animation struct {
	Name      string
	Timelines []Timeline
	Duration  float32
}

func NewAnimation(name string, timelines []Timeline) *Animation {
	var duration float32
	for _, t := range timelines {
		if d := t.Duration(); d > duration {
			duration = d
		}
	}
	return &Animation{Name: name, Timelines: timelines, Duration: duration}
}

// WrapTime maps a track time onto the animation. Looping animations wrap
// modulo the duration; others clamp to it.
func (a *Animation) WrapTime(time float32, loop bool) float32 {
	if a.Duration <= 0 {
		return 0
	}
	if loop {
		if time >= a.Duration {
			n := int(time / a.Duration)
			time -= float32(n) * a.Duration
			if time >= a.Duration {
				time = 0
			}
		}
		return time
	}
	if time > a.Duration {
		return a.Duration
	}
	return time
}
