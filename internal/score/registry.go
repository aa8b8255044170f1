package score

import (
	"fmt"
	"sync/atomic"
)

// Registry holds the published parameter version. Scoring reads whatever
// version is current when it starts; publication is a pointer swap, so a
// long calibration run never stalls concurrent scoring.
type Registry struct {
	current atomic.Pointer[Parameters]
}

func NewRegistry(initial *Parameters) *Registry {
	r := &Registry{}
	r.current.Store(initial)
	return r
}

// Current returns the latest published parameters. The returned set is
// immutable; callers must not modify it.
func (r *Registry) Current() *Parameters {
	return r.current.Load()
}

// Publish installs a new parameter version. Versions are strictly
// monotonic; publishing a stale or equal version fails.
func (r *Registry) Publish(p *Parameters) error {
	for {
		cur := r.current.Load()
		if p.Version <= cur.Version {
			return fmt.Errorf("parameter version %d not greater than published %d", p.Version, cur.Version)
		}
		if r.current.CompareAndSwap(cur, p) {
			return nil
		}
	}
}
