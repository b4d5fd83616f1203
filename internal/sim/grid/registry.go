package grid

import "github.com/elliotchance/orderedmap/v2"

// Registry maps occupied cells to opaque handles owned by a presentation layer.
// Keys are exact integer cells, never floating point positions.
type Registry[H any] struct {
	m *orderedmap.OrderedMap[Cell, H]
}

func NewRegistry[H any]() *Registry[H] {
	return &Registry[H]{m: orderedmap.NewOrderedMap[Cell, H]()}
}

func (r *Registry[H]) Put(c Cell, h H) {
	r.m.Set(c, h)
}

func (r *Registry[H]) Get(c Cell) (H, bool) {
	return r.m.Get(c)
}

// Take removes and returns the handle for c.
func (r *Registry[H]) Take(c Cell) (H, bool) {
	h, ok := r.m.Get(c)
	if ok {
		r.m.Delete(c)
	}
	return h, ok
}

func (r *Registry[H]) Len() int { return r.m.Len() }

func (r *Registry[H]) Clear() {
	r.m = orderedmap.NewOrderedMap[Cell, H]()
}

// Each visits entries in insertion order until fn returns false.
func (r *Registry[H]) Each(fn func(c Cell, h H) bool) {
	for el := r.m.Front(); el != nil; el = el.Next() {
		if !fn(el.Key, el.Value) {
			return
		}
	}
}
