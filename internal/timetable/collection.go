package timetable

import "sort"

type entity[E any] interface {
	key() string
	index() uint32
	setIndex(uint32)
	less(E) bool
}

// Collection owns the entities of one type together with their uri map.
// Both are always copied together.
type Collection[E entity[E]] struct {
	items []E
	byURI map[string]uint32
}

// Add appends e and gives it the next index.
func (c *Collection[E]) Add(e E) uint32 {
	idx := uint32(len(c.items))
	e.setIndex(idx)
	c.items = append(c.items, e)
	if c.byURI == nil {
		c.byURI = make(map[string]uint32)
	}
	if k := e.key(); k != "" {
		c.byURI[k] = idx
	}
	return idx
}

func (c *Collection[E]) Len() int { return len(c.items) }

func (c *Collection[E]) At(idx uint32) E { return c.items[idx] }

func (c *Collection[E]) Items() []E { return c.items }

// Lookup returns the index registered for uri.
func (c *Collection[E]) Lookup(uri string) (uint32, bool) {
	idx, ok := c.byURI[uri]
	return idx, ok
}

// sort orders the items by their Less relation and reindexes them. It returns
// the old index to new index mapping used to fix up references.
func (c *Collection[E]) sort() []uint32 {
	sort.SliceStable(c.items, func(i, j int) bool {
		return c.items[i].less(c.items[j])
	})
	perm := make([]uint32, len(c.items))
	for pos, e := range c.items {
		perm[e.index()] = uint32(pos)
	}
	c.index()
	return perm
}

// index renumbers the items from zero in container order.
func (c *Collection[E]) index() {
	for pos, e := range c.items {
		e.setIndex(uint32(pos))
	}
}

func (c *Collection[E]) buildURI() {
	c.byURI = make(map[string]uint32, len(c.items))
	for _, e := range c.items {
		if k := e.key(); k != "" {
			c.byURI[k] = e.index()
		}
	}
}
