package property

type cacheKey struct {
	element ID
	path    string
}

// Cache memoizes resolved values per owning timeline. Entries are keyed by
// handles rather than pointers, so a cache never keeps an element alive.
// It is cleared explicitly, once per frame, by the timeline that owns it.
type Cache struct {
	scopes map[ID]map[cacheKey]any
}

func NewCache() *Cache {
	return &Cache{scopes: make(map[ID]map[cacheKey]any)}
}

func (c *Cache) get(owner, element ID, path string) (any, bool) {
	scope, ok := c.scopes[owner]
	if !ok {
		return nil, false
	}
	v, ok := scope[cacheKey{element, path}]
	return v, ok
}

func (c *Cache) put(owner, element ID, path string, v any) {
	scope, ok := c.scopes[owner]
	if !ok {
		scope = make(map[cacheKey]any)
		c.scopes[owner] = scope
	}
	scope[cacheKey{element, path}] = v
}

// Clear drops every value cached for the owner's elements.
func (c *Cache) Clear(owner ID) {
	delete(c.scopes, owner)
}

// Len returns the number of values cached for the owner.
func (c *Cache) Len(owner ID) int {
	return len(c.scopes[owner])
}
