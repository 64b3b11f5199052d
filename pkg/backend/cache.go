package backend

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gitgate/gitgate/pkg/db/models"
)

// cache memoizes container path lookups across requests. Entries are safe
// to recompute on eviction.
type cache struct {
	b          *Backend
	containers *lru.Cache[string, models.Container]
}

func newCache(b *Backend, size int) *cache {
	if size <= 0 {
		size = 1
	}
	c := &cache{b: b}
	cache, _ := lru.New[string, models.Container](size)
	c.containers = cache
	return c
}

func (c *cache) Get(path string) (models.Container, bool) {
	return c.containers.Get(path)
}

func (c *cache) Set(path string, m models.Container) {
	c.containers.Add(path, m)
}

func (c *cache) Delete(path string) {
	c.containers.Remove(path)
}

func (c *cache) Len() int {
	return c.containers.Len()
}
