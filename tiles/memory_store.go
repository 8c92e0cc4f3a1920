package tiles

import (
	"image"
	"sync"

	"github.com/disintegration/imaging"
)

// MemoryStore is a Store that lives only as long as the process.
type MemoryStore struct {
	cache map[TileKey]*image.NRGBA
	mu    sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: make(map[TileKey]*image.NRGBA),
	}
}

func (c *MemoryStore) Get(key TileKey) (image.Image, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.cache[key]
	if !ok {
		return nil, false, nil
	}
	return img, true, nil
}

func (c *MemoryStore) Put(key TileKey, img image.Image) error {
	c.mu.Lock()
	c.cache[key] = imaging.Clone(img)
	c.mu.Unlock()
	return nil
}

func (c *MemoryStore) Clear(provider string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var removed []string
	for key := range c.cache {
		if provider == AllProviders || key.Provider == provider {
			removed = append(removed, key.String())
			delete(c.cache, key)
		}
	}
	return removed, nil
}

func (c *MemoryStore) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// LayeredStore reads through a fast front store to a durable back store.
// Back hits are copied forward; writes go to both.
type LayeredStore struct {
	Front, Back Store
}

func NewLayeredStore(front, back Store) *LayeredStore {
	return &LayeredStore{Front: front, Back: back}
}

func (s *LayeredStore) Get(key TileKey) (image.Image, bool, error) {
	if img, ok, err := s.Front.Get(key); err != nil || ok {
		return img, ok, err
	}
	img, ok, err := s.Back.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	if err := s.Front.Put(key, img); err != nil {
		return nil, false, err
	}
	return img, true, nil
}

func (s *LayeredStore) Put(key TileKey, img image.Image) error {
	if err := s.Back.Put(key, img); err != nil {
		return err
	}
	return s.Front.Put(key, img)
}

func (s *LayeredStore) Clear(provider string) ([]string, error) {
	if _, err := s.Front.Clear(provider); err != nil {
		return nil, err
	}
	return s.Back.Clear(provider)
}
