package tiles

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"
)

// AllProviders selects every provider namespace in Store.Clear.
const AllProviders = "all"

// TileKey identifies a tile within one provider's namespace.
type TileKey struct {
	Provider string
	Tile     Tile
}

func (k TileKey) String() string {
	return fmt.Sprintf("%s/%s", k.Provider, GetTileKey(k.Tile))
}

// Store persists decoded tiles. Entries are immutable once written.
type Store interface {
	Get(key TileKey) (image.Image, bool, error)
	Put(key TileKey, img image.Image) error
	// Clear removes one provider's entries, or all of them for AllProviders.
	// It returns what was removed.
	Clear(provider string) ([]string, error)
}

// DiskStore keeps tiles as PNG files under {Root}/{provider}/{z}/{x}/{y}.png.
type DiskStore struct {
	Root string
}

func NewDiskStore(root string) *DiskStore {
	return &DiskStore{Root: root}
}

func (s *DiskStore) Path(key TileKey) string {
	return filepath.Join(s.Root, key.Provider,
		strconv.Itoa(key.Tile.Zoom), strconv.Itoa(key.Tile.X), strconv.Itoa(key.Tile.Y)+".png")
}

func (s *DiskStore) Get(key TileKey) (image.Image, bool, error) {
	f, err := os.Open(s.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	img, err := imaging.Decode(f)
	if err != nil {
		return nil, false, fmt.Errorf("decode cached tile %s: %w", key, err)
	}
	return imaging.Clone(img), true, nil
}

// Put writes through a temp file and a rename so concurrent writers of the
// same key never leave a torn file behind.
func (s *DiskStore) Put(key TileKey, img image.Image) error {
	path := s.Path(key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tile-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := imaging.Encode(tmp, img, imaging.PNG); err != nil {
		tmp.Close()
		return fmt.Errorf("encode tile %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *DiskStore) Clear(provider string) ([]string, error) {
	target := s.Root
	if provider != AllProviders {
		target = filepath.Join(s.Root, provider)
	}
	if _, err := os.Stat(target); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err := os.RemoveAll(target); err != nil {
		return nil, err
	}
	return []string{target}, nil
}

// ClearCache deletes a provider's subtree below root, or root itself for AllProviders.
func ClearCache(root, provider string) ([]string, error) {
	return NewDiskStore(root).Clear(provider)
}
