package tiles

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func tilePNG(t *testing.T, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, TileSize, TileSize))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	img.Pix[0] = 7 // one distinct pixel
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// stubFetcher fails the first failures calls, then serves body.
type stubFetcher struct {
	mu       sync.Mutex
	calls    int
	failures int
	body     []byte
	urls     []string
}

func (f *stubFetcher) Fetch(url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.urls = append(f.urls, url)
	if f.calls <= f.failures {
		return nil, errors.New("connection reset")
	}
	return f.body, nil
}

func newTestManager(store Store, fetcher Fetcher, retries int) (*TileManager, *int) {
	source := TileSource{Name: "test", URLTemplate: "https://tiles.example/{z}/{x}/{y}.png?k={api_key}", APIKey: "secret"}
	tm := NewTileManager(source, store, fetcher, retries, 100*time.Millisecond)
	sleeps := 0
	tm.SetSleep(func(d time.Duration) {
		if d != 100*time.Millisecond {
			panic("unexpected throttle")
		}
		sleeps++
	})
	return tm, &sleeps
}

func pix(t *testing.T, img image.Image) []byte {
	t.Helper()
	n, ok := img.(*image.NRGBA)
	if !ok {
		t.Fatalf("tile type = %T, want *image.NRGBA", img)
	}
	return n.Pix
}

func TestTileManagerCachesOnDisk(t *testing.T) {
	fetcher := &stubFetcher{body: tilePNG(t, color.NRGBA{10, 20, 30, 255})}
	store := NewDiskStore(t.TempDir())
	tm, _ := newTestManager(store, fetcher, 3)

	tile := Tile{X: 3, Y: 5, Zoom: 4}
	first, err := tm.GetTile(tile)
	if err != nil {
		t.Fatalf("first GetTile: %v", err)
	}
	second, err := tm.GetTile(tile)
	if err != nil {
		t.Fatalf("second GetTile: %v", err)
	}

	if fetcher.calls != 1 {
		t.Errorf("fetch calls = %d, want 1", fetcher.calls)
	}
	if !bytes.Equal(pix(t, first), pix(t, second)) {
		t.Error("cached tile differs from fetched tile")
	}
	if got := fetcher.urls[0]; got != "https://tiles.example/4/3/5.png?k=secret" {
		t.Errorf("url = %q", got)
	}

	// A fresh manager over the same directory never touches the network.
	other := &stubFetcher{failures: 100}
	tm2, _ := newTestManager(store, other, 3)
	third, err := tm2.GetTile(tile)
	if err != nil {
		t.Fatalf("GetTile from warm disk: %v", err)
	}
	if other.calls != 0 {
		t.Errorf("warm disk fetch calls = %d, want 0", other.calls)
	}
	if !bytes.Equal(pix(t, first), pix(t, third)) {
		t.Error("tile read back from disk differs")
	}
}

func TestTileManagerRetriesThenSucceeds(t *testing.T) {
	const retries = 4
	fetcher := &stubFetcher{failures: retries - 1, body: tilePNG(t, color.NRGBA{1, 2, 3, 255})}
	tm, sleeps := newTestManager(NewMemoryStore(), fetcher, retries)

	img, err := tm.GetTile(Tile{X: 1, Y: 1, Zoom: 2})
	if err != nil {
		t.Fatalf("GetTile: %v", err)
	}
	if img.Bounds().Dx() != TileSize || img.Bounds().Dy() != TileSize {
		t.Errorf("tile size = %v, want 256x256", img.Bounds())
	}
	if fetcher.calls != retries {
		t.Errorf("fetch calls = %d, want %d", fetcher.calls, retries)
	}
	if *sleeps != retries {
		t.Errorf("throttle sleeps = %d, want %d (one before every attempt)", *sleeps, retries)
	}
}

func TestTileManagerExhaustsRetries(t *testing.T) {
	const retries = 3
	fetcher := &stubFetcher{failures: 1000}
	store := NewMemoryStore()
	tm, _ := newTestManager(store, fetcher, retries)

	_, err := tm.GetTile(Tile{X: 2, Y: 3, Zoom: 5})
	var fetchErr *TileFetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %v, want *TileFetchError", err)
	}
	if fetchErr.Attempts != retries || fetcher.calls != retries {
		t.Errorf("attempts = %d, calls = %d, want %d", fetchErr.Attempts, fetcher.calls, retries)
	}
	if fetchErr.Zoom != 5 || fetchErr.X != 2 || fetchErr.Y != 3 {
		t.Errorf("error tile = %d/%d/%d, want 5/2/3", fetchErr.Zoom, fetchErr.X, fetchErr.Y)
	}
	if fetchErr.Err == nil || fetchErr.Err.Error() != "connection reset" {
		t.Errorf("last error = %v, want connection reset", fetchErr.Err)
	}
	if store.Len() != 0 {
		t.Errorf("store has %d entries after failure, want 0", store.Len())
	}
}

func TestTileManagerUndecodableBodyIsFailedAttempt(t *testing.T) {
	fetcher := &stubFetcher{body: []byte("<html>rate limited</html>")}
	tm, _ := newTestManager(NewMemoryStore(), fetcher, 2)

	_, err := tm.GetTile(Tile{Zoom: 1})
	var fetchErr *TileFetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %v, want *TileFetchError", err)
	}
	if fetcher.calls != 2 {
		t.Errorf("fetch calls = %d, want 2", fetcher.calls)
	}
}

func TestTileManagerSharesInFlightFetch(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	body := tilePNG(t, color.NRGBA{9, 9, 9, 255})
	fetcher := fetchFunc(func(string) ([]byte, error) {
		calls.Add(1)
		<-release
		return body, nil
	})
	tm := NewTileManager(TileSource{Name: "test", URLTemplate: "{z}/{x}/{y}"}, NewMemoryStore(), fetcher, 1, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := tm.GetTile(Tile{X: 1, Y: 1, Zoom: 1}); err != nil {
				t.Errorf("GetTile: %v", err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("fetch calls = %d, want 1", calls.Load())
	}
}

type fetchFunc func(string) ([]byte, error)

func (f fetchFunc) Fetch(url string) ([]byte, error) { return f(url) }

func TestHTTPFetcherNon2xxIsRetried(t *testing.T) {
	body := tilePNG(t, color.NRGBA{50, 60, 70, 255})
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "geovideo-test" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer srv.Close()

	source := TileSource{Name: "srv", URLTemplate: srv.URL + "/{z}/{x}/{y}.png"}
	tm := NewTileManager(source, NewMemoryStore(), NewHTTPFetcher("geovideo-test"), 3, 0)
	if _, err := tm.GetTile(Tile{X: 0, Y: 0, Zoom: 0}); err != nil {
		t.Fatalf("GetTile: %v", err)
	}
	if hits.Load() != 3 {
		t.Errorf("server hits = %d, want 3", hits.Load())
	}
}

func TestNewProvider(t *testing.T) {
	store := NewMemoryStore()
	fetcher := &stubFetcher{}

	cases := []struct {
		opts    ProviderOptions
		wantErr bool
		name    string
	}{
		{ProviderOptions{Name: "osm"}, false, "osm"},
		{ProviderOptions{Name: "mapbox"}, true, ""},
		{ProviderOptions{Name: "mapbox", APIKey: "pk.1"}, false, "mapbox"},
		{ProviderOptions{Name: "custom"}, true, ""},
		{ProviderOptions{Name: "custom", URLTemplate: "https://x/{z}/{x}/{y}"}, false, "custom"},
		{ProviderOptions{Name: "local"}, false, "local"},
		{ProviderOptions{Name: "bing"}, true, ""},
	}
	for _, c := range cases {
		p, err := NewProvider(c.opts, store, fetcher)
		if c.wantErr {
			var upErr *UnknownProviderError
			if !errors.As(err, &upErr) {
				t.Errorf("%+v: error = %v, want *UnknownProviderError", c.opts, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%+v: %v", c.opts, err)
			continue
		}
		if p.Name() != c.name || p.Attribution() == "" {
			t.Errorf("%+v: provider %q attribution %q", c.opts, p.Name(), p.Attribution())
		}
	}
}

func TestMapboxURLCarriesKey(t *testing.T) {
	p, err := NewProvider(ProviderOptions{Name: "mapbox", APIKey: "pk.abc"}, NewMemoryStore(), &stubFetcher{})
	if err != nil {
		t.Fatal(err)
	}
	got := p.(*TileManager).Source().URL(Tile{X: 1, Y: 2, Zoom: 3})
	want := "https://api.mapbox.com/styles/v1/mapbox/satellite-v9/tiles/256/3/1/2?access_token=pk.abc"
	if got != want {
		t.Errorf("url = %q, want %q", got, want)
	}
}

func TestLocalTileProvider(t *testing.T) {
	img, err := NewLocalTileProvider().GetTile(Tile{X: 5, Y: 6, Zoom: 4})
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != image.Rect(0, 0, TileSize, TileSize) {
		t.Errorf("bounds = %v", img.Bounds())
	}
}
