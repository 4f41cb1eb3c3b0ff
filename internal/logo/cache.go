// Package logo fetches and caches team logo images for the board renderer.
package logo

import (
	"container/list"
	"fmt"
	"image"
	_ "image/gif"  // Support GIF format
	_ "image/jpeg" // Support JPEG format
	_ "image/png"  // Support PNG format
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	_ "golang.org/x/image/webp" // Support WebP format (hosted logos)
)

const (
	DefaultMaxLogos      = 64
	LogoTTL              = 30 * time.Minute
	MaxConcurrentFetches = 3
	FetchTimeout         = 5 * time.Second
	MaxLogoBytes         = 4 << 20

	// FailureBackoff is how long a failed URL is left alone before retrying
	FailureBackoff = time.Minute
)

// entry holds a decoded logo and its LRU position
type entry struct {
	url       string
	img       image.Image
	fetchedAt time.Time
}

// Cache stores decoded logos with LRU eviction and a TTL.
// Lookups never block on the network.
type Cache struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	lru     *list.List // front = most recently used
	maxSize int
	ttl     time.Duration

	pending map[string]bool
	failed  map[string]time.Time
	client  *http.Client
	sem     chan struct{}
	wg      sync.WaitGroup

	now func() time.Time

	// OnFetch reports each finished download (metrics)
	OnFetch func(ok bool)
}

// NewCache creates a logo cache. A nil client gets a default with FetchTimeout.
func NewCache(maxSize int, client *http.Client) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxLogos
	}
	if client == nil {
		client = &http.Client{Timeout: FetchTimeout}
	}
	return &Cache{
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		maxSize: maxSize,
		ttl:     LogoTTL,
		pending: make(map[string]bool),
		failed:  make(map[string]time.Time),
		client:  client,
		sem:     make(chan struct{}, MaxConcurrentFetches),
		now:     time.Now,
	}
}

// Get returns a cached logo or nil
func (c *Cache) Get(url string) image.Image {
	if url == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[url]
	if !ok {
		return nil
	}
	e := el.Value.(*entry)
	if c.now().Sub(e.fetchedAt) > c.ttl {
		c.lru.Remove(el)
		delete(c.items, url)
		return nil
	}
	c.lru.MoveToFront(el)
	return e.img
}

// GetOrFetch returns the cached logo, or nil after starting a background fetch
func (c *Cache) GetOrFetch(url string) image.Image {
	if img := c.Get(url); img != nil || url == "" {
		return img
	}
	c.fetch(url)
	return nil
}

// Prefetch starts background fetches for every logo not yet cached
func (c *Cache) Prefetch(urls []string) {
	for _, url := range urls {
		if url != "" && c.Get(url) == nil {
			c.fetch(url)
		}
	}
}

// Wait blocks until in-flight fetches complete
func (c *Cache) Wait() {
	c.wg.Wait()
}

// Size returns the number of cached logos
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cache) fetch(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[url] {
		return
	}
	if at, ok := c.failed[url]; ok {
		if c.now().Sub(at) < FailureBackoff {
			return
		}
		delete(c.failed, url)
	}
	c.pending[url] = true
	c.wg.Add(1)
	go c.fetchAsync(url)
}

// fetchAsync downloads, decodes and stores one logo
func (c *Cache) fetchAsync(url string) {
	defer c.wg.Done()

	c.sem <- struct{}{}
	defer func() { <-c.sem }()

	defer func() {
		c.mu.Lock()
		delete(c.pending, url)
		c.mu.Unlock()
	}()

	img, err := c.download(url)
	if c.OnFetch != nil {
		c.OnFetch(err == nil)
	}
	if err != nil {
		c.mu.Lock()
		c.failed[url] = c.now()
		c.mu.Unlock()
		log.Printf("⚠️ Logo fetch failed for %s: %v", short(url), err)
		return
	}

	c.store(url, img)
	log.Printf("🖼️ Logo cached for %s", short(url))
}

func (c *Cache) download(url string) (image.Image, error) {
	resp, err := c.client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, MaxLogoBytes))
	if err != nil {
		return nil, fmt.Errorf("decode (Content-Type: %s): %w", resp.Header.Get("Content-Type"), err)
	}
	return img, nil
}

func (c *Cache) store(url string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[url]; ok {
		el.Value = &entry{url: url, img: img, fetchedAt: c.now()}
		c.lru.MoveToFront(el)
		return
	}

	for c.lru.Len() >= c.maxSize {
		oldest := c.lru.Back()
		c.lru.Remove(oldest)
		delete(c.items, oldest.Value.(*entry).url)
	}
	c.items[url] = c.lru.PushFront(&entry{url: url, img: img, fetchedAt: c.now()})
}

func short(url string) string {
	return url[:min(50, len(url))]
}
