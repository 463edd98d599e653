package utils

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status int
	header http.Header
	body   []byte
}

// PageCache keeps whole rendered responses for a fixed time. Writes elsewhere in the
// application never invalidate it; entries live until they expire or Clear is called.
type PageCache struct {
	store *cache.Cache
}

func NewPageCache(cleanupInterval time.Duration) *PageCache {
	return &PageCache{store: cache.New(cache.NoExpiration, cleanupInterval)}
}

func (c *PageCache) get(key string) (*cachedResponse, bool) {
	value, found := c.store.Get(key)
	if !found {
		return nil, false
	}
	resp, ok := value.(*cachedResponse)
	return resp, ok
}

func (c *PageCache) Delete(key string) {
	c.store.Delete(key)
}

// Clear drops every cached page.
func (c *PageCache) Clear() {
	c.store.Flush()
}

func (c *PageCache) Len() int {
	return c.store.ItemCount()
}

// CacheKey is unique per prefix, URL and viewer so a logged-in page is never shown to
// somebody else.
func CacheKey(prefix string, r *http.Request) string {
	userID, _ := GetUserIDFromContext(r)
	return fmt.Sprintf("%s:%s:%d", prefix, r.URL.RequestURI(), userID)
}

// CachePage serves GET requests from the cache, storing successful responses for ttl.
func (c *PageCache) CachePage(ttl time.Duration, prefix string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			next(w, r)
			return
		}

		key := CacheKey(prefix, r)
		if resp, ok := c.get(key); ok {
			for name, values := range resp.header {
				w.Header()[name] = append([]string(nil), values...)
			}
			w.WriteHeader(resp.status)
			w.Write(resp.body)
			return
		}

		w.Header().Set("Cache-Control", fmt.Sprintf("max-age=%d", int(ttl.Seconds())))
		rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		if rec.status == http.StatusOK {
			c.store.Set(key, &cachedResponse{
				status: rec.status,
				header: w.Header().Clone(),
				body:   rec.body.Bytes(),
			}, ttl)
		}
	}
}

// recordingWriter copies everything written through it.
type recordingWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (rw *recordingWriter) WriteHeader(status int) {
	if rw.wroteHeader {
		return
	}
	rw.wroteHeader = true
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *recordingWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}
