package middleware

// This in-memory cache keeps hot GET responses (trend queries are recomputed
// on every call otherwise). golang-lru evicts the least recently accessed
// entries, so memory stays bounded. Mutating endpoints must Purge.

import (
	"bytes"
	"io"
	"net/http"

	lru "github.com/hashicorp/golang-lru"
	"github.com/labstack/echo/v4"
)

type cachedResponse struct {
	status      int
	contentType string
	body        []byte
}

// ResponseCache is an LRU cache of successful GET responses keyed by URI.
type ResponseCache struct {
	cache *lru.Cache
}

// NewResponseCache creates a cache holding up to size responses.
func NewResponseCache(size int) (*ResponseCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &ResponseCache{cache: c}, nil
}

// Purge drops every cached response. Called after any mutation so readers
// never see deleted history.
func (rc *ResponseCache) Purge() {
	rc.cache.Purge()
}

// Middleware serves cached GET responses and captures cacheable ones.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}

			key := c.Request().RequestURI
			if ent, ok := rc.cache.Get(key); ok {
				cached := ent.(cachedResponse)
				return c.Blob(cached.status, cached.contentType, cached.body)
			}

			// Tee the response body so a successful reply can be stored.
			buf := new(bytes.Buffer)
			res := c.Response()
			original := res.Writer
			res.Writer = &teeWriter{ResponseWriter: original, tee: io.MultiWriter(buf, original)}
			defer func() { res.Writer = original }()

			if err := next(c); err != nil {
				return err
			}

			if res.Status == http.StatusOK {
				rc.cache.Add(key, cachedResponse{
					status:      res.Status,
					contentType: res.Header().Get(echo.HeaderContentType),
					body:        append([]byte(nil), buf.Bytes()...),
				})
			}
			return nil
		}
	}
}

type teeWriter struct {
	http.ResponseWriter
	tee io.Writer
}

func (w *teeWriter) Write(b []byte) (int, error) {
	return w.tee.Write(b)
}
