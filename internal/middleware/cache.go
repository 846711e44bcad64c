package middleware

import (
    "bytes"
    "context"
    "encoding/json"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/groovemind/internal/config"
)

// captureWriter copies the response body (up to limit bytes) while
// forwarding it to the client.
type captureWriter struct {
    http.ResponseWriter
    status    int
    buf       bytes.Buffer
    limit     int64
    truncated bool
}

func (cw *captureWriter) WriteHeader(code int) {
    cw.status = code
    cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
    if !cw.truncated {
        if cw.limit > 0 && int64(cw.buf.Len()+len(b)) > cw.limit {
            cw.truncated = true
            cw.buf.Reset()
        } else {
            cw.buf.Write(b)
        }
    }
    return cw.ResponseWriter.Write(b)
}

// cachedResponse is the stored form of a response.
type cachedResponse struct {
    Status      int    `json:"status"`
    ContentType string `json:"content_type"`
    Body        []byte `json:"body"`
}

// ResponseCache serves repeated GETs from Redis.  Entries are keyed by the
// request path, so a handler that changes the underlying data can drop
// exactly the affected entry with Invalidate.  A nil *ResponseCache or one
// without Redis caches nothing.
type ResponseCache struct {
    cfg config.CacheConfig
    rdb *redis.Client
}

// NewResponseCache returns a cache bound to rdb; rdb may be nil.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client) *ResponseCache {
    if cfg.TTL <= 0 {
        cfg.TTL = 30 * time.Second
    }
    return &ResponseCache{cfg: cfg, rdb: rdb}
}

func (rc *ResponseCache) active() bool {
    return rc != nil && rc.cfg.Enabled && rc.rdb != nil
}

// Key returns the Redis key for a request path.
func (rc *ResponseCache) Key(path string) string {
    return rc.cfg.Prefix + ":path:" + path
}

// Invalidate drops the cached response for path.
func (rc *ResponseCache) Invalidate(ctx context.Context, path string) error {
    if !rc.active() {
        return nil
    }
    return rc.rdb.Del(ctx, rc.Key(path)).Err()
}

// Middleware caches successful GET responses.  Requests with a query
// string bypass the cache because Invalidate only knows paths.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
    if !rc.active() {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            r := c.Request()
            if r.Method != http.MethodGet || r.URL.RawQuery != "" {
                return next(c)
            }
            ctx := r.Context()
            key := rc.Key(r.URL.Path)

            if bs, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
                var hit cachedResponse
                if json.Unmarshal(bs, &hit) == nil {
                    if hit.ContentType != "" {
                        c.Response().Header().Set(echo.HeaderContentType, hit.ContentType)
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    return c.Blob(hit.Status, hit.ContentType, hit.Body)
                }
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(rc.cfg.MaxBodyBytes)}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || cw.truncated {
                return nil
            }
            entry := cachedResponse{
                Status:      cw.status,
                ContentType: c.Response().Header().Get(echo.HeaderContentType),
                Body:        cw.buf.Bytes(),
            }
            if payload, err := json.Marshal(entry); err == nil {
                if err := rc.rdb.Set(context.Background(), key, payload, rc.cfg.TTL).Err(); err != nil {
                    c.Logger().Warnf("cache: store %s: %v", key, err)
                }
            }
            return nil
        }
    }
}
