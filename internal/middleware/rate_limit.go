// internal/middleware/rate_limit.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/bytemarket/marketplace-backend/internal/utils"
)

// Throttle guards one surface of the ledger API. Browse and token traffic is
// keyed by client IP; trade and upload traffic is keyed by the authenticated
// party address, so many buyers behind one NAT do not share a bucket and one
// party cannot dodge its quota by rotating addresses.
type Throttle struct {
	mu       sync.Mutex
	buckets  map[string]*tokenBucket
	limit    rate.Limit
	burst    int
	byParty  bool
	nextScan time.Time
}

type tokenBucket struct {
	limiter *rate.Limiter
	touched time.Time
}

const bucketIdle = 5 * time.Minute

func newThrottle(limit rate.Limit, burst int, byParty bool) *Throttle {
	return &Throttle{
		buckets: make(map[string]*tokenBucket),
		limit:   limit,
		burst:   burst,
		byParty: byParty,
	}
}

func (t *Throttle) key(c *gin.Context) string {
	if t.byParty {
		if address, ok := utils.GetCallerFromContext(c); ok {
			return "party:" + address
		}
	}
	return "ip:" + c.ClientIP()
}

// take consumes one token from the caller's bucket. Stale buckets are swept
// opportunistically while the lock is already held, so no janitor goroutine
// is needed.
func (t *Throttle) take(key string) bool {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if now.After(t.nextScan) {
		for k, b := range t.buckets {
			if now.Sub(b.touched) > bucketIdle {
				delete(t.buckets, k)
			}
		}
		t.nextScan = now.Add(bucketIdle)
	}

	b := t.buckets[key]
	if b == nil {
		b = &tokenBucket{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.buckets[key] = b
	}
	b.touched = now

	return b.limiter.Allow()
}

func (t *Throttle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !t.take(t.key(c)) {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, slow down", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// One tier per API surface. Trade and upload tiers run behind AuthRequired,
// so the party address is always in the context by the time they key a
// request.
var (
	browseThrottle = newThrottle(rate.Every(time.Second/20), 20, false) // public reads
	tokenThrottle  = newThrottle(rate.Every(time.Minute/5), 5, false)   // register + token issuance
	tradeThrottle  = newThrottle(rate.Every(time.Second/5), 5, true)    // listing mutations + purchases
	uploadThrottle = newThrottle(rate.Every(time.Minute/10), 10, true)  // media uploads
)

func BrowseRateLimit() gin.HandlerFunc {
	return browseThrottle.Middleware()
}

func TokenRateLimit() gin.HandlerFunc {
	return tokenThrottle.Middleware()
}

func TradeRateLimit() gin.HandlerFunc {
	return tradeThrottle.Middleware()
}

func UploadRateLimit() gin.HandlerFunc {
	return uploadThrottle.Middleware()
}
