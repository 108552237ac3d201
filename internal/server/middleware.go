package server

import (
	"crypto/subtle"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	authBaseDelay  = 500 * time.Millisecond
	authMaxDelay   = 8 * time.Second
	authAttemptTTL = 10 * time.Minute
)

type authAttempt struct {
	count int
	last  time.Time
}

// authGuard is Basic-Auth with per-IP failure counting: every failed attempt
// from an address delays the response exponentially (plus jitter) so
// credential guessing slows to a crawl. Process-local memory only.
type authGuard struct {
	user string
	pass string

	mu       sync.Mutex
	attempts map[string]*authAttempt
}

func newAuthGuard(user, pass string) *authGuard {
	return &authGuard{
		user:     user,
		pass:     pass,
		attempts: make(map[string]*authAttempt),
	}
}

func (g *authGuard) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		adminHeaders(c)

		ip := c.ClientIP()
		g.expire(ip)

		user, pass, ok := c.Request.BasicAuth()
		if ok &&
			subtle.ConstantTimeCompare([]byte(user), []byte(g.user)) == 1 &&
			subtle.ConstantTimeCompare([]byte(pass), []byte(g.pass)) == 1 {
			g.reset(ip)
			c.Next()
			return
		}

		time.Sleep(g.penalize(ip))
		c.Header("WWW-Authenticate", `Basic realm="Admin"`)
		c.AbortWithStatus(http.StatusUnauthorized)
	}
}

func (g *authGuard) expire(ip string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if rec, ok := g.attempts[ip]; ok && time.Since(rec.last) > authAttemptTTL {
		delete(g.attempts, ip)
	}
}

func (g *authGuard) reset(ip string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.attempts, ip)
}

func (g *authGuard) penalize(ip string) time.Duration {
	g.mu.Lock()
	rec, ok := g.attempts[ip]
	if !ok {
		rec = &authAttempt{}
		g.attempts[ip] = rec
	}
	rec.count++
	rec.last = time.Now()
	count := rec.count
	g.mu.Unlock()

	delay := authBaseDelay << (count - 1)
	if delay > authMaxDelay || delay <= 0 {
		delay = authMaxDelay
	}
	return delay + time.Duration(rand.Intn(300))*time.Millisecond
}

// adminHeaders keeps the admin surface out of caches and search indexes.
func adminHeaders(c *gin.Context) {
	c.Header("X-Robots-Tag", "noindex, nofollow, noarchive, nosnippet, noimageindex")
	c.Header("Cache-Control", "no-store, max-age=0")
	c.Header("Pragma", "no-cache")
	c.Header("Referrer-Policy", "no-referrer")
}
