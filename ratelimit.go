package main

import (
	"container/list"
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientLimiter is a per-client token bucket and its place in the LRU list.
type clientLimiter struct {
	ip       string
	limiter  *rate.Limiter
	lastSeen time.Time
}

// contactRateLimit limits form submissions per client IP. perMinute is the
// sustained rate, burst the bucket size, and maxClients caps how many IPs
// are tracked before the least recently seen is evicted. The cleanup
// goroutine stops when ctx is cancelled.
func contactRateLimit(ctx context.Context, perMinute float64, burst, maxClients int) gin.HandlerFunc {
	if maxClients <= 0 {
		maxClients = 10000
	}

	var (
		items = make(map[string]*list.Element)
		order = list.New() // front = most recent
		mu    sync.Mutex
	)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				mu.Lock()
				now := time.Now()
				for e := order.Back(); e != nil; {
					lim := e.Value.(*clientLimiter)
					prev := e.Prev()
					if now.Sub(lim.lastSeen) > 30*time.Minute {
						order.Remove(e)
						delete(items, lim.ip)
					}
					e = prev
				}
				mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()

	limit := rate.Limit(perMinute / 60)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		elem, ok := items[ip]
		if ok {
			order.MoveToFront(elem)
			elem.Value.(*clientLimiter).lastSeen = time.Now()
		} else {
			if order.Len() >= maxClients {
				if back := order.Back(); back != nil {
					order.Remove(back)
					delete(items, back.Value.(*clientLimiter).ip)
				}
			}
			elem = order.PushFront(&clientLimiter{
				ip:       ip,
				limiter:  rate.NewLimiter(limit, burst),
				lastSeen: time.Now(),
			})
			items[ip] = elem
		}
		allowed := elem.Value.(*clientLimiter).limiter.Allow()
		mu.Unlock()

		if !allowed {
			log.Printf("[RateLimit] contact form limited for a client")
			c.Header("Retry-After", "60")
			c.HTML(http.StatusTooManyRequests, "contact-error.html", gin.H{
				"error": "You're sending messages too quickly. Please wait a minute and try again.",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
