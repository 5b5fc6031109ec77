package bot

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// userLimiter rate-limits events per chat identity so one flooding user
// cannot monopolize the bot.
type userLimiter struct {
	mu       sync.Mutex
	visitors map[int64]*visitor
	rps      rate.Limit
	burst    int
}

func newUserLimiter(rps float64, burst int) *userLimiter {
	rl := &userLimiter{
		visitors: make(map[int64]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
	go rl.cleanup()
	return rl
}

func (rl *userLimiter) allow(identity int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[identity]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[identity] = v
	}
	v.lastSeen = time.Now()
	return v.limiter.Allow()
}

func (rl *userLimiter) cleanup() {
	for {
		time.Sleep(10 * time.Minute)
		rl.mu.Lock()
		for identity, v := range rl.visitors {
			if time.Since(v.lastSeen) > 10*time.Minute {
				delete(rl.visitors, identity)
			}
		}
		rl.mu.Unlock()
	}
}
