package middleware

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// fixed-window counter: INCR + EXPIRE on the first hit of the window,
// kept atomic in a script so concurrent requests cannot leave an
// unexpiring key behind.
var rateScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local count = redis.call('INCR', key)
	if count == 1 then
		redis.call('EXPIRE', key, window)
	end

	local ttl = redis.call('TTL', key)
	return { count, ttl }
`)

// RateLimit caps requests per client IP per minute on the public intake
// routes. Fails open: if redis is down the booking flow keeps working.
func RateLimit(rdb *redis.Client, perMinute int) gin.HandlerFunc {
	if rdb == nil || perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := "ratelimit:" + c.ClientIP() + ":" + strconv.FormatInt(time.Now().Unix()/60, 10)

		vals, err := rateScript.Run(c.Request.Context(), rdb, []string{key}, perMinute, 60).Result()
		if err != nil {
			log.Printf("ratelimit: redis error, allowing request: %v", err)
			c.Next()
			return
		}

		arr, ok := vals.([]interface{})
		if !ok || len(arr) != 2 {
			c.Next()
			return
		}

		count, _ := arr[0].(int64)
		ttl, _ := arr[1].(int64)

		remaining := int64(perMinute) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(perMinute))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(perMinute) {
			if ttl > 0 {
				c.Header("Retry-After", strconv.FormatInt(ttl, 10))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "TOO_MANY_REQUESTS",
					"message": "rate limit exceeded",
				},
			})
			return
		}

		c.Next()
	}
}
