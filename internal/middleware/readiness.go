package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ReadinessChecker is implemented by database.MongoDB.
type ReadinessChecker interface {
	Ready() bool
}

// StoreGate holds requests back until the document store is ready.
type StoreGate struct {
	checker       ReadinessChecker
	degradedReads bool
}

func NewStoreGate(checker ReadinessChecker, degradedReads bool) *StoreGate {
	return &StoreGate{checker: checker, degradedReads: degradedReads}
}

// Read answers with empty while the store is not ready and degraded reads
// are enabled, and with 503 otherwise.
func (g *StoreGate) Read(empty interface{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.checker.Ready() {
			c.Next()
			return
		}
		if g.degradedReads {
			c.Header("X-Degraded", "store-unavailable")
			c.AbortWithStatusJSON(http.StatusOK, empty)
			return
		}
		abortUnavailable(c)
	}
}

// Require answers 503 while the store is not ready.
func (g *StoreGate) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.checker.Ready() {
			abortUnavailable(c)
			return
		}
		c.Next()
	}
}

func abortUnavailable(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
		"error": "Service is starting, the database is not connected yet",
	})
}
