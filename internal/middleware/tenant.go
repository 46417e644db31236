package middleware

import (
	"net/http"

	"stockcore/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TenantIDKey is the gin context key under which the tenant id is stored.
const TenantIDKey = "tenant_id"

// Tenant requires a valid X-Tenant-ID header on every request and stores
// the parsed id in the context. Every repository query is scoped by it.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-Tenant-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, apierror.New("X-Tenant-ID header is required"))
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, apierror.New("X-Tenant-ID must be a valid UUID"))
			return
		}
		c.Set(TenantIDKey, id)
		c.Next()
	}
}

// TenantID returns the tenant id stored by the Tenant middleware.
func TenantID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(TenantIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
