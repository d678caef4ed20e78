package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/backoffice/internal/domain"
	"github.com/jafarshop/backoffice/internal/repository"
)

const (
	operatorKey = "operator"
	actorKey    = "actor"
)

// AuthMiddleware authenticates the operator from its API key, sent either
// as "Authorization: Bearer <key>" or as "X-API-Key"
func AuthMiddleware(operators repository.OperatorRepository, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if auth := c.GetHeader("Authorization"); apiKey == "" && strings.HasPrefix(auth, "Bearer ") {
			apiKey = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		}
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key", "code": "unauthorized"})
			return
		}

		operator, err := operators.GetByAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			logger.Warn("Rejected API key", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key", "code": "unauthorized"})
			return
		}

		c.Set(operatorKey, operator)
		c.Set(actorKey, operator.Name)
		c.Next()
	}
}

// GetOperatorFromContext returns the authenticated operator
func GetOperatorFromContext(c *gin.Context) (*domain.Operator, bool) {
	value, ok := c.Get(operatorKey)
	if !ok {
		return nil, false
	}
	operator, ok := value.(*domain.Operator)
	return operator, ok
}

// ActorFromContext returns the name written on audit log entries
func ActorFromContext(c *gin.Context) string {
	if operator, ok := GetOperatorFromContext(c); ok {
		return operator.Name
	}
	return "system"
}
