package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joeyave/club-events/helpers"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const userIDKey = "userID"

// Identity reads the caller id forwarded by the gateway. Requests without a valid
// id pass through anonymously.
func Identity() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if hex := ctx.GetHeader(helpers.UserIDHeader); hex != "" {
			if userID, err := primitive.ObjectIDFromHex(hex); err == nil {
				ctx.Set(userIDKey, userID)
			}
		}
		ctx.Next()
	}
}

func RequireUser() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := currentUserID(ctx); !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		ctx.Next()
	}
}

func currentUserID(ctx *gin.Context) (primitive.ObjectID, bool) {
	value, ok := ctx.Get(userIDKey)
	if !ok {
		return primitive.NilObjectID, false
	}
	userID, ok := value.(primitive.ObjectID)
	return userID, ok
}

// RequestTimeout bounds the request context handed to services.
func RequestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		c, cancel := context.WithTimeout(ctx.Request.Context(), timeout)
		defer cancel()

		ctx.Request = ctx.Request.WithContext(c)
		ctx.Next()
	}
}
