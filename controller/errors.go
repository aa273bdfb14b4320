package controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joeyave/club-events/service"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrCapacityExceeded),
		errors.Is(err, service.ErrInactiveEvent),
		errors.Is(err, service.ErrNotRegistered):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyRegistered),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrAlreadyMarked):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes err with its mapped status. Unclassified errors are logged
// and answered with a generic message.
func respondError(ctx *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", ctx.Request.Method).
			Str("path", ctx.FullPath()).
			Msg("Request failed")
		_ = ctx.Error(err)
		ctx.JSON(status, gin.H{"error": "internal server error"})
		return
	}

	ctx.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusBadRequest, gin.H{"error": message})
}

func paramID(ctx *gin.Context, name string) (primitive.ObjectID, bool) {
	ID, err := primitive.ObjectIDFromHex(ctx.Param(name))
	if err != nil {
		badRequest(ctx, fmt.Sprintf("invalid %s", name))
		return primitive.NilObjectID, false
	}
	return ID, true
}

func bindJSON(ctx *gin.Context, obj any) bool {
	if err := ctx.ShouldBindJSON(obj); err != nil {
		badRequest(ctx, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}
