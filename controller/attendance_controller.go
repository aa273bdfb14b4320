package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joeyave/club-events/service"
)

type AttendanceController struct {
	AttendanceService *service.AttendanceService
}

func (c *AttendanceController) Mark(ctx *gin.Context) {
	markedBy, _ := currentUserID(ctx)
	eventID, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	var input service.MarkAttendanceInput
	if !bindJSON(ctx, &input) {
		return
	}

	attendance, err := c.AttendanceService.Mark(ctx.Request.Context(), eventID, input, markedBy)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, attendance)
}

func (c *AttendanceController) List(ctx *gin.Context) {
	eventID, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	attendances, err := c.AttendanceService.ListByEvent(ctx.Request.Context(), eventID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, attendances)
}

func (c *AttendanceController) Update(ctx *gin.Context) {
	markedBy, _ := currentUserID(ctx)
	eventID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	userID, ok := paramID(ctx, "userId")
	if !ok {
		return
	}

	var input service.UpdateAttendanceInput
	if !bindJSON(ctx, &input) {
		return
	}

	attendance, err := c.AttendanceService.UpdateStatus(ctx.Request.Context(), eventID, userID, input, markedBy)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, attendance)
}
