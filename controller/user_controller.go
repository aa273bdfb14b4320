package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joeyave/club-events/service"
)

type UserController struct {
	UserService         *service.UserService
	RegistrationService *service.RegistrationService
}

func (c *UserController) List(ctx *gin.Context) {
	users, err := c.UserService.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, users)
}

func (c *UserController) Get(ctx *gin.Context) {
	userID, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	user, err := c.UserService.GetByID(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, user)
}

// Me returns the caller identified by the gateway header.
func (c *UserController) Me(ctx *gin.Context) {
	userID, _ := currentUserID(ctx)

	user, err := c.UserService.GetByID(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, user)
}

func (c *UserController) Create(ctx *gin.Context) {
	var input service.CreateUserInput
	if !bindJSON(ctx, &input) {
		return
	}

	user, err := c.UserService.Create(ctx.Request.Context(), input)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, user)
}

func (c *UserController) Registrations(ctx *gin.Context) {
	userID, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	registrations, err := c.RegistrationService.ListByUser(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, registrations)
}
