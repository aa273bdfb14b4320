package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joeyave/club-events/service"
)

type ClubController struct {
	ClubService *service.ClubService
}

func (c *ClubController) List(ctx *gin.Context) {
	clubs, err := c.ClubService.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, clubs)
}

func (c *ClubController) Get(ctx *gin.Context) {
	clubID, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	club, err := c.ClubService.GetByID(ctx.Request.Context(), clubID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, club)
}

func (c *ClubController) Create(ctx *gin.Context) {
	var input service.CreateClubInput
	if !bindJSON(ctx, &input) {
		return
	}

	club, err := c.ClubService.Create(ctx.Request.Context(), input)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, club)
}
