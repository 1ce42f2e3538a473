package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/BerylCAtieno/profilegen/internal/models"
	"github.com/gin-gonic/gin"
)

type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest) ([]models.ProfileSuggestion, error)
}

type ProfileHandler struct {
	generator Generator
}

func NewProfileHandler(generator Generator) *ProfileHandler {
	return &ProfileHandler{generator: generator}
}

// GenerateProfiles handles POST /generate-profile.
func (h *ProfileHandler) GenerateProfiles(c *gin.Context) {
	var body GenerateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, fmt.Errorf("%w: request body must be a JSON object with a keyword", models.ErrInvalidInput))
		return
	}

	count, err := models.ParseCount(body.Count)
	if err != nil {
		writeError(c, err)
		return
	}

	req, err := models.NewGenerationRequest(body.Keyword, body.ShortNames, count, body.ImageStyle, body.ColorPalette)
	if err != nil {
		writeError(c, err)
		return
	}

	suggestions, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	if suggestions == nil {
		suggestions = []models.ProfileSuggestion{}
	}

	c.JSON(http.StatusOK, GenerateResponse{Suggestions: suggestions})
}
