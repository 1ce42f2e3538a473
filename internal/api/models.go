package api

import (
	"encoding/json"

	"github.com/BerylCAtieno/profilegen/internal/models"
)

// GenerateRequest is the body of POST /generate-profile. Count stays raw
// so any JSON number clamps instead of failing to bind.
type GenerateRequest struct {
	Keyword      string          `json:"keyword"`
	ShortNames   bool            `json:"shortNames"`
	Count        json.RawMessage `json:"count"`
	ImageStyle   string          `json:"imageStyle"`
	ColorPalette string          `json:"colorPalette"`
}

type GenerateResponse struct {
	Suggestions []models.ProfileSuggestion `json:"suggestions"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
