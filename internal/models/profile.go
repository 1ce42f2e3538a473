package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	MinCount     = 3
	MaxCount     = 100
	DefaultCount = MinCount

	// MaxBioLength is passed to the model as a soft limit; generated bios are not truncated.
	MaxBioLength = 150
	// ShortNameLength caps usernames when ShortNames is requested.
	ShortNameLength = 12
)

type ImageStyle string

const (
	StyleProfessional ImageStyle = "professional"
	StyleVibrant      ImageStyle = "vibrant"
	StyleMinimalist   ImageStyle = "minimalist"
	StyleCreative     ImageStyle = "creative"
	StyleModern       ImageStyle = "modern"
)

var imageStyles = []ImageStyle{StyleProfessional, StyleVibrant, StyleMinimalist, StyleCreative, StyleModern}

type ColorPalette string

const (
	PaletteWarm       ColorPalette = "warm"
	PaletteCool       ColorPalette = "cool"
	PaletteNeon       ColorPalette = "neon"
	PalettePastel     ColorPalette = "pastel"
	PaletteMonochrome ColorPalette = "monochrome"
	PaletteRainbow    ColorPalette = "rainbow"
)

var colorPalettes = []ColorPalette{PaletteWarm, PaletteCool, PaletteNeon, PalettePastel, PaletteMonochrome, PaletteRainbow}

// GenerationRequest is a validated, clamped request for one generation run.
type GenerationRequest struct {
	Keyword      string
	ShortNames   bool
	Count        int
	ImageStyle   ImageStyle
	ColorPalette ColorPalette
}

// ProfileCandidate is a username/bio pair produced by text generation.
type ProfileCandidate struct {
	Username string `json:"username"`
	Bio      string `json:"bio"`
}

// ProfileSuggestion is a candidate with its avatar attached.
type ProfileSuggestion struct {
	Username string `json:"username"`
	Bio      string `json:"bio"`
	ImageURL string `json:"imageUrl"`

	// Placeholder is set when ImageURL is the fallback avatar.
	Placeholder bool `json:"-"`
}

// TextRequest is what a text provider needs to produce candidates.
type TextRequest struct {
	Keyword    string
	Count      int
	ShortNames bool
}

// ImageRequest is what an image provider needs to produce one avatar.
type ImageRequest struct {
	Keyword  string
	Username string
	Style    ImageStyle
	Palette  ColorPalette
}

// NewGenerationRequest validates caller input. A nil count means the default;
// out-of-range counts are clamped rather than rejected.
func NewGenerationRequest(keyword string, shortNames bool, count *int, style, palette string) (GenerationRequest, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return GenerationRequest{}, fmt.Errorf("%w: keyword is required", ErrInvalidInput)
	}

	imageStyle, err := ParseImageStyle(style)
	if err != nil {
		return GenerationRequest{}, err
	}
	colorPalette, err := ParseColorPalette(palette)
	if err != nil {
		return GenerationRequest{}, err
	}

	n := DefaultCount
	if count != nil {
		n = ClampCount(*count)
	}

	return GenerationRequest{
		Keyword:      keyword,
		ShortNames:   shortNames,
		Count:        n,
		ImageStyle:   imageStyle,
		ColorPalette: colorPalette,
	}, nil
}

// ParseCount reads a raw JSON count. Absent or null yields nil (the default).
// Any JSON number is accepted: fractions truncate toward zero and values
// outside [MinCount, MaxCount], including ones too large for an int, clamp.
func ParseCount(raw json.RawMessage) (*int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var num json.Number
	if raw[0] == '"' || json.Unmarshal(raw, &num) != nil {
		return nil, fmt.Errorf("%w: count must be a number", ErrInvalidInput)
	}
	f, err := strconv.ParseFloat(num.String(), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, fmt.Errorf("%w: count must be a number", ErrInvalidInput)
	}

	n := MaxCount
	switch {
	case f < MinCount:
		n = MinCount
	case f <= MaxCount:
		n = int(f)
	}
	return &n, nil
}

func ClampCount(n int) int {
	if n < MinCount {
		return MinCount
	}
	if n > MaxCount {
		return MaxCount
	}
	return n
}

// ParseImageStyle accepts an empty value as "no style hint".
func ParseImageStyle(s string) (ImageStyle, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	for _, style := range imageStyles {
		if ImageStyle(s) == style {
			return style, nil
		}
	}
	return "", fmt.Errorf("%w: unknown imageStyle %q", ErrInvalidInput, s)
}

// ParseColorPalette accepts an empty value as "no palette hint".
func ParseColorPalette(s string) (ColorPalette, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	for _, palette := range colorPalettes {
		if ColorPalette(s) == palette {
			return palette, nil
		}
	}
	return "", fmt.Errorf("%w: unknown colorPalette %q", ErrInvalidInput, s)
}

func (r GenerationRequest) TextRequest() TextRequest {
	return TextRequest{Keyword: r.Keyword, Count: r.Count, ShortNames: r.ShortNames}
}

func (r GenerationRequest) ImageRequest(username string) ImageRequest {
	return ImageRequest{Keyword: r.Keyword, Username: username, Style: r.ImageStyle, Palette: r.ColorPalette}
}
