// Package prompts holds the model instructions and the generate_profiles
// tool schema shared by every text and image backend.
package prompts

import (
	"fmt"
	"strings"

	"github.com/BerylCAtieno/profilegen/internal/models"
)

const (
	ToolName        = "generate_profiles"
	ToolDescription = "Generate Instagram profile suggestions"

	System = "You are an expert at creating creative Instagram profile names and captivating bios. Be creative, modern and relevant."
)

// Profile asks for exactly count username/bio pairs for keyword.
func Profile(keyword string, count int, shortNames bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate exactly %d Instagram profile suggestions based on the keyword: %q.\n", count, keyword)
	b.WriteString("Return them through the generate_profiles function as {\"suggestions\": [{\"username\": \"...\", \"bio\": \"...\"}]}.\n")
	b.WriteString("Usernames must be unique, creative, related to the keyword and written without the leading @.\n")
	if shortNames {
		fmt.Fprintf(&b, "Every username must be at most %d characters long.\n", models.ShortNameLength)
	}
	fmt.Fprintf(&b, "Bios must be short and catchy (at most %d characters) and may use emojis where appropriate.", models.MaxBioLength)
	return b.String()
}

// Image describes one square avatar. The keyword, not the username,
// drives the theme so all avatars in a batch look consistent.
func Image(keyword string, style models.ImageStyle, palette models.ColorPalette) string {
	styleHint := "clean, vibrant and suitable for social media"
	if style != "" {
		styleHint = fmt.Sprintf("%s, suitable for social media", style)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a professional, modern Instagram profile picture that represents the theme: %q. Style: %s.", keyword, styleHint)
	if palette != "" {
		fmt.Fprintf(&b, " Color palette: %s.", palette)
	}
	b.WriteString(" Square format.")
	return b.String()
}

// ToolParameters is the JSON schema of the generate_profiles arguments.
func ToolParameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"suggestions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"username": map[string]any{"type": "string"},
						"bio":      map[string]any{"type": "string"},
					},
					"required": []string{"username", "bio"},
				},
			},
		},
		"required": []string{"suggestions"},
	}
}
