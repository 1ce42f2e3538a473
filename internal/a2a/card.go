package a2a

import "strings"

const (
	AgentCardPath = "/.well-known/agent.json"
	ProfilerPath  = "/a2a/profiler"
)

func NewAgentCard(baseURL string) AgentCard {
	baseURL = strings.TrimRight(baseURL, "/")

	return AgentCard{
		Name:        "Profile Suggestion Agent",
		Description: "Generates social media profile suggestions (username, bio and avatar) from a keyword.",
		URL:         baseURL + ProfilerPath,
		Version:     "1.0.0",
		Capabilities: AgentCapabilities{
			Streaming:         false,
			PushNotifications: false,
		},
		DefaultInputModes:  []string{"text", "data"},
		DefaultOutputModes: []string{"text", "data"},
		Skills: []AgentSkill{{
			ID:          "generate_profiles",
			Name:        "Generate profile suggestions",
			Description: "Send a keyword as text. An optional data part may set shortNames, count (3-100), imageStyle and colorPalette.",
			Tags:        []string{"instagram", "username", "bio", "avatar"},
			Examples:    []string{"coffee", "vintage cameras"},
		}},
		Endpoints: map[string]string{
			"a2a":       baseURL + ProfilerPath,
			"agentCard": baseURL + AgentCardPath,
		},
	}
}
