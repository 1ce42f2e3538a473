package a2a

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/BerylCAtieno/profilegen/internal/api"
	"github.com/BerylCAtieno/profilegen/internal/models"
	"github.com/BerylCAtieno/profilegen/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const directMessageID = "direct-message"

// directMessageRPCID is the response id for bodies sent without an envelope.
var directMessageRPCID = json.RawMessage(`"` + directMessageID + `"`)

type A2AHandler struct {
	generator api.Generator
	card      AgentCard
}

func NewA2AHandler(generator api.Generator, baseURL string) *A2AHandler {
	return &A2AHandler{
		generator: generator,
		card:      NewAgentCard(baseURL),
	}
}

// generationOptions are the optional knobs an agent may send in a data part.
type generationOptions struct {
	ShortNames   bool            `json:"shortNames"`
	Count        json.RawMessage `json:"count"`
	ImageStyle   string          `json:"imageStyle"`
	ColorPalette string          `json:"colorPalette"`
}

// HandleProfiler processes A2A messages
func (h *A2AHandler) HandleProfiler(c *gin.Context) {
	log := observability.GetLogger(c.Request.Context())

	rawBody, err := c.GetRawData()
	if err != nil || !json.Valid(rawBody) {
		log.Warn("failed to read a2a request body", zap.Error(err))
		h.sendErrorResponse(c, nil, "Parse error", CodeParseError)
		return
	}

	var rpcReq JSONRPCRequest
	if err := json.Unmarshal(rawBody, &rpcReq); err != nil || rpcReq.JSONRPC == "" {
		// Some clients post MessageParams without the JSON-RPC envelope.
		h.handleDirectMessage(c, rawBody)
		return
	}

	if rpcReq.JSONRPC != "2.0" {
		log.Warn("invalid JSON-RPC version", zap.String("version", rpcReq.JSONRPC))
		h.sendErrorResponse(c, rpcReq.ID, "Invalid JSON-RPC version", CodeInvalidRequest)
		return
	}

	switch rpcReq.Method {
	case "agent/task", "message/send":
		h.handleTask(c, rpcReq)
	default:
		h.sendErrorResponse(c, rpcReq.ID, fmt.Sprintf("Method not found: %s", rpcReq.Method), CodeMethodNotFound)
	}
}

func (h *A2AHandler) handleDirectMessage(c *gin.Context, body []byte) {
	var msgParams MessageParams
	if err := json.Unmarshal(body, &msgParams); err != nil || len(msgParams.Message.Parts) == 0 {
		h.sendErrorResponse(c, nil, "Invalid request format", CodeInvalidRequest)
		return
	}

	result := h.runGeneration(c, directMessageID, msgParams.Message)
	h.sendSuccessResponse(c, directMessageRPCID, result)
}

func (h *A2AHandler) handleTask(c *gin.Context, rpcReq JSONRPCRequest) {
	var msgParams MessageParams
	if err := json.Unmarshal(rpcReq.Params, &msgParams); err != nil {
		h.sendErrorResponse(c, rpcReq.ID, "Invalid parameters", CodeInvalidParams)
		return
	}

	result := h.runGeneration(c, rpcTaskID(rpcReq.ID), msgParams.Message)
	h.sendSuccessResponse(c, rpcReq.ID, result)
}

func (h *A2AHandler) runGeneration(c *gin.Context, taskID string, msg A2AMessage) TaskResult {
	log := observability.GetLogger(c.Request.Context())

	keyword, opts, err := h.extractRequest(msg)
	if err != nil {
		return h.createTaskResult(taskID, StateFailed, err.Error(), nil)
	}
	if keyword == "" {
		return h.createTaskResult(taskID, StateInputRequired,
			"Please provide a keyword to generate profile suggestions.", nil)
	}

	count, err := models.ParseCount(opts.Count)
	if err != nil {
		return h.createTaskResult(taskID, StateFailed, err.Error(), nil)
	}

	req, err := models.NewGenerationRequest(keyword, opts.ShortNames, count, opts.ImageStyle, opts.ColorPalette)
	if err != nil {
		return h.createTaskResult(taskID, StateFailed, err.Error(), nil)
	}

	suggestions, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		status, body, ref := api.PublicError(err)
		log.Error("a2a generation failed", zap.Int("status", status), zap.String("reference", ref), zap.Error(err))
		text := body.Error
		if body.Details != "" {
			text += " (" + body.Details + ")"
		}
		return h.createTaskResult(taskID, StateFailed, text, nil)
	}

	return h.createTaskResult(taskID, StateCompleted, formatSuggestions(keyword, suggestions), suggestions)
}

// ServeAgentCard serves the agent card
func (h *A2AHandler) ServeAgentCard(c *gin.Context) {
	c.JSON(http.StatusOK, h.card)
}

// extractRequest collects the keyword from text parts and options from data
// parts. A data part holding conversation history contributes its latest
// user text when no text part is present. Options that do not decode are an
// error rather than being dropped.
func (h *A2AHandler) extractRequest(msg A2AMessage) (string, generationOptions, error) {
	var texts []string
	var history []string
	var opts generationOptions

	for _, part := range msg.Parts {
		switch part.Kind {
		case "text":
			if text, ok := part.Text.(string); ok && strings.TrimSpace(text) != "" {
				texts = append(texts, strings.TrimSpace(text))
			}
		case "data":
			raw, err := json.Marshal(part.Data)
			if err != nil {
				continue
			}
			var items []map[string]interface{}
			if err := json.Unmarshal(raw, &items); err == nil {
				if text := latestHistoryText(items); text != "" {
					history = append(history, text)
				}
				continue
			}
			if err := json.Unmarshal(raw, &opts); err != nil {
				return "", generationOptions{}, fmt.Errorf("%w: data options must be an object with shortNames, count, imageStyle and colorPalette", models.ErrInvalidInput)
			}
		}
	}

	if len(texts) == 0 {
		texts = history
	}
	return strings.TrimSpace(strings.Join(texts, " ")), opts, nil
}

// rpcTaskID renders a JSON-RPC id as a task id: strings unquoted, numbers as written.
func rpcTaskID(id json.RawMessage) string {
	var s string
	if err := json.Unmarshal(id, &s); err == nil {
		return s
	}
	return string(id)
}

func latestHistoryText(items []map[string]interface{}) string {
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		if kind, ok := item["kind"].(string); !ok || kind != "text" {
			continue
		}
		text, ok := item["text"].(string)
		if !ok {
			continue
		}
		text = strings.TrimSpace(text)
		text = strings.ReplaceAll(text, "<p>", "")
		text = strings.ReplaceAll(text, "</p>", "")
		text = strings.TrimSpace(text)
		if text != "" {
			return text
		}
	}
	return ""
}

func (h *A2AHandler) createTaskResult(taskID, state, text string, suggestions []models.ProfileSuggestion) TaskResult {
	result := TaskResult{
		ID:   taskID,
		Kind: "task",
		Status: TaskStatus{
			State:     state,
			Timestamp: Timestamp(),
			Message: &A2AMessage{
				Kind:      "message",
				Role:      RoleAgent,
				MessageID: uuid.NewString(),
				TaskID:    &taskID,
				Parts:     []MessagePart{TextPart(text)},
			},
		},
	}

	if state == StateCompleted {
		result.Artifacts = []Artifact{{
			ArtifactID: uuid.NewString(),
			Name:       "Profile Suggestions",
			Parts: []MessagePart{
				TextPart(text),
				DataPart(map[string]interface{}{"suggestions": suggestions}),
			},
		}}
	}

	return result
}

func formatSuggestions(keyword string, suggestions []models.ProfileSuggestion) string {
	if len(suggestions) == 0 {
		return "No profile suggestions generated."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("# Profile suggestions for: %s\n\n", keyword))

	for i, s := range suggestions {
		if i > 0 {
			builder.WriteString("\n---\n\n")
		}
		builder.WriteString(fmt.Sprintf("**@%s**\n", s.Username))
		builder.WriteString(fmt.Sprintf("%s\n", s.Bio))
		builder.WriteString(fmt.Sprintf("![%s](%s)\n", s.Username, s.ImageURL))
	}

	return builder.String()
}

func (h *A2AHandler) sendSuccessResponse(c *gin.Context, id json.RawMessage, result interface{}) {
	c.JSON(http.StatusOK, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

func (h *A2AHandler) sendErrorResponse(c *gin.Context, id json.RawMessage, message string, code int) {
	observability.GetLogger(c.Request.Context()).Warn("a2a rpc error",
		zap.Int("code", code),
		zap.String("message", message),
	)

	// JSON-RPC errors are sent with 200 OK
	c.JSON(http.StatusOK, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message},
	})
}
