package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"research-agent/internal/agent/research"
	"research-agent/internal/shared/server/middleware"
	"research-agent/internal/shared/server/respond"
	"research-agent/internal/shared/telemetry"
)

// Researcher runs one research query.
type Researcher interface {
	Invoke(ctx context.Context, in research.Input) (research.OutputState, error)
}

type Handler struct {
	Agent Researcher
}

func NewHandler(agent Researcher) *Handler {
	return &Handler{Agent: agent}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/chat")
	g.GET("", h.index)
	g.POST("/research", h.research)
}

func (h *Handler) index(c *gin.Context) {
	respond.OK(c, gin.H{"message": EndpointMessage})
}

func (h *Handler) research(c *gin.Context) {
	var req ResearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		issue := "invalid"
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == "query" {
			issue = "must be a string"
		}
		validationError(c, issue)
		return
	}
	if req.Query == nil {
		validationError(c, "required")
		return
	}

	if h.Agent == nil {
		fail(c, research.CodeInternal, "research agent unavailable")
		return
	}

	out, err := h.Agent.Invoke(c.Request.Context(), research.Query(*req.Query))
	if err != nil {
		code := research.ErrorCode(err)
		telemetry.Error("research.failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"code":       code,
			"error":      err,
		})
		fail(c, code, messageFor(code))
		return
	}

	respond.OK(c, ResearchResponse{
		ResearchSummary:   out.ResearchSummary,
		ResearchDocuments: out.ResearchDocuments,
	})
}

func validationError(c *gin.Context, issue string) {
	c.Set(middleware.ErrorCodeKey, respond.CodeValidation)
	respond.Error(c, http.StatusUnprocessableEntity, respond.CodeValidation, "invalid request body", []respond.FieldIssue{
		{Field: "query", Issue: issue},
	})
}

func fail(c *gin.Context, code, message string) {
	c.Set(middleware.ErrorCodeKey, code)
	respond.Error(c, http.StatusInternalServerError, code, message, nil)
}

func messageFor(code string) string {
	switch code {
	case research.CodeConfig:
		return "research agent is misconfigured"
	case research.CodeTemplate:
		return "prompt template could not be formatted"
	case research.CodeLLMInvocation:
		return "language model call failed"
	default:
		return "research failed"
	}
}
