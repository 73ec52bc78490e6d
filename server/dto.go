package server

import (
	"github.com/gin-gonic/gin"
	"github.com/santiagomed/blendgen/core"
)

// Response is the envelope for every successful reply.
type Response[T any] struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      T      `json:"data,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorDetail struct {
	ErrorCode string `json:"error_code,omitempty"`
	Operation string `json:"operation,omitempty"`
	Details   string `json:"details,omitempty"`
}

type ErrorResponse struct {
	Code      int          `json:"code"`
	Message   string       `json:"message"`
	Error     *ErrorDetail `json:"error,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
}

func success[T any](c *gin.Context, data T) {
	c.JSON(200, Response[T]{
		Code:      200,
		Message:   "success",
		Data:      data,
		RequestID: c.GetString(requestIDKey),
	})
}

func fail(c *gin.Context, status int, message string, detail *ErrorDetail) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:      status,
		Message:   message,
		Error:     detail,
		RequestID: c.GetString(requestIDKey),
	})
}

// ComposeRequest carries every input any template may read.
type ComposeRequest struct {
	Prompt       string              `json:"prompt"`
	Material     core.MaterialParams `json:"material"`
	Texture      core.TextureParams  `json:"texture"`
	ExistingCode string              `json:"existing_code"`
	Instruction  string              `json:"instruction"`
}

func (r ComposeRequest) request(kind core.Kind) *core.Request {
	return &core.Request{
		Kind:         kind,
		UserPrompt:   r.Prompt,
		Material:     r.Material,
		Texture:      r.Texture,
		ExistingCode: r.ExistingCode,
		Instruction:  r.Instruction,
	}
}

type PromptResponse struct {
	Kind   core.Kind `json:"kind"`
	Prompt string    `json:"prompt"`
}

type ParseRequest struct {
	Text     string `json:"text"`
	Anchored bool   `json:"anchored"`
}

type RecommendRequest struct {
	Prompt string `json:"prompt"`
}

type RecommendResponse struct {
	Recommendation map[string]any `json:"recommendation"`
	Raw            string         `json:"raw,omitempty"`
}

type ModifyRequest struct {
	Code        string `json:"code"`
	Instruction string `json:"instruction"`
}

type CodeResponse struct {
	Kind core.Kind `json:"kind"`
	Code string    `json:"code"`
}

// recommendationFields flattens a record into label → typed value.
func recommendationFields(rec *core.Recommendation) map[string]any {
	out := make(map[string]any, rec.Len())
	for label, v := range rec.Text {
		out[string(label)] = v
	}
	if rec.Metallic != nil {
		out[string(core.LabelMetallic)] = *rec.Metallic
	}
	if rec.SpecialEffects != nil {
		out[string(core.LabelSpecialEffects)] = rec.SpecialEffects
	}
	return out
}
