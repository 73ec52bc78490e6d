package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/santiagomed/blendgen/core"
	"github.com/santiagomed/blendgen/metrics"
)

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// composePrompt renders a template without calling the model. Inputs are not
// validated; unset values render as None.
func (s *Server) composePrompt(c *gin.Context) {
	kind, err := core.ParseKind(c.Param("kind"))
	if err != nil {
		fail(c, http.StatusNotFound, err.Error(), &ErrorDetail{ErrorCode: "UNKNOWN_TEMPLATE"})
		return
	}
	var req ComposeRequest
	if !bind(c, &req) {
		return
	}
	prompt, err := core.Compose(kind, req.request(kind).Inputs())
	if err != nil {
		s.writeError(c, err)
		return
	}
	success(c, PromptResponse{Kind: kind, Prompt: prompt})
}

func (s *Server) parseRecommendations(c *gin.Context) {
	var req ParseRequest
	if !bind(c, &req) {
		return
	}
	parser := s.parser
	if req.Anchored {
		parser = core.NewParser(core.WithMatchMode(core.MatchAnchored))
	}
	rec, err := parser.Parse(req.Text)
	if err != nil {
		s.writeError(c, err)
		return
	}
	success(c, RecommendResponse{Recommendation: recommendationFields(rec)})
}

func (s *Server) generate(c *gin.Context) {
	kind, err := core.ParseKind(c.Param("kind"))
	if err != nil || (kind != core.KindMaterial && kind != core.KindTexture) {
		fail(c, http.StatusNotFound, fmt.Sprintf("cannot generate %q", c.Param("kind")), &ErrorDetail{ErrorCode: "UNKNOWN_TEMPLATE"})
		return
	}
	var req ComposeRequest
	if !bind(c, &req) {
		return
	}
	r := core.NewMaterialRequest(req.Prompt, req.Material)
	if kind == core.KindTexture {
		r = core.NewTextureRequest(req.Prompt, req.Texture)
	}
	res, ok := s.run(c, r)
	if !ok {
		return
	}
	success(c, CodeResponse{Kind: kind, Code: res.Code()})
}

func (s *Server) recommend(c *gin.Context) {
	var req RecommendRequest
	if !bind(c, &req) {
		return
	}
	res, ok := s.run(c, core.NewRecommendationRequest(req.Prompt))
	if !ok {
		return
	}
	success(c, RecommendResponse{
		Recommendation: recommendationFields(res.Recommendation),
		Raw:            res.Response,
	})
}

func (s *Server) modify(c *gin.Context) {
	var req ModifyRequest
	if !bind(c, &req) {
		return
	}
	res, ok := s.run(c, core.NewModificationRequest(req.Code, req.Instruction))
	if !ok {
		return
	}
	success(c, CodeResponse{Kind: core.KindModification, Code: res.Code()})
}

// run validates r and executes it, writing the error response on failure.
func (s *Server) run(c *gin.Context, r *core.Request) (*core.Result, bool) {
	if err := r.Validate(); err != nil {
		s.writeError(c, err)
		return nil, false
	}
	ctx := metrics.WithOperation(c.Request.Context(), string(core.OperationFor(r.Kind)))
	l := s.logger.WithField("request_id", c.GetString(requestIDKey))
	res, err := s.pipeline(l).Execute(ctx, r)
	if err != nil {
		s.writeError(c, err)
		return nil, false
	}
	return res, true
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body", &ErrorDetail{
			ErrorCode: "INVALID_BODY",
			Details:   err.Error(),
		})
		return false
	}
	return true
}

// statusClientClosedRequest reports a request whose client went away first.
const statusClientClosedRequest = 499

func (s *Server) writeError(c *gin.Context, err error) {
	var opErr *core.OperationError
	var parseErr *core.ParseError
	switch {
	case errors.Is(err, context.Canceled):
		fail(c, statusClientClosedRequest, "request cancelled", &ErrorDetail{ErrorCode: "CANCELLED"})
	case errors.As(err, &opErr):
		fail(c, http.StatusBadGateway, err.Error(), &ErrorDetail{
			ErrorCode: "MODEL_ERROR",
			Operation: string(opErr.Op),
			Details:   opErr.Err.Error(),
		})
	case errors.As(err, &parseErr):
		s.metrics.ParseErrorsTotal.Inc()
		fail(c, http.StatusUnprocessableEntity, err.Error(), &ErrorDetail{
			ErrorCode: "PARSE_ERROR",
			Details:   parseErr.Value,
		})
	case errors.Is(err, core.ErrNoCode):
		fail(c, http.StatusBadRequest, err.Error(), &ErrorDetail{ErrorCode: "NO_CODE"})
	case errors.Is(err, core.ErrInvalidParameter):
		fail(c, http.StatusBadRequest, err.Error(), &ErrorDetail{ErrorCode: "INVALID_PARAMETER"})
	default:
		s.logger.WithField("error", err.Error()).Error("Unhandled request error")
		fail(c, http.StatusInternalServerError, "internal error", nil)
	}
}
