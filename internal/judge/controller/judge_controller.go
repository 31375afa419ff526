package controller

import (
	"context"
	"strings"

	"codeduel/internal/judge/language"
	"codeduel/internal/judge/model"
	"codeduel/internal/judge/verdict"
	appErr "codeduel/pkg/errors"
	"codeduel/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// JudgeService is the engine surface served over HTTP.
type JudgeService interface {
	Judge(ctx context.Context, req model.SubmissionRequest) model.JudgeVerdict
	JudgeProblem(ctx context.Context, req model.ProblemRequest) model.ProblemVerdict
	Compare(req model.CompareRequest) (model.CompareResponse, error)
	Languages() []language.Descriptor
}

// JudgeController handles judge requests.
type JudgeController struct {
	svc JudgeService
}

// NewJudgeController creates a new controller.
func NewJudgeController(svc JudgeService) *JudgeController {
	return &JudgeController{svc: svc}
}

// Register mounts the judge routes. POST / is kept for older clients.
// judgeMiddleware runs in front of the routes that reach the backend.
func (h *JudgeController) Register(r gin.IRouter, judgeMiddleware ...gin.HandlerFunc) {
	withMiddleware := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		chain := make([]gin.HandlerFunc, 0, len(judgeMiddleware)+1)
		return append(append(chain, judgeMiddleware...), handler)
	}

	r.GET("/healthz", h.Health)
	r.POST("/", withMiddleware(h.Judge)...)

	api := r.Group("/api/v1/judge")
	api.POST("", withMiddleware(h.Judge)...)
	api.POST("/problems/:id", withMiddleware(h.JudgeProblem)...)
	api.POST("/compare", h.Compare)
	api.GET("/languages", h.Languages)
}

// Reject answers a request stopped before judging with a failed verdict in
// the shape of the route.
func (h *JudgeController) Reject(c *gin.Context, err error) {
	v := verdict.FromError(err)
	if problemID := strings.TrimSpace(c.Param("id")); problemID != "" {
		response.Verdict(c, model.ProblemVerdict{ProblemID: problemID, Message: v.Message, Error: v.Error, Cases: []model.CaseVerdict{}})
		return
	}
	response.Verdict(c, v)
}

// Judge judges one submission against one test case. Always 200.
func (h *JudgeController) Judge(c *gin.Context) {
	var req model.SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Verdict(c, verdict.FromError(appErr.Wrapf(err, appErr.InvalidFormat, "invalid request body: %v", err)))
		return
	}
	response.Verdict(c, h.svc.Judge(c.Request.Context(), req))
}

// JudgeProblem judges one submission against a catalog problem. Always 200.
func (h *JudgeController) JudgeProblem(c *gin.Context) {
	problemID := strings.TrimSpace(c.Param("id"))
	var req model.ProblemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		v := verdict.FromError(appErr.Wrapf(err, appErr.InvalidFormat, "invalid request body: %v", err))
		response.Verdict(c, model.ProblemVerdict{ProblemID: problemID, Message: v.Message, Error: v.Error, Cases: []model.CaseVerdict{}})
		return
	}
	req.ProblemID = problemID
	response.Verdict(c, h.svc.JudgeProblem(c.Request.Context(), req))
}

// Compare checks two serialized values for equivalence.
func (h *JudgeController) Compare(c *gin.Context) {
	var req model.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	out, err := h.svc.Compare(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, out)
}

// Languages lists the supported languages.
func (h *JudgeController) Languages(c *gin.Context) {
	response.Success(c, h.svc.Languages())
}

// Health reports liveness.
func (h *JudgeController) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}
