package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Kalyan1210/Resume-Analyzer/internal/dto"
	"github.com/Kalyan1210/Resume-Analyzer/internal/errs"
	"github.com/Kalyan1210/Resume-Analyzer/internal/middleware"
	"github.com/Kalyan1210/Resume-Analyzer/internal/response"
	"github.com/Kalyan1210/Resume-Analyzer/internal/usecase"
	"github.com/Kalyan1210/Resume-Analyzer/internal/util"
)

const (
	maxUploadSize = 5 * 1024 * 1024

	// nginx convention for a client that went away mid-request.
	statusClientClosedRequest = 499
)

type MatchHandler struct {
	uc *usecase.MatchUsecase
}

func NewMatchHandler(uc *usecase.MatchUsecase) *MatchHandler {
	return &MatchHandler{uc: uc}
}

func (h *MatchHandler) RegisterRoutes(app *fiber.App) {
	app.Post("/match", middleware.RateLimiter(1, 4*time.Second), h.Match)
	app.Get("/analyses", h.List)
	app.Get("/analyses/:id", h.Get)
	app.Get("/analyses/:id/similar", h.Similar)
}

// Match accepts a multipart resume upload plus a job description and runs
// the full analysis pipeline synchronously.
func (h *MatchHandler) Match(c *fiber.Ctx) error {
	file, err := c.FormFile("resume")
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "resume file is required",
			Kind:    string(errs.KindInvalidInput),
		}, err)
	}

	if file.Size > maxUploadSize {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "resume file is too large (max 5MB)",
			Kind:    string(errs.KindInvalidInput),
		})
	}

	jobDescription := c.FormValue("job_description")
	if jobDescription == "" {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "job_description is required",
			Kind:    string(errs.KindInvalidInput),
		})
	}

	data, err := readUpload(file)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "cannot read resume file",
			Kind:    string(errs.KindUnreadableDocument),
		}, err)
	}

	analysis, err := h.uc.Match(c.UserContext(), data, file.Filename, jobDescription)
	if err != nil {
		return h.pipelineError(c, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "analysis completed",
		Data:    dto.FromAnalysis(analysis),
	})
}

func (h *MatchHandler) Get(c *fiber.Ctx) error {
	analysis, err := h.uc.GetAnalysis(c.Params("id"))
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusNotFound,
			Message: "analysis not found",
		}, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "analysis found",
		Data:    dto.FromAnalysis(analysis),
	})
}

func (h *MatchHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 20)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	items, total, err := h.uc.ListAnalyses(page, pageSize)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Message: "failed to list analyses",
		}, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message:    "analyses listed",
		Data:       dto.FromAnalyses(items),
		Pagination: response.NewPagination(page, pageSize, total),
	})
}

func (h *MatchHandler) Similar(c *fiber.Ctx) error {
	items, err := h.uc.SimilarAnalyses(c.Params("id"))
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusNotFound,
			Message: "analysis not found",
		}, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "similar analyses found",
		Data:    dto.FromAnalyses(items),
	})
}

// pipelineError maps the error taxonomy onto HTTP statuses. Cancellation is
// a no-op: the client already went away, so no error body is rendered.
func (h *MatchHandler) pipelineError(c *fiber.Ctx, err error) error {
	kind := errs.KindOf(err)

	if kind == errs.KindCancelled {
		return c.SendStatus(statusClientClosedRequest)
	}

	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Code:    statusForKind(kind),
		Message: messageForKind(kind),
		Kind:    string(kind),
	}, err)
}

func statusForKind(kind errs.Kind) int {
	switch kind {
	case errs.KindInvalidInput:
		return fiber.StatusBadRequest
	case errs.KindUnreadableDocument:
		return fiber.StatusUnprocessableEntity
	case errs.KindUpstreamTimeout:
		return fiber.StatusGatewayTimeout
	case errs.KindUpstreamUnavailable:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func messageForKind(kind errs.Kind) string {
	switch kind {
	case errs.KindInvalidInput:
		return "invalid input"
	case errs.KindUnreadableDocument:
		return "could not read the uploaded resume, please re-upload"
	case errs.KindCredential:
		return "the model API credential is invalid, contact the operator"
	case errs.KindUpstreamTimeout:
		return "the analysis service timed out, please retry"
	case errs.KindUpstreamUnavailable:
		return "the analysis service is unavailable, please retry later"
	default:
		return "internal error"
	}
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}
