package reports

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"report-backend/internal/extract"
	"report-backend/internal/llm"
	"report-backend/internal/shared/server/middleware"
	"report-backend/internal/shared/server/respond"
)

const defaultMaxUploadBytes = 10 << 20

// Handler wires HTTP handlers to the report service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches report routes. inference guards the routes that call the inference service.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, inference ...gin.HandlerFunc) {
	rg.POST("/analysis/upload", chain(inference, h.upload)...)
	rg.GET("/report/my-reports", h.list)
	rg.GET("/report/:id", h.get)
	rg.POST("/report/:id/feedback", chain(inference, h.feedback)...)
	rg.POST("/report/:id/favorite", h.favorite)
	rg.DELETE("/report/:id", h.delete)
}

func chain(middlewares []gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(middlewares)+1)
	out = append(out, middlewares...)
	return append(out, handler)
}

func (h *Handler) maxUploadBytes() int64 {
	if h.Svc.MaxUploadBytes > 0 {
		return h.Svc.MaxUploadBytes
	}
	return defaultMaxUploadBytes
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	limit := h.maxUploadBytes()
	// Multipart framing adds a little on top of the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+64<<10)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "file exceeds the upload size limit", gin.H{"maxBytes": limit})
			return
		}
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "file is required", nil)
		return
	}
	defer func() { _ = form.RemoveAll() }()

	files := form.File["file"]
	if len(files) == 0 {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "file is required", nil)
		return
	}
	fileHeader := files[0]
	if fileHeader.Size > limit {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "file exceeds the upload size limit", gin.H{"maxBytes": limit})
		return
	}
	if _, err := extract.ParseFormat(fileHeader.Filename); err != nil {
		writeError(c, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "unable to read file", nil)
		return
	}
	defer file.Close()

	result, err := h.Svc.Analyze(c.Request.Context(), userID, fileHeader.Filename, file)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set("reportId", result.Report.ID)

	rejected := result.Rejections
	if rejected == nil {
		rejected = []ChartRejection{}
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"reportId": result.Report.ID,
		"fileName": result.Report.FileName,
		"analysis": gin.H{
			"originalData":   result.Summary,
			"aiAnalysis":     result.Report.AIAnalysis,
			"rejectedCharts": rejected,
		},
		"timestamp": result.Report.CreatedAt.Format(time.RFC3339),
	})
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	q := ListQuery{
		Search:        c.Query("search"),
		OnlyFavorites: strings.EqualFold(strings.TrimSpace(c.Query("onlyFavorites")), "true"),
	}
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "limit must be a non-negative integer", nil)
			return
		}
		q.Limit = parsed
	}
	if v := c.Query("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "offset must be a non-negative integer", nil)
			return
		}
		q.Offset = parsed
	}

	items, err := h.Svc.List(c.Request.Context(), userID, q)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"reports": items})
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	reportID := c.Param("id")
	c.Set("reportId", reportID)

	report, err := h.Svc.Get(c.Request.Context(), userID, reportID)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"report": report})
}

type feedbackRequest struct {
	FeedbackText string `json:"feedbackText"`
}

func (h *Handler) feedback(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	reportID := c.Param("id")
	c.Set("reportId", reportID)

	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid request body", nil)
		return
	}

	updated, err := h.Svc.Revise(c.Request.Context(), userID, reportID, req.FeedbackText)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{
		"updatedReport": gin.H{
			"id":              updated.ID,
			"aiAnalysis":      updated.AIAnalysis,
			"feedbackHistory": updated.FeedbackHistory,
		},
	})
}

type favoriteRequest struct {
	IsFavorite *bool `json:"isFavorite"`
}

func (h *Handler) favorite(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	reportID := c.Param("id")
	c.Set("reportId", reportID)

	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsFavorite == nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "isFavorite is required", nil)
		return
	}
	if err := h.Svc.SetFavorite(c.Request.Context(), userID, reportID, *req.IsFavorite); err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"id": reportID, "isFavorite": *req.IsFavorite})
}

func (h *Handler) delete(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	reportID := c.Param("id")
	c.Set("reportId", reportID)

	if err := h.Svc.Delete(c.Request.Context(), userID, reportID); err != nil {
		writeError(c, err)
		return
	}
	respond.NoContent(c)
}

// writeError maps pipeline errors to the response envelope. Causes are logged, not returned.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, extract.ErrUnsupportedFormat):
		respond.ErrorWithCause(c, http.StatusBadRequest, ErrorCodeUnsupportedFormat,
			"unsupported file format; accepted: csv, xlsx, xls, xml, pdf", nil, err)
	case errors.Is(err, extract.ErrEmptyInput):
		respond.ErrorWithCause(c, http.StatusBadRequest, ErrorCodeEmptyInput,
			"the document has no extractable content", nil, err)
	case errors.Is(err, extract.ErrDecode):
		respond.ErrorWithCause(c, http.StatusBadRequest, ErrorCodeValidation,
			"the file could not be decoded", nil, err)
	case errors.Is(err, ErrValidation):
		respond.ErrorWithCause(c, http.StatusBadRequest, ErrorCodeValidation, validationMessage(err), nil, err)
	case errors.Is(err, ErrNotFound):
		respond.ErrorWithCause(c, http.StatusNotFound, ErrorCodeNotFound, "report not found", nil, err)
	case errors.Is(err, llm.ErrInferenceUnavailable):
		respond.ErrorWithCause(c, http.StatusInternalServerError, ErrorCodeInferenceUnavailable,
			"the analysis service is unavailable, try again later", nil, err)
	case errors.Is(err, ErrContractViolation):
		respond.ErrorWithCause(c, http.StatusInternalServerError, ErrorCodeContractViolation,
			"the analysis service returned an unusable result", nil, err)
	case errors.Is(err, ErrStorage):
		respond.ErrorWithCause(c, http.StatusInternalServerError, ErrorCodeStorage, "failed to store report", nil, err)
	default:
		respond.ErrorWithCause(c, http.StatusInternalServerError, ErrorCodeInternal, "internal error", nil, err)
	}
}

func validationMessage(err error) string {
	msg := err.Error()
	prefix := ErrValidation.Error() + ": "
	if strings.HasPrefix(msg, prefix) {
		return strings.TrimPrefix(msg, prefix)
	}
	return "invalid request"
}
