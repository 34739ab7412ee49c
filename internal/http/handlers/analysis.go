package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/fitprint-backend/internal/http/response"
	"github.com/yungbote/fitprint-backend/internal/modules/analysis"
	"github.com/yungbote/fitprint-backend/internal/platform/apierr"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
	"github.com/yungbote/fitprint-backend/internal/services"
)

// DefaultMaxUploadBytes bounds an uploaded outfit photo.
const DefaultMaxUploadBytes int64 = 15 << 20

// OutfitAnalyzer runs one analysis end to end.
type OutfitAnalyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

type AnalysisHandlerDeps struct {
	Log            *logger.Logger
	Analyzer       OutfitAnalyzer
	Wardrobe       services.WardrobeService
	MaxUploadBytes int64
}

type AnalysisHandler struct {
	log       *logger.Logger
	analyzer  OutfitAnalyzer
	wardrobe  services.WardrobeService
	maxUpload int64
}

func NewAnalysisHandler(deps AnalysisHandlerDeps) *AnalysisHandler {
	maxUpload := deps.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &AnalysisHandler{
		log:       deps.Log.With("handler", "AnalysisHandler"),
		analyzer:  deps.Analyzer,
		wardrobe:  deps.Wardrobe,
		maxUpload: maxUpload,
	}
}

// analysisError maps the pipeline's fatal outcomes onto HTTP statuses.
func analysisError(err error) *apierr.Error {
	switch {
	case errors.Is(err, analysis.ErrAborted):
		return apierr.New(http.StatusServiceUnavailable, "analysis_aborted", err)
	case errors.Is(err, analysis.ErrFatalIntake):
		return apierr.New(http.StatusUnprocessableEntity, "image_intake_failed", err)
	case errors.Is(err, analysis.ErrFatalPersistence):
		return apierr.Internal("analysis_not_saved", err)
	default:
		return apierr.From(err)
	}
}

func (h *AnalysisHandler) readImage(c *gin.Context) ([]byte, string, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+(1<<20))
	fh, err := c.FormFile("image")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, "", apierr.New(http.StatusRequestEntityTooLarge, "image_too_large", err)
		}
		return nil, "", apierr.BadRequest("missing_image", fmt.Errorf("multipart field image: %w", err))
	}
	if fh.Size > h.maxUpload {
		return nil, "", apierr.New(http.StatusRequestEntityTooLarge, "image_too_large",
			fmt.Errorf("image is %d bytes; limit is %d", fh.Size, h.maxUpload))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", apierr.BadRequest("invalid_image", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", apierr.BadRequest("invalid_image", err)
	}
	if len(data) == 0 {
		return nil, "", apierr.BadRequest("missing_image", errors.New("image is empty"))
	}
	return data, fh.Filename, nil
}

// POST /api/analysis/outfit
func (h *AnalysisHandler) AnalyzeOutfit(c *gin.Context) {
	data, filename, err := h.readImage(c)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	userID := strings.TrimSpace(c.PostForm("user_id"))
	if userID == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_user_id", errors.New("user_id is required"))
		return
	}

	res, err := h.analyzer.Analyze(c.Request.Context(), analysis.Request{UserID: userID, Image: data, Filename: filename})
	if err != nil {
		_ = c.Error(err)
		response.RespondAPIError(c, analysisError(err))
		return
	}
	response.RespondAnalysis(c, res, res.Degraded())
}

// GET /api/analysis/outfit/:analysis_id
//
// Analysis ids identify a single run and are not stored, so there is
// nothing to look up.
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	response.RespondError(c, http.StatusNotImplemented, "not_implemented",
		fmt.Errorf("analysis %s cannot be retrieved; fetch the clothing item or report instead", c.Param("analysis_id")))
}

// GET /api/analysis/outfit/user/:user_id
func (h *AnalysisHandler) ListUserAnalyses(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	history, err := h.wardrobe.UserHistory(c.Request.Context(), c.Param("user_id"), limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user_id": c.Param("user_id"), "analyses": history, "count": len(history)})
}

func queryLimit(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apierr.BadRequest("invalid_limit", fmt.Errorf("limit must be a non-negative integer, got %q", raw))
	}
	return n, nil
}
