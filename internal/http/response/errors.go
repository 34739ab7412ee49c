package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/fitprint-backend/internal/platform/apierr"
)

// DegradedHeader marks an analysis that completed with at least one fallback.
const DegradedHeader = "X-Analysis-Degraded"

var errInternal = errors.New("internal server error")

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

// RespondAPIError renders err through its *apierr.Error classification.
// Unclassified errors become 500 internal_error; their message is not echoed.
func RespondAPIError(c *gin.Context, err error) {
	ae := apierr.From(err)
	if ae == nil {
		RespondError(c, http.StatusInternalServerError, "internal_error", errInternal)
		return
	}
	status, msg := ae.Status, ae.Err
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if ae.Code == "internal_error" {
		msg = errInternal
	}
	RespondError(c, status, ae.Code, msg)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondAnalysis writes a finished analysis. Degraded runs still answer 200
// and carry DegradedHeader so clients can tell a fallback result apart.
func RespondAnalysis(c *gin.Context, payload any, degraded bool) {
	if degraded {
		c.Header(DegradedHeader, "true")
	}
	RespondOK(c, payload)
}
