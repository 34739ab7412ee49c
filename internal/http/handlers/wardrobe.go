package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/fitprint-backend/internal/domain/wardrobe"
	"github.com/yungbote/fitprint-backend/internal/http/response"
	"github.com/yungbote/fitprint-backend/internal/services"
)

// WardrobeHandler exposes clothing items, reports and alternatives.
type WardrobeHandler struct {
	wardrobe services.WardrobeService
}

func NewWardrobeHandler(wardrobe services.WardrobeService) *WardrobeHandler {
	return &WardrobeHandler{wardrobe: wardrobe}
}

// GET /api/clothing
func (h *WardrobeHandler) ListClothing(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	items, err := h.wardrobe.ListClothing(c.Request.Context(), limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"clothing_items": items, "count": len(items)})
}

// GET /api/clothing/:id
func (h *WardrobeHandler) GetClothing(c *gin.Context) {
	item, err := h.wardrobe.GetClothing(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"clothing_item": item})
}

// PATCH /api/clothing/:id
func (h *WardrobeHandler) UpdateClothing(c *gin.Context) {
	var patch types.ClothingPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	item, err := h.wardrobe.UpdateClothing(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"clothing_item": item})
}

// DELETE /api/clothing/:id
func (h *WardrobeHandler) DeleteClothing(c *gin.Context) {
	if err := h.wardrobe.DeleteClothing(c.Request.Context(), c.Param("id")); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/sustainability/reports
func (h *WardrobeHandler) ListReports(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	reports, err := h.wardrobe.ListReports(c.Request.Context(), limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reports": reports, "count": len(reports)})
}

// GET /api/sustainability/reports/:id
func (h *WardrobeHandler) GetReport(c *gin.Context) {
	rep, err := h.wardrobe.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"report": rep})
}

// GET /api/sustainability/reports/clothing/:clothing_id
func (h *WardrobeHandler) ReportsForClothing(c *gin.Context) {
	reports, err := h.wardrobe.ReportsForClothing(c.Request.Context(), c.Param("clothing_id"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if len(reports) == 0 {
		response.RespondError(c, http.StatusNotFound, "report_not_found", errors.New("no reports for this clothing item"))
		return
	}
	response.RespondOK(c, gin.H{"reports": reports, "count": len(reports)})
}

// GET /api/sustainability/scores/summary
func (h *WardrobeHandler) ScoreSummary(c *gin.Context) {
	summary, err := h.wardrobe.ScoreSummary(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, summary)
}

// GET /api/alternatives/:id
func (h *WardrobeHandler) GetAlternative(c *gin.Context) {
	alt, err := h.wardrobe.GetAlternative(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"alternative": alt})
}
