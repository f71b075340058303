package handler

import (
	"time"

	reconcileapp "github.com/gearsync/backend/internal/application/reconcile"
	"github.com/gearsync/backend/internal/domain/reconcile"
	"github.com/gearsync/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ResolutionHandler handles pending identifier resolution endpoints
type ResolutionHandler struct {
	BaseHandler
	manual *reconcileapp.ManualService
}

// NewResolutionHandler creates a new ResolutionHandler
func NewResolutionHandler(manual *reconcileapp.ManualService) *ResolutionHandler {
	return &ResolutionHandler{manual: manual}
}

// ListResolutionsRequest represents query parameters for listing resolutions
// @Description Query parameters for filtering pending resolutions
type ListResolutionsRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending resolved dead"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ResolutionResponse represents a pending resolution in API responses
// @Description Pending identifier resolution response
type ResolutionResponse struct {
	ID            string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440030"`
	LinkID        string     `json:"link_id" example:"550e8400-e29b-41d4-a716-446655440031"`
	ItemID        string     `json:"item_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	Platform      string     `json:"platform" example:"VINTAGEANDRARE"`
	Status        string     `json:"status" example:"pending"`
	Attempts      int        `json:"attempts" example:"2"`
	NextAttemptAt time.Time  `json:"next_attempt_at"`
	LastError     string     `json:"last_error,omitempty"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func toResolutionResponse(resolution *reconcile.PendingResolution) ResolutionResponse {
	return ResolutionResponse{
		ID:            resolution.ID.String(),
		LinkID:        resolution.LinkID.String(),
		ItemID:        resolution.ItemID.String(),
		Platform:      resolution.Platform.String(),
		Status:        string(resolution.Status),
		Attempts:      resolution.Attempts,
		NextAttemptAt: resolution.NextAttemptAt,
		LastError:     resolution.LastError,
		ResolvedAt:    resolution.ResolvedAt,
		CreatedAt:     resolution.CreatedAt,
		UpdatedAt:     resolution.UpdatedAt,
	}
}

func toResolutionListResponse(resolutions []reconcile.PendingResolution) []ResolutionResponse {
	responses := make([]ResolutionResponse, 0, len(resolutions))
	for i := range resolutions {
		responses = append(responses, toResolutionResponse(&resolutions[i]))
	}
	return responses
}

// List godoc
// @Summary      List pending resolutions
// @Description  List deferred identifier resolutions with filtering and pagination
// @Tags         resolutions
// @Produce      json
// @Param        status query string false "Status filter" Enums(pending, resolved, dead)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]ResolutionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /reconcile/resolutions [get]
func (h *ResolutionHandler) List(c *gin.Context) {
	var req ListResolutionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if req.Status != "" {
		filter.Filters = map[string]interface{}{"status": req.Status}
	}

	resolutions, total, err := h.manual.ListResolutions(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, toResolutionListResponse(resolutions), total, filter.Page, filter.PageSize)
}

// Trigger godoc
// @Summary      Trigger a resolution attempt
// @Description  Run one identifier resolution attempt immediately instead of waiting for the scheduler
// @Tags         resolutions
// @Produce      json
// @Param        id path string true "Resolution ID" format(uuid)
// @Success      200 {object} dto.Response{data=ResolutionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /reconcile/resolutions/{id}/trigger [post]
func (h *ResolutionHandler) Trigger(c *gin.Context) {
	resolutionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid resolution ID format")
		return
	}

	resolution, err := h.manual.TriggerResolution(c.Request.Context(), resolutionID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toResolutionResponse(resolution))
}

// RegisterRoutes registers resolution routes on the given router group
func (h *ResolutionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	resolutions := rg.Group("/reconcile/resolutions")
	{
		resolutions.GET("", h.List)
		resolutions.POST("/:id/trigger", h.Trigger)
	}
}
