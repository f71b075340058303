package handler

import (
	"encoding/json"
	"time"

	reconcileapp "github.com/gearsync/backend/internal/application/reconcile"
	"github.com/gearsync/backend/internal/domain/listing"
	"github.com/gearsync/backend/internal/domain/reconcile"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventHandler handles change event API endpoints
type EventHandler struct {
	BaseHandler
	manual *reconcileapp.ManualService
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(manual *reconcileapp.ManualService) *EventHandler {
	return &EventHandler{manual: manual}
}

// ListEventsRequest represents query parameters for listing change events
// @Description Query parameters for filtering change events
type ListEventsRequest struct {
	Platform   string `form:"platform" binding:"omitempty,oneof=EBAY REVERB VINTAGEANDRARE SHOPIFY"`
	ChangeType string `form:"change_type" binding:"omitempty,oneof=new_listing status_change price_change quantity_change removed_listing"`
	Status     string `form:"status" binding:"omitempty,oneof=pending processing processed partial error skipped"`
	ItemID     string `form:"item_id" binding:"omitempty,uuid"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// SkipEventRequest represents a request to skip a change event
// @Description Request body for closing an event without propagation
type SkipEventRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500" example:"duplicate detection, already reconciled by hand"`
}

// ForceMatchRequest represents a request to bind an event to an item by SKU
// @Description Request body for overriding the matcher's conclusion
type ForceMatchRequest struct {
	SKU string `json:"sku" binding:"required,min=1,max=64" example:"VG-2101"`
}

// ChangeEventResponse represents a change event in API responses
// @Description Change event response
type ChangeEventResponse struct {
	ID          string          `json:"id" example:"550e8400-e29b-41d4-a716-446655440010"`
	Platform    string          `json:"platform" example:"REVERB"`
	ExternalID  string          `json:"external_id" example:"rev-8817264"`
	ChangeType  string          `json:"change_type" example:"price_change"`
	Status      string          `json:"status" example:"pending"`
	Data        json.RawMessage `json:"data,omitempty"`
	ItemID      *string         `json:"item_id,omitempty" example:"550e8400-e29b-41d4-a716-446655440001"`
	Notes       string          `json:"notes,omitempty"`
	DetectedAt  time.Time       `json:"detected_at"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toChangeEventResponse(event *reconcile.ChangeEvent) ChangeEventResponse {
	resp := ChangeEventResponse{
		ID:          event.ID.String(),
		Platform:    event.Platform.String(),
		ExternalID:  event.ExternalID,
		ChangeType:  event.ChangeType.String(),
		Status:      string(event.Status),
		Data:        event.Data,
		Notes:       event.Notes,
		DetectedAt:  event.DetectedAt,
		ProcessedAt: event.ProcessedAt,
		CreatedAt:   event.CreatedAt,
		UpdatedAt:   event.UpdatedAt,
	}
	if event.ItemID != nil {
		id := event.ItemID.String()
		resp.ItemID = &id
	}
	return resp
}

func toChangeEventListResponse(events []reconcile.ChangeEvent) []ChangeEventResponse {
	responses := make([]ChangeEventResponse, 0, len(events))
	for i := range events {
		responses = append(responses, toChangeEventResponse(&events[i]))
	}
	return responses
}

// List godoc
// @Summary      List change events
// @Description  List detected change events with filtering and pagination, newest first
// @Tags         events
// @Produce      json
// @Param        platform query string false "Platform filter" Enums(EBAY, REVERB, VINTAGEANDRARE, SHOPIFY)
// @Param        change_type query string false "Change type filter"
// @Param        status query string false "Status filter"
// @Param        item_id query string false "Matched item ID filter" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]ChangeEventResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /reconcile/events [get]
func (h *EventHandler) List(c *gin.Context) {
	var req ListEventsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := reconcile.EventFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if req.Platform != "" {
		platform := listing.Platform(req.Platform)
		filter.Platform = &platform
	}
	if req.ChangeType != "" {
		changeType := reconcile.ChangeType(req.ChangeType)
		filter.ChangeType = &changeType
	}
	if req.Status != "" {
		status := reconcile.EventStatus(req.Status)
		filter.Status = &status
	}
	if req.ItemID != "" {
		itemID, err := uuid.Parse(req.ItemID)
		if err != nil {
			h.BadRequest(c, "Invalid item ID format")
			return
		}
		filter.ItemID = &itemID
	}

	events, total, err := h.manual.ListEvents(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, toChangeEventListResponse(events), total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @Summary      Get change event by ID
// @Description  Retrieve a single change event including its raw change document
// @Tags         events
// @Produce      json
// @Param        id path string true "Event ID" format(uuid)
// @Success      200 {object} dto.Response{data=ChangeEventResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /reconcile/events/{id} [get]
func (h *EventHandler) GetByID(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid event ID format")
		return
	}

	event, err := h.manual.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toChangeEventResponse(event))
}

// Skip godoc
// @Summary      Skip a change event
// @Description  Close a pending event without propagating anything, recording the operator's reason
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        id path string true "Event ID" format(uuid)
// @Param        request body SkipEventRequest true "Skip reason"
// @Success      200 {object} dto.Response{data=ChangeEventResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /reconcile/events/{id}/skip [post]
func (h *EventHandler) Skip(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid event ID format")
		return
	}

	var req SkipEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	event, err := h.manual.SkipEvent(c.Request.Context(), eventID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toChangeEventResponse(event))
}

// ForceMatch godoc
// @Summary      Force-match an event to an item
// @Description  Bind the event's listing to the item with the given SKU and queue a fresh processing attempt
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        id path string true "Event ID" format(uuid)
// @Param        request body ForceMatchRequest true "Target item SKU"
// @Success      200 {object} dto.Response{data=ChangeEventResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /reconcile/events/{id}/force-match [post]
func (h *EventHandler) ForceMatch(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid event ID format")
		return
	}

	var req ForceMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	event, err := h.manual.ForceMatch(c.Request.Context(), eventID, req.SKU)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toChangeEventResponse(event))
}

// Reprocess godoc
// @Summary      Reprocess a terminal event
// @Description  Queue a fresh pending attempt for an event that already reached a final outcome
// @Tags         events
// @Produce      json
// @Param        id path string true "Event ID" format(uuid)
// @Success      201 {object} dto.Response{data=ChangeEventResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /reconcile/events/{id}/reprocess [post]
func (h *EventHandler) Reprocess(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid event ID format")
		return
	}

	attempt, err := h.manual.Reprocess(c.Request.Context(), eventID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toChangeEventResponse(attempt))
}

// ActivateLocal godoc
// @Summary      Activate an item locally from a new-listing event
// @Description  Create or activate the canonical item for a new-listing event without pushing to other platforms
// @Tags         events
// @Produce      json
// @Param        id path string true "Event ID" format(uuid)
// @Success      200 {object} dto.Response{data=ItemResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /reconcile/events/{id}/activate-local [post]
func (h *EventHandler) ActivateLocal(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid event ID format")
		return
	}

	item, err := h.manual.ActivateLocal(c.Request.Context(), eventID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toItemResponse(item))
}

// RegisterRoutes registers event routes on the given router group
func (h *EventHandler) RegisterRoutes(rg *gin.RouterGroup) {
	events := rg.Group("/reconcile/events")
	{
		events.GET("", h.List)
		events.GET("/:id", h.GetByID)
		events.POST("/:id/skip", h.Skip)
		events.POST("/:id/force-match", h.ForceMatch)
		events.POST("/:id/reprocess", h.Reprocess)
		events.POST("/:id/activate-local", h.ActivateLocal)
	}
}
