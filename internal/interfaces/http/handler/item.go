package handler

import (
	"time"

	reconcileapp "github.com/gearsync/backend/internal/application/reconcile"
	"github.com/gearsync/backend/internal/domain/catalog"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ItemHandler handles operator propagation endpoints for catalog items
type ItemHandler struct {
	BaseHandler
	manual *reconcileapp.ManualService
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(manual *reconcileapp.ManualService) *ItemHandler {
	return &ItemHandler{manual: manual}
}

// ItemResponse represents a catalog item in API responses
// @Description Catalog item response
type ItemResponse struct {
	ID          string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440001"`
	SKU         string    `json:"sku" example:"VG-2101"`
	Brand       string    `json:"brand" example:"Fender"`
	Model       string    `json:"model" example:"Stratocaster"`
	Year        *int      `json:"year,omitempty" example:"1962"`
	Decade      *int      `json:"decade,omitempty" example:"1960"`
	Finish      string    `json:"finish,omitempty" example:"Sunburst"`
	Category    string    `json:"category,omitempty" example:"Electric Guitar"`
	Description string    `json:"description,omitempty"`
	BasePrice   string    `json:"base_price" example:"12500.00"`
	Status      string    `json:"status" example:"ACTIVE"`
	IsStocked   bool      `json:"is_stocked" example:"false"`
	Quantity    int       `json:"quantity" example:"1"`
	ImageURLs   []string  `json:"image_urls,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int       `json:"version" example:"1"`
}

func toItemResponse(item *catalog.Item) ItemResponse {
	return ItemResponse{
		ID:          item.ID.String(),
		SKU:         item.SKU,
		Brand:       item.Brand,
		Model:       item.Model,
		Year:        item.Year,
		Decade:      item.Decade,
		Finish:      item.Finish,
		Category:    item.Category,
		Description: item.Description,
		BasePrice:   item.BasePrice.String(),
		Status:      string(item.Status),
		IsStocked:   item.IsStocked,
		Quantity:    item.Quantity,
		ImageURLs:   item.ImageURLs,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
		Version:     item.Version,
	}
}

// PropagationResultResponse reports the outcome of pushing a change to the
// item's linked platforms
// @Description Per-platform propagation outcome
type PropagationResultResponse struct {
	Succeeded []string          `json:"succeeded"`
	Failed    []string          `json:"failed"`
	Errors    map[string]string `json:"errors,omitempty"`
	Note      string            `json:"note,omitempty"`
}

func toPropagationResultResponse(result *reconcileapp.HandlerResult) PropagationResultResponse {
	resp := PropagationResultResponse{
		Succeeded: make([]string, 0, len(result.Succeeded)),
		Failed:    make([]string, 0, len(result.Failed)),
		Note:      result.Note,
	}
	for _, platform := range result.Succeeded {
		resp.Succeeded = append(resp.Succeeded, platform.String())
	}
	for _, platform := range result.Failed {
		resp.Failed = append(resp.Failed, platform.String())
	}
	if len(result.Errors) > 0 {
		resp.Errors = make(map[string]string, len(result.Errors))
		for platform, msg := range result.Errors {
			resp.Errors[platform.String()] = msg
		}
	}
	return resp
}

// Relist godoc
// @Summary      Relist an item across its platforms
// @Description  Push the item back to active on every linked platform after a local relist
// @Tags         items
// @Produce      json
// @Param        id path string true "Item ID" format(uuid)
// @Success      200 {object} dto.Response{data=PropagationResultResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /catalog/items/{id}/relist [post]
func (h *ItemHandler) Relist(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	result, err := h.manual.RelistItem(c.Request.Context(), itemID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPropagationResultResponse(result))
}

// ForceEnd godoc
// @Summary      End an item's listings everywhere
// @Description  Mark the item sold locally and push ended status to every linked platform
// @Tags         items
// @Produce      json
// @Param        id path string true "Item ID" format(uuid)
// @Success      200 {object} dto.Response{data=PropagationResultResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /catalog/items/{id}/force-end [post]
func (h *ItemHandler) ForceEnd(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	result, err := h.manual.ForceEnd(c.Request.Context(), itemID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPropagationResultResponse(result))
}

// RegisterRoutes registers item routes on the given router group
func (h *ItemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	items := rg.Group("/catalog/items")
	{
		items.POST("/:id/relist", h.Relist)
		items.POST("/:id/force-end", h.ForceEnd)
	}
}
