package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/airorders/internal/domain"
	"github.com/Domenick1991/airorders/internal/service/orders"
	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	service    orders.OrderUseCase
	hideDetail bool
}

type createOrderRequest struct {
	OfferID     string             `json:"offer_id"`
	Type        domain.OrderMode   `json:"type"`
	Hold        *bool              `json:"hold"`
	HoldMinutes int                `json:"hold_minutes"`
	Passengers  []domain.Passenger `json:"passengers"`
	Payment     *domain.Payment    `json:"payment"`
}

type paymentRequest struct {
	Payment *domain.Payment `json:"payment"`
}

// NewOrderHandler builds the order routes. hideDetail suppresses upstream error detail.
func NewOrderHandler(service orders.OrderUseCase, hideDetail bool) *OrderHandler {
	return &OrderHandler{service: service, hideDetail: hideDetail}
}

func (h *OrderHandler) Register(router *gin.RouterGroup) {
	router.POST("/orders", h.create)
	router.GET("/orders/:id", h.get)
	router.POST("/orders/:id/actions/extend", h.extend)
	router.POST("/orders/:id/actions/confirm", h.confirm)
	router.POST("/orders/:id/actions/cancel", h.cancel)
	router.POST("/orders/:id/change_options", h.changeOptions)
	router.POST("/orders/:id/change_requests", h.createChange)
	router.POST("/orders/:id/change_requests/:rid/confirm", h.confirmChange)
	router.POST("/orders/:id/seats", h.addSeats)
	router.DELETE("/orders/:id/seats/:sid", h.removeSeat)
	router.POST("/orders/:id/baggage", h.addBaggage)
	router.DELETE("/orders/:id/baggage/:sid", h.removeBaggage)
	router.GET("/orders/:id/seat_map", h.seatMap)
}

func (h *OrderHandler) fail(c *gin.Context, err error) {
	writeError(c, err, h.hideDetail)
}

func (h *OrderHandler) create(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Type != "" && req.Type != domain.OrderModeHold && req.Type != domain.OrderModeInstant {
		writeError(c, domain.ErrValidation("type must be hold or instant"), false)
		return
	}
	hold := req.Type == domain.OrderModeHold
	if req.Hold != nil {
		if req.Type != "" && *req.Hold != hold {
			writeError(c, domain.ErrValidation("hold and type disagree"), false)
			return
		}
		hold = *req.Hold
	}

	result, err := h.service.CreateOrder(c.Request.Context(), principal(c), orders.CreateOrderInput{
		OfferID:      req.OfferID,
		Passengers:   req.Passengers,
		Hold:         hold,
		HoldDuration: time.Duration(req.HoldMinutes) * time.Minute,
		Payment:      req.Payment,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *OrderHandler) get(c *gin.Context) {
	result, err := h.service.GetOrder(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) extend(c *gin.Context) {
	result, err := h.service.ExtendHold(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) confirm(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	result, err := h.service.ConfirmHold(c.Request.Context(), principal(c), c.Param("id"), req.Payment)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) cancel(c *gin.Context) {
	result, err := h.service.CancelOrder(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) seatMap(c *gin.Context) {
	maps, err := h.service.GetSeatMap(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"seat_maps": maps})
}
