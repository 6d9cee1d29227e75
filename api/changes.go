package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/airorders/internal/domain"
	"github.com/gin-gonic/gin"
)

// changeRequest carries exactly one of slices or passengers.
type changeRequest struct {
	Slices     *domain.SliceChange     `json:"slices"`
	Passengers *domain.PassengerChange `json:"passengers"`
}

func (r changeRequest) mutation() (domain.Mutation, error) {
	switch {
	case r.Slices != nil && r.Passengers != nil:
		return nil, errors.New("send either slices or passengers, not both")
	case r.Slices != nil:
		return *r.Slices, nil
	case r.Passengers != nil:
		return *r.Passengers, nil
	default:
		return nil, errors.New("slices or passengers is required")
	}
}

type confirmChangeRequest struct {
	OfferID string          `json:"offer_id"`
	Payment *domain.Payment `json:"payment"`
}

type servicesRequest struct {
	Services []domain.ServiceSelection `json:"services"`
	Payment  *domain.Payment           `json:"payment"`
}

func bindMutation(c *gin.Context) (domain.Mutation, bool) {
	var req changeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return nil, false
	}
	m, err := req.mutation()
	if err != nil {
		badRequest(c, err)
		return nil, false
	}
	return m, true
}

func (h *OrderHandler) changeOptions(c *gin.Context) {
	m, ok := bindMutation(c)
	if !ok {
		return
	}
	result, err := h.service.ListChangeOptions(c.Request.Context(), principal(c), c.Param("id"), m)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) createChange(c *gin.Context) {
	m, ok := bindMutation(c)
	if !ok {
		return
	}
	result, err := h.service.CreateChangeRequest(c.Request.Context(), principal(c), c.Param("id"), m)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *OrderHandler) confirmChange(c *gin.Context) {
	var req confirmChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	result, err := h.service.ConfirmChangeOffer(c.Request.Context(), principal(c), c.Param("id"), c.Param("rid"), req.OfferID, req.Payment)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) addSeats(c *gin.Context) {
	var req servicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	result, err := h.service.AddSeats(c.Request.Context(), principal(c), c.Param("id"), req.Services, req.Payment)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) addBaggage(c *gin.Context) {
	var req servicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	result, err := h.service.AddBaggage(c.Request.Context(), principal(c), c.Param("id"), req.Services, req.Payment)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) removeSeat(c *gin.Context) {
	result, err := h.service.RemoveSeat(c.Request.Context(), principal(c), c.Param("id"), c.Param("sid"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) removeBaggage(c *gin.Context) {
	result, err := h.service.RemoveBaggage(c.Request.Context(), principal(c), c.Param("id"), c.Param("sid"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
