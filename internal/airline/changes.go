package airline

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Domenick1991/airorders/internal/domain"
)

type idRef struct {
	ID string `json:"id"`
}

type sliceAddDTO struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	CabinClass    string `json:"cabin_class,omitempty"`
}

type sliceChangeDTO struct {
	Add    []sliceAddDTO `json:"add,omitempty"`
	Remove []idRef       `json:"remove,omitempty"`
}

type passengerChangeDTO struct {
	Add    []passengerDTO `json:"add,omitempty"`
	Remove []idRef        `json:"remove,omitempty"`
}

type serviceAddDTO struct {
	ID          string `json:"id"`
	PassengerID string `json:"passenger_id"`
	SegmentID   string `json:"segment_id"`
	Quantity    int    `json:"quantity"`
}

type serviceChangeDTO struct {
	Add    []serviceAddDTO `json:"add,omitempty"`
	Remove []idRef         `json:"remove,omitempty"`
}

type changeRequestBody struct {
	OrderID    string              `json:"order_id"`
	Slices     *sliceChangeDTO     `json:"slices,omitempty"`
	Passengers *passengerChangeDTO `json:"passengers,omitempty"`
	Services   *serviceChangeDTO   `json:"services,omitempty"`
}

func refs(ids []string) []idRef {
	out := make([]idRef, 0, len(ids))
	for _, id := range ids {
		out = append(out, idRef{ID: id})
	}
	return out
}

func changeBody(orderID string, m domain.Mutation) (changeRequestBody, error) {
	body := changeRequestBody{OrderID: orderID}
	switch v := m.(type) {
	case domain.SliceChange:
		dto := &sliceChangeDTO{Remove: refs(v.Remove)}
		for _, s := range v.Add {
			dto.Add = append(dto.Add, sliceAddDTO(s))
		}
		body.Slices = dto
	case domain.PassengerChange:
		dto := &passengerChangeDTO{Remove: refs(v.Remove)}
		for _, p := range v.Add {
			dto.Add = append(dto.Add, passengerFromDomain(p))
		}
		body.Passengers = dto
	case domain.ServiceChange:
		dto := &serviceChangeDTO{Remove: refs(v.Remove)}
		for _, s := range v.Add {
			dto.Add = append(dto.Add, serviceAddDTO{
				ID:          s.ServiceID,
				PassengerID: s.PassengerID,
				SegmentID:   s.SegmentID,
				Quantity:    s.Quantity,
			})
		}
		body.Services = dto
	default:
		return body, fmt.Errorf("unsupported mutation %T", m)
	}
	return body, nil
}

// CreateChangeRequest submits a mutation. The airline answers with priced offers,
// or with the already updated order when no confirmation is needed.
func (c *Client) CreateChangeRequest(ctx context.Context, orderID string, m domain.Mutation) (*domain.Proposal, error) {
	body, err := changeBody(orderID, m)
	if err != nil {
		return nil, err
	}

	var dto changeRequestDTO
	if err := c.do(ctx, http.MethodPost, "/air/order_change_requests", body, &dto); err != nil {
		return nil, err
	}

	p := &domain.Proposal{
		Request: domain.ChangeRequest{
			ID:        dto.ID,
			OrderID:   orderID,
			Mutation:  m,
			Status:    domain.ChangeRequestPending,
			CreatedAt: dto.CreatedAt.Time,
		},
		RequiresConfirmation: true,
	}
	if dto.RequiresConfirmation != nil {
		p.RequiresConfirmation = *dto.RequiresConfirmation
	}
	for _, o := range dto.OrderChangeOffers {
		p.Offers = append(p.Offers, o.toDomain(dto.ID))
	}
	if len(p.Offers) > 0 {
		p.Request.Status = domain.ChangeRequestOffered
	}
	if dto.Order != nil {
		p.Order = dto.Order.toDomain(c.now())
	}
	return p, nil
}

// GetChangeRequest reads back a change request with the order it belongs to.
func (c *Client) GetChangeRequest(ctx context.Context, requestID string) (*domain.ChangeRequest, error) {
	var dto changeRequestDTO
	if err := c.do(ctx, http.MethodGet, "/air/order_change_requests/"+url.PathEscape(requestID), nil, &dto); err != nil {
		return nil, err
	}
	req := &domain.ChangeRequest{
		ID:        dto.ID,
		OrderID:   dto.OrderID,
		Status:    domain.ChangeRequestPending,
		CreatedAt: dto.CreatedAt.Time,
	}
	if len(dto.OrderChangeOffers) > 0 {
		req.Status = domain.ChangeRequestOffered
	}
	return req, nil
}

func (c *Client) GetChangeOffer(ctx context.Context, offerID string) (*domain.ChangeOffer, error) {
	var dto changeOfferDTO
	if err := c.do(ctx, http.MethodGet, "/air/order_change_offers/"+url.PathEscape(offerID), nil, &dto); err != nil {
		return nil, err
	}
	offer := dto.toDomain("")
	return &offer, nil
}

type confirmChangeBody struct {
	OrderChangeRequestID string      `json:"order_change_request_id"`
	SelectedOffer        string      `json:"selected_order_change_offer"`
	Payment              *paymentDTO `json:"payment,omitempty"`
}

// ConfirmChangeOffer accepts one offer of a change request and returns the mutated order.
func (c *Client) ConfirmChangeOffer(ctx context.Context, requestID, offerID string, payment *domain.Payment) (*domain.Order, error) {
	body := confirmChangeBody{OrderChangeRequestID: requestID, SelectedOffer: offerID}
	if payment != nil {
		p := paymentFromDomain(*payment)
		body.Payment = &p
	}

	var dto orderDTO
	if err := c.do(ctx, http.MethodPost, "/air/order_changes", body, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(c.now()), nil
}

// RemoveServices drops services from an order directly; removals need no offer selection.
func (c *Client) RemoveServices(ctx context.Context, orderID string, serviceIDs []string) (*domain.Order, error) {
	body := serviceChangeDTO{Remove: refs(serviceIDs)}

	var dto orderDTO
	path := "/air/orders/" + url.PathEscape(orderID) + "/services/actions/remove"
	if err := c.do(ctx, http.MethodPost, path, body, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(c.now()), nil
}
