package airline

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Domenick1991/airorders/internal/domain"
)

type CreateOrderInput struct {
	OfferID    string
	Mode       domain.OrderMode
	Passengers []domain.Passenger
	Payment    *domain.Payment
}

type createOrderRequest struct {
	Type           string         `json:"type"`
	SelectedOffers []string       `json:"selected_offers"`
	Passengers     []passengerDTO `json:"passengers"`
	Payments       []paymentDTO   `json:"payments,omitempty"`
}

func (c *Client) CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	req := createOrderRequest{
		Type:           string(in.Mode),
		SelectedOffers: []string{in.OfferID},
	}
	for _, p := range in.Passengers {
		req.Passengers = append(req.Passengers, passengerFromDomain(p))
	}
	if in.Payment != nil {
		req.Payments = []paymentDTO{paymentFromDomain(*in.Payment)}
	}

	var dto orderDTO
	if err := c.do(ctx, http.MethodPost, "/air/orders", req, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(c.now()), nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var dto orderDTO
	if err := c.do(ctx, http.MethodGet, "/air/orders/"+url.PathEscape(orderID), nil, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(c.now()), nil
}

type cancellationDTO struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"order_id"`
	ConfirmedAt timestamp `json:"confirmed_at"`
}

// CancelOrder creates a cancellation quote and confirms it immediately.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	var quote cancellationDTO
	if err := c.do(ctx, http.MethodPost, "/air/order_cancellations", map[string]string{"order_id": orderID}, &quote); err != nil {
		return err
	}
	path := "/air/order_cancellations/" + url.PathEscape(quote.ID) + "/actions/confirm"
	return c.do(ctx, http.MethodPost, path, nil, &quote)
}

type payOrderRequest struct {
	OrderID string     `json:"order_id"`
	Payment paymentDTO `json:"payment"`
}

// PayOrder settles a held order.
func (c *Client) PayOrder(ctx context.Context, orderID string, payment domain.Payment) error {
	req := payOrderRequest{OrderID: orderID, Payment: paymentFromDomain(payment)}
	return c.do(ctx, http.MethodPost, "/air/payments", req, nil)
}
