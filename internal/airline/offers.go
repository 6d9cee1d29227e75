package airline

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Domenick1991/airorders/internal/domain"
)

func (c *Client) GetOffer(ctx context.Context, offerID string) (*domain.Offer, error) {
	var dto offerDTO
	if err := c.do(ctx, http.MethodGet, "/air/offers/"+url.PathEscape(offerID), nil, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}
