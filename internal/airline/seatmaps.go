package airline

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Domenick1991/airorders/internal/domain"
)

// SeatMapQuery selects seat maps either for an offer or an order, optionally narrowed to one segment.
type SeatMapQuery struct {
	OfferID   string
	OrderID   string
	SegmentID string
}

func (q SeatMapQuery) encode() string {
	v := url.Values{}
	if q.OfferID != "" {
		v.Set("offer_id", q.OfferID)
	}
	if q.OrderID != "" {
		v.Set("order_id", q.OrderID)
	}
	if q.SegmentID != "" {
		v.Set("segment_id", q.SegmentID)
	}
	return v.Encode()
}

func (c *Client) SeatMaps(ctx context.Context, q SeatMapQuery) ([]domain.SeatMap, error) {
	var dtos []seatMapDTO
	if err := c.do(ctx, http.MethodGet, "/air/seat_maps?"+q.encode(), nil, &dtos); err != nil {
		return nil, err
	}
	maps := make([]domain.SeatMap, 0, len(dtos))
	for _, d := range dtos {
		maps = append(maps, d.toDomain())
	}
	return maps, nil
}
