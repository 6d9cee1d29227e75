package orders

import (
	"context"

	"github.com/Domenick1991/airorders/internal/airline"
	"github.com/Domenick1991/airorders/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// GetSeatMap fetches seat maps for every segment of the order concurrently.
// A segment whose seat map cannot be fetched is left out.
func (s *OrderService) GetSeatMap(ctx context.Context, principal, orderID string) ([]domain.SeatMap, error) {
	if _, err := s.loadOwned(ctx, principal, orderID); err != nil {
		return nil, err
	}
	order, err := s.airline.GetOrder(ctx, orderID)
	if err != nil {
		return nil, airline.Classify(err)
	}

	segments := order.SegmentIDs()
	perSegment := make([][]domain.SeatMap, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.seatMapConcurrency)
	for i, segmentID := range segments {
		i, segmentID := i, segmentID
		g.Go(func() error {
			maps, err := s.airline.SeatMaps(gctx, airline.SeatMapQuery{OrderID: orderID, SegmentID: segmentID})
			if err != nil {
				s.logger.Warn("seat map unavailable",
					zap.String("order_id", orderID),
					zap.String("segment_id", segmentID),
					zap.Error(err),
				)
				return nil
			}
			perSegment[i] = maps
			return nil
		})
	}
	_ = g.Wait()

	result := make([]domain.SeatMap, 0, len(segments))
	for _, maps := range perSegment {
		result = append(result, maps...)
	}
	return result, nil
}
