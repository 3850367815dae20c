package order

import (
	"context"
	"time"

	"github.com/perfume/backend/internal/domain/catalog"
	"github.com/perfume/backend/internal/domain/contact"
	"github.com/perfume/backend/internal/domain/order"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// lowStockLimit caps the low stock list of the dashboard
const lowStockLimit = 10

// StatsService computes the admin dashboard
type StatsService struct {
	orders   order.Repository
	products catalog.ProductRepository
	samples  contact.SampleRequestRepository
	messages contact.MessageRepository
	currency valueobject.Currency
	logger   *zap.Logger
}

// NewStatsService creates a new StatsService
func NewStatsService(
	orders order.Repository,
	products catalog.ProductRepository,
	samples contact.SampleRequestRepository,
	messages contact.MessageRepository,
	currency valueobject.Currency,
	logger *zap.Logger,
) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return &StatsService{
		orders:   orders,
		products: products,
		samples:  samples,
		messages: messages,
		currency: currency,
		logger:   logger,
	}
}

// Stats runs every dashboard query concurrently. The first failure cancels
// the others.
func (s *StatsService) Stats(ctx context.Context, lang string) (*StatsResponse, error) {
	resp := &StatsResponse{
		OrdersByStatus: map[string]int64{},
		Currency:       string(s.currency),
		LowStock:       []LowStockProduct{},
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.orders.CountByStatus(ctx)
		if err != nil {
			return err
		}
		for _, st := range []order.Status{order.StatusPending, order.StatusConfirmed, order.StatusShipped, order.StatusDelivered, order.StatusCancelled} {
			resp.OrdersByStatus[string(st)] = counts[st]
			resp.TotalOrders += counts[st]
		}
		return nil
	})
	g.Go(func() error {
		revenue, err := s.orders.SumPaidTotals(ctx)
		if err != nil {
			return err
		}
		resp.Revenue = revenue
		return nil
	})
	g.Go(func() error {
		products, err := s.products.FindLowStock(ctx, catalog.LowStockThreshold, lowStockLimit)
		if err != nil {
			return err
		}
		for _, p := range products {
			resp.LowStock = append(resp.LowStock, LowStockProduct{
				ID:    p.ID,
				Slug:  p.Slug,
				Name:  p.Name.Get(lang),
				Stock: p.Stock,
			})
		}
		return nil
	})
	g.Go(func() error {
		n, err := s.samples.CountByStatus(ctx, contact.SampleStatusPending)
		if err != nil {
			return err
		}
		resp.PendingSamples = n
		return nil
	})
	g.Go(func() error {
		n, err := s.messages.CountUnread(ctx)
		if err != nil {
			return err
		}
		resp.UnreadMessages = n
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to compute dashboard stats", zap.Error(err))
		return nil, err
	}
	resp.GeneratedAt = time.Now().UTC()
	return resp, nil
}
