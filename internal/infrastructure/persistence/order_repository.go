package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/order"
	"github.com/perfume/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormOrderRepository implements order.Repository using gorm
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) findOne(ctx context.Context, query string, arg any) (*order.Order, error) {
	var model models.OrderModel
	if err := conn(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where(query, arg).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByID finds an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByNumber finds an order by its ORD- number
func (r *GormOrderRepository) FindByNumber(ctx context.Context, number string) (*order.Order, error) {
	return r.findOne(ctx, "number = ?", strings.ToUpper(strings.TrimSpace(number)))
}

// FindByPaymentRef finds an order by the gateway reference attached to it
func (r *GormOrderRepository) FindByPaymentRef(ctx context.Context, ref string) (*order.Order, error) {
	return r.findOne(ctx, "payment_ref = ?", ref)
}

// FindAll returns a page of orders matching the filter and the total count
func (r *GormOrderRepository) FindAll(ctx context.Context, filter order.Filter) ([]order.Order, int64, error) {
	filter.Filter = filter.Filter.Normalize()
	query := r.applyFilter(conn(ctx, r.db).Model(&models.OrderModel{}), filter).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.OrderModel
	if err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order(orderClause(filter.OrderBy, filter.OrderDir, OrderSortFields, "created_at")).
		Order("id").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]order.Order, 0, len(rows))
	for i := range rows {
		orders = append(orders, *rows[i].ToDomain())
	}
	return orders, total, nil
}

// CountByStatus returns the number of orders per status
func (r *GormOrderRepository) CountByStatus(ctx context.Context) (map[order.Status]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := conn(ctx, r.db).Model(&models.OrderModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[order.Status]int64, len(rows))
	for _, row := range rows {
		counts[order.Status(row.Status)] = row.Count
	}
	return counts, nil
}

// SumPaidTotals returns the revenue of paid orders
func (r *GormOrderRepository) SumPaidTotals(ctx context.Context) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	if err := conn(ctx, r.db).Model(&models.OrderModel{}).
		Select("SUM(total)").
		Where("payment_status = ?", order.PaymentPaid).
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// Save creates or updates an order. Lines are written once, when the order
// is first stored; they do not change after checkout.
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	model := models.OrderModelFromDomain(o)
	isNew := o.PersistedVersion() == 0
	db := conn(ctx, r.db)
	if !isNew {
		return saveVersioned(db, o, model)
	}

	write := func(tx *gorm.DB) error {
		if err := saveVersioned(tx, o, model); err != nil {
			return err
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return translateError(err)
			}
		}
		return nil
	}
	if _, ok := txFromContext(ctx); ok {
		return write(db)
	}
	return db.Transaction(write)
}

func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter order.Filter) *gorm.DB {
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(number) LIKE ? OR LOWER(guest_email) LIKE ?", pattern, pattern)
	}
	return query
}

var _ order.Repository = (*GormOrderRepository)(nil)
