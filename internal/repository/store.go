package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrConditionNotMet is returned by guarded updates that matched no row
var ErrConditionNotMet = errors.New("update condition not met")

// Store bundles every repository bound to the same database handle
type Store struct {
	Customers  CustomerRepository
	Admins     AdminRepository
	Addresses  AddressRepository
	Categories CategoryRepository
	Products   ProductRepository
	Carts      CartRepository
	Wishlists  WishlistRepository
	Designs    DesignRepository
	Orders     OrderRepository
	Payments   PaymentRepository
	Points     PointsRepository
	Recovery   RecoveryRepository
	Sessions   SessionRepository
	Reports    ReportRepository
}

// NewStore creates all repositories on top of db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		Customers:  NewCustomerRepository(db),
		Admins:     NewAdminRepository(db),
		Addresses:  NewAddressRepository(db),
		Categories: NewCategoryRepository(db),
		Products:   NewProductRepository(db),
		Carts:      NewCartRepository(db),
		Wishlists:  NewWishlistRepository(db),
		Designs:    NewDesignRepository(db),
		Orders:     NewOrderRepository(db),
		Payments:   NewPaymentRepository(db),
		Points:     NewPointsRepository(db),
		Recovery:   NewRecoveryRepository(db),
		Sessions:   NewSessionRepository(db),
		Reports:    NewReportRepository(db),
	}
}

// TxManager runs a unit of work inside a single database transaction
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(tx *Store) error) error
}

type gormTxManager struct {
	db *gorm.DB
}

// NewTxManager creates a transaction manager backed by gorm
func NewTxManager(db *gorm.DB) TxManager {
	return &gormTxManager{db: db}
}

func (m *gormTxManager) WithinTransaction(ctx context.Context, fn func(tx *Store) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// ListParams holds the pagination and ordering shared by list queries
type ListParams struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Normalize clamps the page and limit into usable values
func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
}

// Offset returns the row offset of the current page
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// orderClause builds a safe ORDER BY from a whitelist of sortable columns
func orderClause(p ListParams, allowed map[string]string, fallback string) string {
	column, ok := allowed[p.SortBy]
	if !ok {
		column = fallback
	}
	direction := "DESC"
	if strings.EqualFold(p.SortOrder, "asc") {
		direction = "ASC"
	}
	return fmt.Sprintf("%s %s", column, direction)
}

// guarded converts an update result into ErrConditionNotMet when nothing matched
func guarded(result *gorm.DB) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConditionNotMet
	}
	return nil
}
