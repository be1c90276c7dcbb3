package repository

import (
	"context"

	"github.com/tesseract-hub/storefront-service/internal/models"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, id uint) (*models.Customer, error)
	GetByEmail(ctx context.Context, email string) (*models.Customer, error)
	EmailExists(ctx context.Context, email string, excludeID uint) (bool, error)
	Update(ctx context.Context, customer *models.Customer) error
	List(ctx context.Context, filters CustomerFilters) ([]models.Customer, int64, error)
	SetActive(ctx context.Context, id uint, active bool) error
	Delete(ctx context.Context, id uint) error

	// Balance operations; callers pair each one with a ledger entry
	AddPoints(ctx context.Context, id uint, amount int64) error
	DeductPoints(ctx context.Context, id uint, amount int64) error

	// Historical table
	CreateHistorical(ctx context.Context, historical *models.HistoricalCustomer) error
	HistoricalEmailExists(ctx context.Context, email string) (bool, error)
}

type CustomerFilters struct {
	Search string
	Active *bool
	ListParams
}

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *customerRepository) GetByID(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) EmailExists(ctx context.Context, email string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Customer{}).Where("email = ?", email)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *customerRepository) Update(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Omit("Addresses", "Points").Save(customer).Error
}

func (r *customerRepository) List(ctx context.Context, filters CustomerFilters) ([]models.Customer, int64, error) {
	var customers []models.Customer
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Customer{})
	if filters.Search != "" {
		like := "%" + filters.Search + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ?", like, like)
	}
	if filters.Active != nil {
		query = query.Where("active = ?", *filters.Active)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	filters.Normalize()
	order := orderClause(filters.ListParams, map[string]string{
		"nombre": "name",
		"email":  "email",
		"puntos": "points",
		"fecha":  "created_at",
	}, "created_at")

	err := query.Order(order).Offset(filters.Offset()).Limit(filters.Limit).Find(&customers).Error
	return customers, total, err
}

func (r *customerRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return guarded(r.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", id).Update("active", active))
}

func (r *customerRepository) Delete(ctx context.Context, id uint) error {
	return guarded(r.db.WithContext(ctx).Delete(&models.Customer{}, "id = ?", id))
}

func (r *customerRepository) AddPoints(ctx context.Context, id uint, amount int64) error {
	return guarded(r.db.WithContext(ctx).Model(&models.Customer{}).
		Where("id = ?", id).
		Update("points", gorm.Expr("points + ?", amount)))
}

// DeductPoints only succeeds when the balance covers the amount
func (r *customerRepository) DeductPoints(ctx context.Context, id uint, amount int64) error {
	return guarded(r.db.WithContext(ctx).Model(&models.Customer{}).
		Where("id = ? AND points >= ?", id, amount).
		Update("points", gorm.Expr("points - ?", amount)))
}

func (r *customerRepository) CreateHistorical(ctx context.Context, historical *models.HistoricalCustomer) error {
	return r.db.WithContext(ctx).Create(historical).Error
}

func (r *customerRepository) HistoricalEmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.HistoricalCustomer{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// ==========================================
// ADMINS
// ==========================================

type AdminRepository interface {
	Create(ctx context.Context, admin *models.Admin) error
	GetByID(ctx context.Context, id uint) (*models.Admin, error)
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
	EmailExists(ctx context.Context, email string, excludeID uint) (bool, error)
	Update(ctx context.Context, admin *models.Admin) error
	Count(ctx context.Context) (int64, error)
}

type adminRepository struct {
	db *gorm.DB
}

// NewAdminRepository creates a new admin repository
func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) Create(ctx context.Context, admin *models.Admin) error {
	return r.db.WithContext(ctx).Create(admin).Error
}

func (r *adminRepository) GetByID(ctx context.Context, id uint) (*models.Admin, error) {
	var admin models.Admin
	if err := r.db.WithContext(ctx).First(&admin, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	if err := r.db.WithContext(ctx).First(&admin, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) EmailExists(ctx context.Context, email string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Admin{}).Where("email = ?", email)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *adminRepository) Update(ctx context.Context, admin *models.Admin) error {
	return r.db.WithContext(ctx).Save(admin).Error
}

func (r *adminRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Admin{}).Count(&count).Error
	return count, err
}

// ==========================================
// ADDRESSES
// ==========================================

type AddressRepository interface {
	Create(ctx context.Context, address *models.Address) error
	GetByID(ctx context.Context, id uint) (*models.Address, error)
	ListByCustomer(ctx context.Context, customerID uint) ([]models.Address, error)
	CountByCustomer(ctx context.Context, customerID uint) (int64, error)
	GetPreferred(ctx context.Context, customerID uint) (*models.Address, error)
	Update(ctx context.Context, address *models.Address) error
	ClearDefault(ctx context.Context, customerID uint) error
	Delete(ctx context.Context, id uint) error
}

type addressRepository struct {
	db *gorm.DB
}

// NewAddressRepository creates a new address repository
func NewAddressRepository(db *gorm.DB) AddressRepository {
	return &addressRepository{db: db}
}

func (r *addressRepository) Create(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Create(address).Error
}

func (r *addressRepository) GetByID(ctx context.Context, id uint) (*models.Address, error) {
	var address models.Address
	if err := r.db.WithContext(ctx).First(&address, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *addressRepository) ListByCustomer(ctx context.Context, customerID uint) ([]models.Address, error) {
	var addresses []models.Address
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("is_default DESC, id ASC").
		Find(&addresses).Error
	return addresses, err
}

func (r *addressRepository) CountByCustomer(ctx context.Context, customerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Address{}).Where("customer_id = ?", customerID).Count(&count).Error
	return count, err
}

// GetPreferred returns the default address, or the oldest one when none is flagged
func (r *addressRepository) GetPreferred(ctx context.Context, customerID uint) (*models.Address, error) {
	var address models.Address
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("is_default DESC, id ASC").
		First(&address).Error
	if err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *addressRepository) Update(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Save(address).Error
}

func (r *addressRepository) ClearDefault(ctx context.Context, customerID uint) error {
	return r.db.WithContext(ctx).Model(&models.Address{}).
		Where("customer_id = ? AND is_default = ?", customerID, true).
		Update("is_default", false).Error
}

func (r *addressRepository) Delete(ctx context.Context, id uint) error {
	return guarded(r.db.WithContext(ctx).Delete(&models.Address{}, "id = ?", id))
}
