package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/invoice"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const entityInvoice = "invoice"

// GormInvoiceRepository implements invoice.Repository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Create inserts the invoice together with its details and history rows
func (r *GormInvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	model := models.InvoiceModelFromDomain(inv)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError("create invoice", entityInvoice, inv.InvoiceNumber, err)
	}
	return nil
}

// FindByID loads an invoice with details and history
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate loads an invoice and locks its header row until the transaction ends
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	query := r.db.WithContext(ctx)
	if supportsRowLocks(r.db) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.find(query, id)
}

func (r *GormInvoiceRepository) find(query *gorm.DB, id uuid.UUID) (*invoice.Invoice, error) {
	var model models.InvoiceModel
	err := query.
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("changed_at ASC") }).
		First(&model, "id = ?", id).Error
	if err != nil {
		return nil, translateError("find invoice", entityInvoice, id.String(), err)
	}
	return model.ToDomain(), nil
}

// FindNumbersWithPrefix lists invoice numbers starting with prefix
func (r *GormInvoiceRepository) FindNumbersWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Pluck("invoice_number", &numbers).Error
	if err != nil {
		return nil, shared.NewStorageError("list invoice numbers", err)
	}
	return numbers, nil
}

// SaveWithLock saves the header when the stored version still equals inv.Version
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, inv *invoice.Invoice) error {
	if inv.UpdatedAt.IsZero() {
		inv.UpdatedAt = time.Now().UTC()
	}
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ? AND version = ?", inv.ID, inv.Version).
		Updates(map[string]any{
			"status":     inv.Status.String(),
			"note":       inv.Note,
			"version":    inv.Version + 1,
			"updated_at": inv.UpdatedAt,
		})
	if result.Error != nil {
		return shared.NewStorageError("save invoice", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("id = ?", inv.ID).Count(&count).Error; err != nil {
			return shared.NewStorageError("save invoice", err)
		}
		if count == 0 {
			return shared.NewNotFoundError(entityInvoice, inv.ID.String())
		}
		return shared.ErrConcurrencyConflict
	}
	inv.Version++
	return nil
}

// ReplaceDetail deletes one detail row and inserts its replacements
func (r *GormInvoiceRepository) ReplaceDetail(ctx context.Context, detailID uuid.UUID, replacements []invoice.Detail) error {
	db := r.db.WithContext(ctx)
	result := db.Delete(&models.InvoiceDetailModel{}, "id = ?", detailID)
	if result.Error != nil {
		return shared.NewStorageError("replace invoice detail", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("invoice detail", detailID.String())
	}
	if len(replacements) == 0 {
		return nil
	}
	rows := make([]models.InvoiceDetailModel, len(replacements))
	for i := range replacements {
		rows[i] = models.InvoiceDetailModelFromDomain(replacements[i])
	}
	if err := db.Create(&rows).Error; err != nil {
		return translateError("replace invoice detail", "invoice detail", detailID.String(), err)
	}
	return nil
}

// AppendHistory inserts a status history row. Rows are never updated.
func (r *GormInvoiceRepository) AppendHistory(ctx context.Context, entry invoice.StatusHistory) error {
	row := models.InvoiceStatusHistoryModelFromDomain(entry)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return translateError("append invoice history", "invoice history", entry.ID.String(), err)
	}
	return nil
}

// FindHistory returns the status log of an invoice, oldest first
func (r *GormInvoiceRepository) FindHistory(ctx context.Context, invoiceID uuid.UUID) ([]invoice.StatusHistory, error) {
	var rows []models.InvoiceStatusHistoryModel
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("changed_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, shared.NewStorageError("find invoice history", err)
	}
	history := make([]invoice.StatusHistory, len(rows))
	for i := range rows {
		history[i] = rows[i].ToDomain()
	}
	return history, nil
}

// List returns a page of invoices with their details and the total match count
func (r *GormInvoiceRepository) List(ctx context.Context, filter invoice.Filter) ([]*invoice.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, shared.NewStorageError("count invoices", err)
	}

	orderBy := ValidateSortField(filter.OrderBy, InvoiceSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.InvoiceModel
	err := query.
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Find(&rows).Error
	if err != nil {
		return nil, 0, shared.NewStorageError("list invoices", err)
	}
	invoices := make([]*invoice.Invoice, len(rows))
	for i := range rows {
		invoices[i] = rows[i].ToDomain()
	}
	return invoices, total, nil
}

// Ensure GormInvoiceRepository implements invoice.Repository
var _ invoice.Repository = (*GormInvoiceRepository)(nil)
