package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/inventory"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const entityBatch = "shipment batch"

// GormShipmentBatchRepository implements ShipmentBatchRepository using GORM
type GormShipmentBatchRepository struct {
	db *gorm.DB
}

// NewGormShipmentBatchRepository creates a new GormShipmentBatchRepository
func NewGormShipmentBatchRepository(db *gorm.DB) *GormShipmentBatchRepository {
	return &GormShipmentBatchRepository{db: db}
}

// Create inserts a batch; a clashing batch code yields shared.ErrAlreadyExists
func (r *GormShipmentBatchRepository) Create(ctx context.Context, batch *inventory.ShipmentBatch) error {
	model := models.ShipmentBatchModelFromDomain(batch)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError("create shipment batch", entityBatch, batch.BatchCode, err)
	}
	return nil
}

// FindByID finds a batch by its ID
func (r *GormShipmentBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.ShipmentBatch, error) {
	var model models.ShipmentBatchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError("find shipment batch", entityBatch, id.String(), err)
	}
	return model.ToDomain(), nil
}

// FindByCode finds a batch by its batch code
func (r *GormShipmentBatchRepository) FindByCode(ctx context.Context, code string) (*inventory.ShipmentBatch, error) {
	var model models.ShipmentBatchModel
	if err := r.db.WithContext(ctx).First(&model, "batch_code = ?", code).Error; err != nil {
		return nil, translateError("find shipment batch by code", entityBatch, code, err)
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the batches that exist among ids
func (r *GormShipmentBatchRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*inventory.ShipmentBatch, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.ShipmentBatchModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, shared.NewStorageError("find shipment batches", err)
	}
	return toBatches(rows), nil
}

// FindAvailable returns batches with stock for key, oldest import first
func (r *GormShipmentBatchRepository) FindAvailable(ctx context.Context, key inventory.StockKey) ([]*inventory.ShipmentBatch, error) {
	return r.findAvailable(r.db.WithContext(ctx), key)
}

// FindAvailableForUpdate is FindAvailable holding row locks for the surrounding transaction.
// SQLite serializes writers on its own and has no FOR UPDATE.
func (r *GormShipmentBatchRepository) FindAvailableForUpdate(ctx context.Context, key inventory.StockKey) ([]*inventory.ShipmentBatch, error) {
	query := r.db.WithContext(ctx)
	if supportsRowLocks(r.db) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.findAvailable(query, key)
}

func (r *GormShipmentBatchRepository) findAvailable(query *gorm.DB, key inventory.StockKey) ([]*inventory.ShipmentBatch, error) {
	var rows []models.ShipmentBatchModel
	err := query.
		Where("product_id = ? AND variant_slug = ? AND remaining_quantity > 0", key.ProductID, key.VariantSlug).
		Order("imported_at ASC, batch_code ASC").
		Find(&rows).Error
	if err != nil {
		return nil, shared.NewStorageError("find available batches", err)
	}
	return toBatches(rows), nil
}

// FindCodesWithPrefix lists batch codes starting with prefix
func (r *GormShipmentBatchRepository) FindCodesWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&models.ShipmentBatchModel{}).
		Where("batch_code LIKE ?", prefix+"%").
		Pluck("batch_code", &codes).Error
	if err != nil {
		return nil, shared.NewStorageError("list batch codes", err)
	}
	return codes, nil
}

// DecrementRemaining subtracts quantity only while enough remains
func (r *GormShipmentBatchRepository) DecrementRemaining(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return shared.NewValidationError("decrement quantity must be positive")
	}
	result := r.db.WithContext(ctx).
		Model(&models.ShipmentBatchModel{}).
		Where("id = ? AND remaining_quantity >= ?", id, quantity).
		Updates(map[string]any{
			"remaining_quantity": gorm.Expr("remaining_quantity - ?", quantity),
			"version":            gorm.Expr("version + 1"),
			"updated_at":         time.Now().UTC(),
		})
	return r.guardedUpdateResult(ctx, "decrement batch remaining", id, result)
}

// IncrementRemaining adds quantity only while remaining stays within the imported quantity
func (r *GormShipmentBatchRepository) IncrementRemaining(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return shared.NewValidationError("increment quantity must be positive")
	}
	result := r.db.WithContext(ctx).
		Model(&models.ShipmentBatchModel{}).
		Where("id = ? AND remaining_quantity + ? <= imported_quantity", id, quantity).
		Updates(map[string]any{
			"remaining_quantity": gorm.Expr("remaining_quantity + ?", quantity),
			"version":            gorm.Expr("version + 1"),
			"updated_at":         time.Now().UTC(),
		})
	return r.guardedUpdateResult(ctx, "increment batch remaining", id, result)
}

// guardedUpdateResult tells a missing row apart from a failed guard.
func (r *GormShipmentBatchRepository) guardedUpdateResult(ctx context.Context, op string, id uuid.UUID, result *gorm.DB) error {
	if result.Error != nil {
		return shared.NewStorageError(op, result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ShipmentBatchModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return shared.NewStorageError(op, err)
	}
	if count == 0 {
		return shared.NewNotFoundError(entityBatch, id.String())
	}
	return shared.ErrConcurrencyConflict
}

// List returns a page of batches and the total match count
func (r *GormShipmentBatchRepository) List(ctx context.Context, filter inventory.BatchFilter) ([]*inventory.ShipmentBatch, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ShipmentBatchModel{})
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.VariantSlug != "" {
		query = query.Where("variant_slug = ?", filter.VariantSlug)
	}
	if filter.AvailableOnly {
		query = query.Where("remaining_quantity > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, shared.NewStorageError("count shipment batches", err)
	}

	orderBy := ValidateSortField(filter.OrderBy, ShipmentBatchSortFields, "imported_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir)).Order("batch_code ASC")
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.ShipmentBatchModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, shared.NewStorageError("list shipment batches", err)
	}
	return toBatches(rows), total, nil
}

func toBatches(rows []models.ShipmentBatchModel) []*inventory.ShipmentBatch {
	batches := make([]*inventory.ShipmentBatch, len(rows))
	for i := range rows {
		batches[i] = rows[i].ToDomain()
	}
	return batches
}

// Ensure GormShipmentBatchRepository implements ShipmentBatchRepository
var _ inventory.ShipmentBatchRepository = (*GormShipmentBatchRepository)(nil)
