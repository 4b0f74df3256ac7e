package sqlite

import (
	"context"

	"automanager/internal/domain/entity"
	domainerrors "automanager/internal/domain/errors"
	"automanager/internal/domain/repository"
	"automanager/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// historyRepository implements the domain.HistoryRepository interface using
// GORM. The table is append-only: no update or delete is exposed.
type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository is the constructor for historyRepository.
func NewHistoryRepository(db *gorm.DB) repository.HistoryRepository {
	return &historyRepository{db: db}
}

// Append writes a new history entry.
func (repo *historyRepository) Append(ctx context.Context, entry *entity.HistoryEntry) error {
	entryM := fromHistoryDomain(entry)

	if err := repo.db.WithContext(ctx).Create(entryM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to append history entry")
	}

	entry.ID = entryM.ID

	return nil
}

// ListByOrder returns the history of an order, most recent first.
func (repo *historyRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*entity.HistoryEntry, error) {
	var models []model.HistoryModel
	if err := repo.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("recorded_at DESC").
		Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list history entries")
	}

	entries := make([]*entity.HistoryEntry, 0, len(models))
	for i := range models {
		entries = append(entries, toHistoryDomain(&models[i]))
	}

	return entries, nil
}

// --- Mapper Functions ---

func toHistoryDomain(data *model.HistoryModel) *entity.HistoryEntry {
	if data == nil {
		return nil
	}

	return &entity.HistoryEntry{
		ID:          data.ID,
		OrderID:     data.OrderID,
		RecordedAt:  data.RecordedAt,
		Actor:       data.Actor,
		Action:      entity.HistoryAction(data.Action),
		Status:      entity.OrderStatus(data.Status),
		Priority:    entity.OrderPriority(data.Priority),
		Mechanic:    data.Mechanic,
		Value:       data.Value,
		Description: data.Description,
	}
}

func fromHistoryDomain(data *entity.HistoryEntry) *model.HistoryModel {
	if data == nil {
		return nil
	}

	return &model.HistoryModel{
		ID:          data.ID,
		OrderID:     data.OrderID,
		RecordedAt:  data.RecordedAt,
		Actor:       data.Actor,
		Action:      string(data.Action),
		Status:      string(data.Status),
		Priority:    string(data.Priority),
		Mechanic:    data.Mechanic,
		Value:       data.Value,
		Description: data.Description,
	}
}
