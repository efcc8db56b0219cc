package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/nearby/backend/internal/models"
	"gorm.io/gorm"
)

// ReactionRepository defines the interface for reaction data operations
type ReactionRepository interface {
	FindReaction(ctx context.Context, userID uint, postID string) (*models.Reaction, error)
	CreateReaction(ctx context.Context, reaction *models.Reaction) error
	UpdateReactionKind(ctx context.Context, id uint, from, to models.ReactionKind) (bool, error)
	DeleteReaction(ctx context.Context, id uint) (bool, error)
	GetReactionsByPostIDs(ctx context.Context, postIDs []string) ([]models.Reaction, error)
}

// PostgresReactionRepository implements ReactionRepository for PostgreSQL
type PostgresReactionRepository struct {
	db *gorm.DB
}

// NewPostgresReactionRepository creates a new PostgresReactionRepository
func NewPostgresReactionRepository(db *gorm.DB) *PostgresReactionRepository {
	return &PostgresReactionRepository{db: db}
}

// FindReaction returns the user's reaction on a post, or nil when there is none.
func (r *PostgresReactionRepository) FindReaction(ctx context.Context, userID uint, postID string) (*models.Reaction, error) {
	var reaction models.Reaction
	err := r.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).Take(&reaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

// CreateReaction inserts a reaction. A concurrent insert for the same
// (user, post) surfaces as ErrDuplicate through the composite unique index.
func (r *PostgresReactionRepository) CreateReaction(ctx context.Context, reaction *models.Reaction) error {
	err := r.db.WithContext(ctx).Create(reaction).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

// UpdateReactionKind flips a reaction's kind only if it still has kind from.
// It reports false when the row changed or disappeared underneath.
func (r *PostgresReactionRepository) UpdateReactionKind(ctx context.Context, id uint, from, to models.ReactionKind) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Reaction{}).
		Where("id = ? AND type = ?", id, from).
		Updates(map[string]interface{}{"type": to, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteReaction deletes a reaction by id and reports whether a row was removed.
func (r *PostgresReactionRepository) DeleteReaction(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Reaction{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// GetReactionsByPostIDs retrieves every reaction on the given posts in one query
func (r *PostgresReactionRepository) GetReactionsByPostIDs(ctx context.Context, postIDs []string) ([]models.Reaction, error) {
	reactions := make([]models.Reaction, 0)
	if len(postIDs) == 0 {
		return reactions, nil
	}
	if err := r.db.WithContext(ctx).Where("post_id IN ?", postIDs).Order("created_at ASC").Find(&reactions).Error; err != nil {
		return nil, err
	}
	return reactions, nil
}
