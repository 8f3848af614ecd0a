package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anonto42/snapgram/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostIndexEntry is the searchable projection of a post
type PostIndexEntry struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Creator   string    `gorm:"size:64;index"`
	Caption   string    `gorm:"type:text"`
	Location  string    `gorm:"type:text"`
	Tags      string    `gorm:"type:text"` // space separated
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// PostgresPostIndex implements backend.PostIndex in PostgreSQL
type PostgresPostIndex struct {
	db *gorm.DB
}

// NewPostgresPostIndex creates a new PostgresPostIndex
func NewPostgresPostIndex(db *gorm.DB) *PostgresPostIndex {
	return &PostgresPostIndex{db: db}
}

// Migrate creates or updates the index table
func (r *PostgresPostIndex) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&PostIndexEntry{}); err != nil {
		return wrap("migrate post index", err)
	}
	return nil
}

// Index inserts or refreshes the entry of a post
func (r *PostgresPostIndex) Index(ctx context.Context, post *models.Post) error {
	entry := PostIndexEntry{
		ID:        post.ID,
		Creator:   post.Creator,
		Caption:   post.Caption,
		Location:  post.Location,
		Tags:      strings.Join(post.Tags, " "),
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"caption", "location", "tags", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return wrap(fmt.Sprintf("index post %s", post.ID), err)
	}
	return nil
}

// Remove deletes the entry of a post
func (r *PostgresPostIndex) Remove(ctx context.Context, postID string) error {
	if err := r.db.WithContext(ctx).Delete(&PostIndexEntry{}, "id = ?", postID).Error; err != nil {
		return wrap(fmt.Sprintf("remove post %s", postID), err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search returns IDs of posts whose caption, location or tags contain term, newest first.
// LIKE wildcards in term match literally.
func (r *PostgresPostIndex) Search(ctx context.Context, term string, limit int) ([]string, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"

	var ids []string
	err := r.db.WithContext(ctx).
		Model(&PostIndexEntry{}).
		Where(`LOWER(caption) LIKE ? ESCAPE '\' OR LOWER(location) LIKE ? ESCAPE '\' OR LOWER(tags) LIKE ? ESCAPE '\'`, pattern, pattern, pattern).
		Order("created_at DESC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, wrap("search posts", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
