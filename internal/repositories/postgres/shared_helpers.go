package postgres

import (
	"context"

	"github.com/studyforge/practice-service/internal/models"
	"github.com/studyforge/practice-service/internal/repositories"
	"gorm.io/gorm"
)

// SharedHelpers contains common database operations
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// CountProgressByMode counts a user's progress records in one mode
func (h *SharedHelpers) CountProgressByMode(ctx context.Context, userID string, mode models.PracticeMode) (int64, error) {
	var count int64
	err := h.db.WithContext(ctx).
		Model(&models.ProgressRecord{}).
		Where("user_id = ? AND mode = ?", userID, mode).
		Count(&count).Error
	return count, err
}

// CountResultsByUser counts a user's exam results
func (h *SharedHelpers) CountResultsByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := h.db.WithContext(ctx).
		Model(&models.ResultRecord{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// ApplyTaskFilters applies common filters to task queries
func (h *SharedHelpers) ApplyTaskFilters(query *gorm.DB, filters repositories.TaskFilters) *gorm.DB {
	if filters.Kind != nil {
		query = query.Where("kind = ?", *filters.Kind)
	}
	if filters.SheetTag != nil {
		query = query.Where("sheet_tag = ?", *filters.SheetTag)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	return query
}

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	// Whitelist allowed sort columns
	allowedSortColumns := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"id":         true,
		"kind":       true,
		"points":     true,
		"sheet_tag":  true,
	}

	// Validate and set sort column
	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "id"
	}

	// Validate and set sort order
	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}
