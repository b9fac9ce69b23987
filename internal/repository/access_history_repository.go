package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edusphere/core-api/internal/models"
)

// AccessHistoryRepository handles the append-only log of content accesses.
type AccessHistoryRepository struct {
	db *sqlx.DB
}

// NewAccessHistoryRepository constructs the repository.
func NewAccessHistoryRepository(db *sqlx.DB) *AccessHistoryRepository {
	return &AccessHistoryRepository{db: db}
}

const accessHistoryColumns = `id, user_id, enrollment_id, lesson_id, live_session_id, accessed_at`

// Create appends a new access event. Records are never updated or deleted.
func (r *AccessHistoryRepository) Create(ctx context.Context, access *models.AccessHistory) error {
	if access.ID == "" {
		access.ID = uuid.NewString()
	}
	if access.AccessedAt.IsZero() {
		access.AccessedAt = time.Now().UTC()
	}
	const query = `INSERT INTO access_history (id, user_id, enrollment_id, lesson_id, live_session_id, accessed_at)
        VALUES (:id, :user_id, :enrollment_id, :lesson_id, :live_session_id, :accessed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, access); err != nil {
		return fmt.Errorf("create access history: %w", err)
	}
	return nil
}

// FindByID returns a single access event.
func (r *AccessHistoryRepository) FindByID(ctx context.Context, id string) (*models.AccessHistory, error) {
	query := fmt.Sprintf("SELECT %s FROM access_history WHERE id = $1", accessHistoryColumns)
	var access models.AccessHistory
	if err := r.db.GetContext(ctx, &access, query, id); err != nil {
		return nil, err
	}
	return &access, nil
}

// List returns access events matching all provided filters, newest first.
func (r *AccessHistoryRepository) List(ctx context.Context, filter models.AccessHistoryFilter) ([]models.AccessHistory, int, error) {
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.EnrollmentID != "" {
		conditions = append(conditions, fmt.Sprintf("enrollment_id = $%d", len(args)+1))
		args = append(args, filter.EnrollmentID)
	}
	if filter.LessonID != "" {
		conditions = append(conditions, fmt.Sprintf("lesson_id = $%d", len(args)+1))
		args = append(args, filter.LessonID)
	}
	if filter.LiveSessionID != "" {
		conditions = append(conditions, fmt.Sprintf("live_session_id = $%d", len(args)+1))
		args = append(args, filter.LiveSessionID)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM access_history%s ORDER BY accessed_at DESC LIMIT %d OFFSET %d",
		accessHistoryColumns, clause, size, offset)

	var accesses []models.AccessHistory
	if err := r.db.SelectContext(ctx, &accesses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list access history: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM access_history" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count access history: %w", err)
	}
	return accesses, total, nil
}
