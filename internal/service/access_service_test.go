package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusphere/core-api/internal/models"
	appErrors "github.com/edusphere/core-api/pkg/errors"
)

const testLessonID = "886313e1-3b8a-4372-9f90-0c95b7a6a3c4"

type mockAccessRepo struct {
	records   []models.AccessHistory
	listTotal int
}

func (m *mockAccessRepo) Create(ctx context.Context, access *models.AccessHistory) error {
	if access.ID == "" {
		access.ID = "generated"
	}
	m.records = append(m.records, *access)
	return nil
}

func (m *mockAccessRepo) FindByID(ctx context.Context, id string) (*models.AccessHistory, error) {
	for _, r := range m.records {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAccessRepo) List(ctx context.Context, filter models.AccessHistoryFilter) ([]models.AccessHistory, int, error) {
	return m.records, m.listTotal, nil
}

type mockEnrollmentReader struct {
	enrollments   map[string]models.Enrollment
	statusUpdates []models.EnrollmentStatus
}

func (m *mockEnrollmentReader) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentReader) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, cancelledAt *time.Time) error {
	m.statusUpdates = append(m.statusUpdates, status)
	e := m.enrollments[id]
	e.Status = status
	m.enrollments[id] = e
	return nil
}

func activeEnrollmentReader(expiresAt *time.Time) *mockEnrollmentReader {
	return &mockEnrollmentReader{enrollments: map[string]models.Enrollment{
		testEnrollmentID: {ID: testEnrollmentID, UserID: testUserID, Status: models.EnrollmentStatusActive, ExpiresAt: expiresAt},
	}}
}

func TestAccessServiceRecord(t *testing.T) {
	repo := &mockAccessRepo{}
	svc := NewAccessService(repo, activeEnrollmentReader(nil), nil, nil)

	lessonID := testLessonID
	access, err := svc.Record(context.Background(), RecordAccessRequest{
		UserID:       testUserID,
		EnrollmentID: testEnrollmentID,
		LessonID:     &lessonID,
	})
	require.NoError(t, err)
	assert.Equal(t, testEnrollmentID, access.EnrollmentID)
	assert.False(t, access.AccessedAt.IsZero())
	assert.Equal(t, 1, len(repo.records))
}

func TestAccessServiceRecordRequiresTarget(t *testing.T) {
	svc := NewAccessService(&mockAccessRepo{}, activeEnrollmentReader(nil), nil, nil)

	_, err := svc.Record(context.Background(), RecordAccessRequest{
		UserID:       testUserID,
		EnrollmentID: testEnrollmentID,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "either lessonId or liveSessionId must be provided", appErr.Message)
}

func TestAccessServiceRecordEnrollmentNotFound(t *testing.T) {
	svc := NewAccessService(&mockAccessRepo{}, &mockEnrollmentReader{}, nil, nil)

	lessonID := testLessonID
	_, err := svc.Record(context.Background(), RecordAccessRequest{
		UserID:       testUserID,
		EnrollmentID: testEnrollmentID,
		LessonID:     &lessonID,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAccessServiceRecordInactiveEnrollment(t *testing.T) {
	enrollments := &mockEnrollmentReader{enrollments: map[string]models.Enrollment{
		testEnrollmentID: {ID: testEnrollmentID, Status: models.EnrollmentStatusPending},
	}}
	svc := NewAccessService(&mockAccessRepo{}, enrollments, nil, nil)

	lessonID := testLessonID
	_, err := svc.Record(context.Background(), RecordAccessRequest{
		UserID:       testUserID,
		EnrollmentID: testEnrollmentID,
		LessonID:     &lessonID,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Equal(t, "enrollment is not active", appErr.Message)
}

func TestAccessServiceRecordExpiresLazily(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	enrollments := activeEnrollmentReader(&past)
	repo := &mockAccessRepo{}
	svc := NewAccessService(repo, enrollments, nil, nil)

	lessonID := testLessonID
	_, err := svc.Record(context.Background(), RecordAccessRequest{
		UserID:       testUserID,
		EnrollmentID: testEnrollmentID,
		LessonID:     &lessonID,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Equal(t, "enrollment has expired", appErr.Message)
	assert.Equal(t, []models.EnrollmentStatus{models.EnrollmentStatusExpired}, enrollments.statusUpdates)
	assert.Empty(t, repo.records)
}

func TestAccessServiceRecordFutureExpiryAllowed(t *testing.T) {
	future := time.Now().UTC().Add(time.Hour)
	repo := &mockAccessRepo{}
	svc := NewAccessService(repo, activeEnrollmentReader(&future), nil, nil)

	lessonID := testLessonID
	_, err := svc.Record(context.Background(), RecordAccessRequest{
		UserID:       testUserID,
		EnrollmentID: testEnrollmentID,
		LessonID:     &lessonID,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, len(repo.records))
}

func TestAccessServiceListPaginationDefaults(t *testing.T) {
	repo := &mockAccessRepo{listTotal: 7}
	svc := NewAccessService(repo, &mockEnrollmentReader{}, nil, nil)

	_, pagination, err := svc.List(context.Background(), models.AccessHistoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 7, pagination.TotalCount)
}
