package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supporthub/backend-go/internal/errors"
)

func countRow(n int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func TestGetSummary(t *testing.T) {
	db, mock := newMockDB(t)
	service := &AnalyticsService{db: db}

	mock.ExpectQuery(`SELECT count\(\*\) FROM "conversations"`).WillReturnRows(countRow(12))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "conversations"`).WillReturnRows(countRow(5))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "conversations"`).WillReturnRows(countRow(2))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "messages"`).WillReturnRows(countRow(7))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "messages"`).WillReturnRows(countRow(3))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "training_records"`).WillReturnRows(countRow(4))
	mock.ExpectQuery(`SELECT AVG\(confidence_score\) FROM "messages"`).
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(0.72))

	summary, err := service.GetSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), summary.TotalConversations)
	assert.Equal(t, int64(2), summary.EscalatedConversations)
	assert.Equal(t, int64(7), summary.AutoSentDrafts)
	assert.Equal(t, 0.72, summary.AvgConfidenceScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// 任何一条聚合查询失败都必须报错，而不是静默填零
func TestGetSummary_CountErrorPropagates(t *testing.T) {
	db, mock := newMockDB(t)
	service := &AnalyticsService{db: db}

	mock.ExpectQuery(`SELECT count\(\*\) FROM "conversations"`).WillReturnRows(countRow(12))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "conversations"`).WillReturnError(assert.AnError)

	_, err := service.GetSummary(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
}

func TestGetSummary_AvgErrorPropagates(t *testing.T) {
	db, mock := newMockDB(t)
	service := &AnalyticsService{db: db}

	mock.ExpectQuery(`SELECT count\(\*\) FROM "conversations"`).WillReturnRows(countRow(1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "conversations"`).WillReturnRows(countRow(1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "conversations"`).WillReturnRows(countRow(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "messages"`).WillReturnRows(countRow(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "messages"`).WillReturnRows(countRow(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "training_records"`).WillReturnRows(countRow(0))
	mock.ExpectQuery(`SELECT AVG\(confidence_score\) FROM "messages"`).
		WillReturnError(assert.AnError)

	_, err := service.GetSummary(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
}

func TestRollupDaily_CountErrorPropagates(t *testing.T) {
	db, mock := newMockDB(t)
	service := &AnalyticsService{db: db}

	mock.ExpectQuery(`SELECT count\(\*\) FROM "conversations"`).WillReturnError(assert.AnError)

	_, err := service.RollupDaily(context.Background(), time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
}
