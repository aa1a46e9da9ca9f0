package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"ecoride/internal/data/entity"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var tripRowColumns = []string{
	"id", "driver_id", "departure", "destination", "departure_time", "arrival_time",
	"available_seats", "total_seats", "price_per_seat", "description", "status", "is_active",
	"started_at", "completed_at", "created_at", "updated_at",
}

func TestTransitionStartsOwnedTrip(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTripRepository(mock, zaptest.NewLogger(t))
	at := time.Date(2030, 6, 1, 8, 5, 0, 0, time.UTC)
	departure := time.Date(2030, 6, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE t.id = $1 AND t.driver_id = $2")).
		WithArgs(int64(10), int64(8), "started", at).
		WillReturnRows(pgxmock.NewRows(tripRowColumns).AddRow(
			int64(10), int64(8), "Paris", "Lyon", departure, departure.Add(4*time.Hour),
			3, 4, 15.0, (*string)(nil), entity.TripStatusStarted, true,
			&at, (*time.Time)(nil), departure, at,
		))

	trip, err := repo.Transition(context.Background(), 10, 8, entity.TripStatusStarted, at)
	require.NoError(t, err)
	require.NotNil(t, trip)

	assert.Equal(t, entity.TripStatusStarted, trip.Status)
	require.NotNil(t, trip.StartedAt)
	assert.Equal(t, at, *trip.StartedAt)
	assert.Nil(t, trip.CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionIgnoresForeignTrip(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTripRepository(mock, zaptest.NewLogger(t))
	at := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE trips t")).
		WithArgs(int64(10), int64(99), "completed", at).
		WillReturnRows(pgxmock.NewRows(tripRowColumns))

	trip, err := repo.Transition(context.Background(), 10, 99, entity.TripStatusCompleted, at)

	assert.NoError(t, err)
	assert.Nil(t, trip)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateStale(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTripRepository(mock, zaptest.NewLogger(t))
	cutoff := time.Now().Add(-24 * time.Hour)

	mock.ExpectExec(regexp.QuoteMeta("SET is_active = FALSE")).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	count, err := repo.DeactivateStale(context.Background(), cutoff)
	require.NoError(t, err)

	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
