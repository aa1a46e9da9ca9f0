package usecase

import (
	"context"
	"testing"

	"ecoride/internal/data/entity"
	"ecoride/internal/dto/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rateReq(tripID, rateeID int64, stars int) *request.CreateRatingRequest {
	return &request.CreateRatingRequest{TripID: tripID, RateeID: rateeID, Rating: stars}
}

func TestRatingAverage(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		average float64
	}{
		{"three fives and a one", []int{5, 5, 5, 1}, 4.00},
		{"half star", []int{4, 5}, 4.50},
		{"rounded to two decimals", []int{5, 4, 4}, 4.33},
		{"single", []int{2}, 2.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			driver := f.addUser(t, entity.RoleDriver, 0)
			trip := f.addTrip(t, driver.ID, 4, 10)

			for _, stars := range tt.ratings {
				rater := f.addUser(t, entity.RolePassenger, 0)
				_, err := f.svc.Rating.CreateRating(ctx, actorOf(rater), rateReq(trip.ID, driver.ID, stars))
				require.NoError(t, err)
			}

			got := f.store.user(driver.ID)
			assert.InDelta(t, tt.average, got.AverageRating, 0.0001)
			assert.Equal(t, len(tt.ratings), got.TotalRatings)
		})
	}
}

func TestRecomputeAverageWithoutRatingsLeavesUserUntouched(t *testing.T) {
	f := newFixture(t)
	u := f.addUser(t, entity.RoleDriver, 0)

	require.NoError(t, f.svc.Rating.RecomputeAverage(context.Background(), u.ID))
	got := f.store.user(u.ID)
	assert.Zero(t, got.AverageRating)
	assert.Zero(t, got.TotalRatings)
}

func TestCreateRatingRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	driver := f.addUser(t, entity.RoleDriver, 0)
	p := f.addUser(t, entity.RolePassenger, 0)
	trip := f.addTrip(t, driver.ID, 4, 10)

	_, err := f.svc.Rating.CreateRating(ctx, actorOf(p), rateReq(trip.ID, p.ID, 5))
	assert.ErrorIs(t, err, ErrSelfRating)

	_, err = f.svc.Rating.CreateRating(ctx, actorOf(p), rateReq(trip.ID, driver.ID, 6))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Rating.CreateRating(ctx, actorOf(p), rateReq(9999, driver.ID, 5))
	assert.ErrorIs(t, err, ErrTripNotFound)

	_, err = f.svc.Rating.CreateRating(ctx, actorOf(p), rateReq(trip.ID, 9999, 5))
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.svc.Rating.CreateRating(ctx, actorOf(p), rateReq(trip.ID, driver.ID, 5))
	require.NoError(t, err)
	_, err = f.svc.Rating.CreateRating(ctx, actorOf(p), rateReq(trip.ID, driver.ID, 4))
	assert.ErrorIs(t, err, ErrAlreadyRated)
}

func TestModerateRating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	driver := f.addUser(t, entity.RoleDriver, 0)
	p1 := f.addUser(t, entity.RolePassenger, 0)
	p2 := f.addUser(t, entity.RolePassenger, 0)
	employee := f.addUser(t, entity.RoleEmployee, 0)
	trip := f.addTrip(t, driver.ID, 4, 10)

	good, err := f.svc.Rating.CreateRating(ctx, actorOf(p1), rateReq(trip.ID, driver.ID, 5))
	require.NoError(t, err)
	assert.Nil(t, good.IsApproved)
	bad, err := f.svc.Rating.CreateRating(ctx, actorOf(p2), rateReq(trip.ID, driver.ID, 1))
	require.NoError(t, err)

	pending, err := f.svc.Rating.ListPendingRatings(ctx, &request.PaginatedRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, pending.Pagination.Total)

	_, err = f.svc.Rating.ApproveRating(ctx, actorOf(p1), good.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	approved, err := f.svc.Rating.ApproveRating(ctx, actorOf(employee), good.ID)
	require.NoError(t, err)
	require.NotNil(t, approved.IsApproved)
	assert.True(t, *approved.IsApproved)
	require.NotNil(t, approved.ModeratedBy)
	assert.Equal(t, employee.ID, *approved.ModeratedBy)
	assert.NotNil(t, approved.ModeratedAt)
	assert.Len(t, f.store.notificationsFor(driver.ID), 1)

	rejected, err := f.svc.Rating.RejectRating(ctx, actorOf(employee), bad.ID)
	require.NoError(t, err)
	require.NotNil(t, rejected.IsApproved)
	assert.False(t, *rejected.IsApproved)
	assert.Len(t, f.store.notificationsFor(driver.ID), 1)

	_, err = f.svc.Rating.ApproveRating(ctx, actorOf(employee), 9999)
	assert.ErrorIs(t, err, ErrRatingNotFound)

	// moderation does not change the aggregate
	got := f.store.user(driver.ID)
	assert.InDelta(t, 3.0, got.AverageRating, 0.0001)
	assert.Equal(t, 2, got.TotalRatings)

	public, err := f.svc.Rating.ListRatingsForUser(ctx, driver.ID)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, good.ID, public[0].ID)
}
