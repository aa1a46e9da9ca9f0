package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecoride/internal/data/entity"
	"ecoride/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type RatingRepository interface {
	Create(ctx context.Context, rating *entity.Rating) error
	FindByID(ctx context.Context, id int64) (*entity.Rating, error)
	FindByRateeID(ctx context.Context, rateeID int64) ([]*entity.Rating, error)
	FindPending(ctx context.Context, limit, offset int) ([]*entity.Rating, error)
	CountPending(ctx context.Context) (int64, error)
	ExistsForTrip(ctx context.Context, tripID, raterID, rateeID int64) (bool, error)
	SetApproval(ctx context.Context, id int64, approved bool, moderatorID int64, at time.Time) (*entity.Rating, error)

	// RateeStats returns the mean and count of every rating received by rateeID.
	RateeStats(ctx context.Context, rateeID int64) (float64, int, error)
}

const ratingColumns = `id, trip_id, rater_id, ratee_id, rating, comment, is_approved,
	moderated_by, moderated_at, created_at`

type ratingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewRatingRepository(db database.PgxIface, log *zap.Logger) RatingRepository {
	return &ratingRepository{
		db:  db,
		log: log.With(zap.String("repository", "rating")),
	}
}

func scanRating(row pgx.Row) (*entity.Rating, error) {
	var rating entity.Rating
	err := row.Scan(
		&rating.ID,
		&rating.TripID,
		&rating.RaterID,
		&rating.RateeID,
		&rating.Rating,
		&rating.Comment,
		&rating.IsApproved,
		&rating.ModeratedBy,
		&rating.ModeratedAt,
		&rating.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

func (r *ratingRepository) scanAll(rows pgx.Rows) ([]*entity.Rating, error) {
	defer rows.Close()

	var ratings []*entity.Rating
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			r.log.Error("Failed to scan rating row", zap.Error(err))
			return nil, fmt.Errorf("scan rating row: %w", err)
		}
		ratings = append(ratings, rating)
	}
	return ratings, rows.Err()
}

func (r *ratingRepository) Create(ctx context.Context, rating *entity.Rating) error {
	query := `
		INSERT INTO ratings (trip_id, rater_id, ratee_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		rating.TripID,
		rating.RaterID,
		rating.RateeID,
		rating.Rating,
		rating.Comment,
	).Scan(&rating.ID, &rating.CreatedAt)
	if err != nil {
		r.log.Error("Failed to create rating",
			zap.Error(err),
			zap.Int64("trip_id", rating.TripID),
			zap.Int64("ratee_id", rating.RateeID),
		)
		return fmt.Errorf("create rating for user %d: %w", rating.RateeID, err)
	}

	return nil
}

func (r *ratingRepository) FindByID(ctx context.Context, id int64) (*entity.Rating, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE id = $1`

	rating, err := scanRating(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find rating by ID", zap.Error(err), zap.Int64("rating_id", id))
		return nil, fmt.Errorf("find rating by ID %d: %w", id, err)
	}
	return rating, nil
}

func (r *ratingRepository) FindByRateeID(ctx context.Context, rateeID int64) ([]*entity.Rating, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE ratee_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, rateeID)
	if err != nil {
		r.log.Error("Failed to find ratings by ratee", zap.Error(err), zap.Int64("ratee_id", rateeID))
		return nil, fmt.Errorf("find ratings by ratee %d: %w", rateeID, err)
	}
	return r.scanAll(rows)
}

func (r *ratingRepository) FindPending(ctx context.Context, limit, offset int) ([]*entity.Rating, error) {
	query := `
		SELECT ` + ratingColumns + `
		FROM ratings
		WHERE is_approved IS NULL
		ORDER BY created_at
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.log.Error("Failed to find pending ratings", zap.Error(err))
		return nil, fmt.Errorf("find pending ratings: %w", err)
	}
	return r.scanAll(rows)
}

func (r *ratingRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM ratings WHERE is_approved IS NULL`).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count pending ratings", zap.Error(err))
		return 0, fmt.Errorf("count pending ratings: %w", err)
	}
	return count, nil
}

func (r *ratingRepository) ExistsForTrip(ctx context.Context, tripID, raterID, rateeID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM ratings WHERE trip_id = $1 AND rater_id = $2 AND ratee_id = $3
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, tripID, raterID, rateeID).Scan(&exists); err != nil {
		r.log.Error("Failed to check existing rating", zap.Error(err), zap.Int64("trip_id", tripID))
		return false, fmt.Errorf("check rating on trip %d: %w", tripID, err)
	}
	return exists, nil
}

// SetApproval records a moderation decision. It returns nil, nil when the
// rating does not exist.
func (r *ratingRepository) SetApproval(ctx context.Context, id int64, approved bool, moderatorID int64, at time.Time) (*entity.Rating, error) {
	query := `
		UPDATE ratings
		SET is_approved = $2, moderated_by = $3, moderated_at = $4
		WHERE id = $1
		RETURNING ` + ratingColumns

	rating, err := scanRating(r.db.QueryRow(ctx, query, id, approved, moderatorID, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to moderate rating",
			zap.Error(err),
			zap.Int64("rating_id", id),
			zap.Bool("approved", approved),
		)
		return nil, fmt.Errorf("moderate rating %d: %w", id, err)
	}
	return rating, nil
}

func (r *ratingRepository) RateeStats(ctx context.Context, rateeID int64) (float64, int, error) {
	query := `
		SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*)
		FROM ratings
		WHERE ratee_id = $1
	`

	var (
		average float64
		count   int
	)
	if err := r.db.QueryRow(ctx, query, rateeID).Scan(&average, &count); err != nil {
		r.log.Error("Failed to compute rating stats", zap.Error(err), zap.Int64("ratee_id", rateeID))
		return 0, 0, fmt.Errorf("compute rating stats for user %d: %w", rateeID, err)
	}
	return average, count, nil
}
