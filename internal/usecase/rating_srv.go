package usecase

import (
	"context"
	"fmt"
	"time"

	"ecoride/internal/data/entity"
	"ecoride/internal/data/repository"
	"ecoride/internal/dto/request"
	"ecoride/internal/dto/response"
	"ecoride/internal/events"
	"ecoride/pkg/utils"

	"go.uber.org/zap"
)

type RatingService interface {
	CreateRating(ctx context.Context, actor Actor, req *request.CreateRatingRequest) (*response.RatingResponse, error)
	ListRatingsForUser(ctx context.Context, rateeID int64) ([]response.RatingResponse, error)

	// Moderation, employees and admins only
	ListPendingRatings(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.RatingResponse], error)
	ApproveRating(ctx context.Context, actor Actor, ratingID int64) (*response.RatingResponse, error)
	RejectRating(ctx context.Context, actor Actor, ratingID int64) (*response.RatingResponse, error)

	// RecomputeAverage refreshes the user's rating aggregate from every rating
	// they have received, moderated or not.
	RecomputeAverage(ctx context.Context, userID int64) error
}

type ratingService struct {
	repo      *repository.Repository
	notifier  NotificationService
	publisher events.Publisher
	now       func() time.Time
	log       *zap.Logger
}

func NewRatingService(repo *repository.Repository, notifier NotificationService, publisher events.Publisher, log *zap.Logger) RatingService {
	return &ratingService{
		repo:      repo,
		notifier:  notifier,
		publisher: publisher,
		now:       time.Now,
		log:       log.With(zap.String("service", "rating")),
	}
}

func (s *ratingService) CreateRating(ctx context.Context, actor Actor, req *request.CreateRatingRequest) (*response.RatingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create rating validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	if req.RateeID == actor.ID {
		return nil, ErrSelfRating
	}

	trip, err := s.repo.Trip.FindByID(ctx, req.TripID)
	if err != nil {
		return nil, fmt.Errorf("find trip: %w", err)
	}
	if trip == nil {
		return nil, fmt.Errorf("%w: %d", ErrTripNotFound, req.TripID)
	}

	ratee, err := s.repo.User.FindByID(ctx, req.RateeID)
	if err != nil {
		return nil, fmt.Errorf("find ratee: %w", err)
	}
	if ratee == nil {
		return nil, fmt.Errorf("%w: %d", ErrUserNotFound, req.RateeID)
	}

	exists, err := s.repo.Rating.ExistsForTrip(ctx, req.TripID, actor.ID, req.RateeID)
	if err != nil {
		return nil, fmt.Errorf("check existing rating: %w", err)
	}
	if exists {
		return nil, ErrAlreadyRated
	}

	rating := &entity.Rating{
		TripID:  req.TripID,
		RaterID: actor.ID,
		RateeID: req.RateeID,
		Rating:  req.Rating,
		Comment: req.Comment,
	}

	if err := s.repo.Rating.Create(ctx, rating); err != nil {
		return nil, fmt.Errorf("create rating: %w", err)
	}

	// The rating is stored either way; a failed recompute is caught up by the next rating.
	if err := s.RecomputeAverage(ctx, req.RateeID); err != nil {
		s.log.Error("Failed to recompute average", zap.Error(err), zap.Int64("ratee_id", req.RateeID))
	}

	s.log.Info("Rating created",
		zap.Int64("rating_id", rating.ID),
		zap.Int64("ratee_id", rating.RateeID),
		zap.Int("rating", rating.Rating),
	)
	publish(ctx, s.publisher, s.log, events.RatingCreated, map[string]any{
		"rating_id": rating.ID,
		"trip_id":   rating.TripID,
		"ratee_id":  rating.RateeID,
		"rating":    rating.Rating,
	})

	resp := response.RatingToResponse(rating)
	return &resp, nil
}

func (s *ratingService) RecomputeAverage(ctx context.Context, userID int64) error {
	average, count, err := s.repo.Rating.RateeStats(ctx, userID)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}

	return s.repo.User.UpdateRatingStats(ctx, userID, utils.Round2(average), count)
}

func (s *ratingService) ListRatingsForUser(ctx context.Context, rateeID int64) ([]response.RatingResponse, error) {
	ratings, err := s.repo.Rating.FindByRateeID(ctx, rateeID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}

	// only approved ratings are public
	resp := make([]response.RatingResponse, 0, len(ratings))
	for _, r := range ratings {
		if r.IsApproved != nil && *r.IsApproved {
			resp = append(resp, response.RatingToResponse(r))
		}
	}
	return resp, nil
}

func (s *ratingService) ListPendingRatings(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.RatingResponse], error) {
	if req.Page < 1 {
		req.Page = 1
	}
	req.PerPage = req.Limit()

	ratings, err := s.repo.Rating.FindPending(ctx, req.PerPage, req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list pending ratings: %w", err)
	}

	total, err := s.repo.Rating.CountPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("count pending ratings: %w", err)
	}

	resp := make([]response.RatingResponse, len(ratings))
	for i, r := range ratings {
		resp[i] = response.RatingToResponse(r)
	}

	return response.NewPaginatedResponse(resp, req.Page, req.PerPage, total), nil
}

func (s *ratingService) ApproveRating(ctx context.Context, actor Actor, ratingID int64) (*response.RatingResponse, error) {
	return s.moderate(ctx, actor, ratingID, true)
}

func (s *ratingService) RejectRating(ctx context.Context, actor Actor, ratingID int64) (*response.RatingResponse, error) {
	return s.moderate(ctx, actor, ratingID, false)
}

func (s *ratingService) moderate(ctx context.Context, actor Actor, ratingID int64, approved bool) (*response.RatingResponse, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("%w: moderation requires an employee account", ErrForbidden)
	}

	rating, err := s.repo.Rating.SetApproval(ctx, ratingID, approved, actor.ID, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("moderate rating: %w", err)
	}
	if rating == nil {
		return nil, fmt.Errorf("%w: %d", ErrRatingNotFound, ratingID)
	}

	s.log.Info("Rating moderated",
		zap.Int64("rating_id", ratingID),
		zap.Bool("approved", approved),
		zap.Int64("moderator_id", actor.ID),
	)
	publish(ctx, s.publisher, s.log, events.RatingModerated, map[string]any{
		"rating_id":    rating.ID,
		"ratee_id":     rating.RateeID,
		"approved":     approved,
		"moderated_by": actor.ID,
	})

	if approved {
		s.notifier.Notify(ctx, rating.RateeID, entity.NotificationRating, "New rating",
			fmt.Sprintf("You received a %d-star rating.", rating.Rating))
	}

	resp := response.RatingToResponse(rating)
	return &resp, nil
}
