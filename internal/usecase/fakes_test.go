package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"ecoride/internal/data/entity"
	"ecoride/internal/data/repository"
	"ecoride/pkg/utils"

	"go.uber.org/zap/zaptest"
)

// store is an in-memory stand-in for PostgreSQL shared by the fake repositories.
type store struct {
	mu            sync.Mutex
	nextID        int64
	users         map[int64]*entity.User
	trips         map[int64]*entity.Trip
	bookings      map[int64]*entity.Booking
	ratings       map[int64]*entity.Rating
	notifications map[int64]*entity.Notification
}

func newStore() *store {
	return &store{
		users:         make(map[int64]*entity.User),
		trips:         make(map[int64]*entity.Trip),
		bookings:      make(map[int64]*entity.Booking),
		ratings:       make(map[int64]*entity.Rating),
		notifications: make(map[int64]*entity.Notification),
	}
}

func (s *store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *store) repository() *repository.Repository {
	return &repository.Repository{
		User:         &fakeUserRepo{s},
		Trip:         &fakeTripRepo{s},
		Booking:      &fakeBookingRepo{s},
		Rating:       &fakeRatingRepo{s},
		Notification: &fakeNotificationRepo{s},
	}
}

func (s *store) user(id int64) entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.users[id]
}

func (s *store) trip(id int64) entity.Trip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.trips[id]
}

func (s *store) booking(id int64) entity.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.bookings[id]
}

func (s *store) userCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *store) bookingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

func (s *store) notificationsFor(userID int64) []entity.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out
}

// ---- users ----

type fakeUserRepo struct{ s *store }

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.ExternalID == user.ExternalID || strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("duplicate key value violates unique constraint")
		}
	}
	user.ID = r.s.id()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id int64) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) find(match func(*entity.User) bool) *entity.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			cp := *u
			return &cp
		}
	}
	return nil
}

func (r *fakeUserRepo) FindByExternalID(_ context.Context, externalID string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.ExternalID == externalID }), nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

func (r *fakeUserRepo) FindAll(_ context.Context, limit, offset int) ([]*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*entity.User
	for _, u := range r.s.users {
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *fakeUserRepo) CountAll(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.users)), nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.users[user.ID]
	if !ok {
		return fmt.Errorf("user %d not found", user.ID)
	}
	stored.Email = user.Email
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.Phone = user.Phone
	stored.Role = user.Role
	stored.IsVerified = user.IsVerified
	stored.IsSuspended = user.IsSuspended
	stored.PasswordHash = user.PasswordHash
	stored.UpdatedAt = time.Now()
	user.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *fakeUserRepo) UpdateRatingStats(_ context.Context, id int64, average float64, total int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return fmt.Errorf("user %d not found", id)
	}
	u.AverageRating = average
	u.TotalRatings = total
	return nil
}

// ---- trips ----

type fakeTripRepo struct{ s *store }

func (r *fakeTripRepo) Create(_ context.Context, trip *entity.Trip) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	trip.ID = r.s.id()
	trip.CreatedAt = time.Now()
	trip.UpdatedAt = trip.CreatedAt
	cp := *trip
	r.s.trips[trip.ID] = &cp
	return nil
}

func (r *fakeTripRepo) FindByID(_ context.Context, id int64) (*entity.Trip, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.trips[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

// withDriver must be called with the lock held.
func (r *fakeTripRepo) withDriver(t *entity.Trip) *entity.TripWithDriver {
	twd := &entity.TripWithDriver{Trip: *t}
	if d, ok := r.s.users[t.DriverID]; ok {
		twd.Driver = entity.DriverSummary{
			ID:            d.ID,
			FirstName:     d.FirstName,
			LastName:      d.LastName,
			AverageRating: d.AverageRating,
			TotalRatings:  d.TotalRatings,
		}
	}
	return twd
}

func (r *fakeTripRepo) FindWithDriver(_ context.Context, id int64) (*entity.TripWithDriver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.trips[id]
	if !ok {
		return nil, nil
	}
	return r.withDriver(t), nil
}

func (r *fakeTripRepo) FindByDriverID(_ context.Context, driverID int64) ([]*entity.Trip, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Trip
	for _, t := range r.s.trips {
		if t.DriverID == driverID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeTripRepo) open(limit int, match func(*entity.Trip) bool) []*entity.TripWithDriver {
	var out []*entity.TripWithDriver
	for _, t := range r.s.trips {
		if t.IsActive && t.AvailableSeats > 0 && match(t) {
			out = append(out, r.withDriver(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartureTime.Before(out[j].DepartureTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *fakeTripRepo) FindActive(_ context.Context, limit int) ([]*entity.TripWithDriver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.open(limit, func(*entity.Trip) bool { return true }), nil
}

func (r *fakeTripRepo) Search(_ context.Context, departure, destination string, date *string) ([]*entity.TripWithDriver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.open(0, func(t *entity.Trip) bool {
		if !strings.Contains(strings.ToLower(t.Departure), strings.ToLower(departure)) {
			return false
		}
		if !strings.Contains(strings.ToLower(t.Destination), strings.ToLower(destination)) {
			return false
		}
		return date == nil || t.DepartureTime.UTC().Format("2006-01-02") == *date
	}), nil
}

func (r *fakeTripRepo) Update(_ context.Context, trip *entity.Trip) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.trips[trip.ID]
	if !ok {
		return fmt.Errorf("trip %d not found", trip.ID)
	}
	stored.DepartureTime = trip.DepartureTime
	stored.ArrivalTime = trip.ArrivalTime
	stored.PricePerSeat = trip.PricePerSeat
	stored.Description = trip.Description
	stored.Status = trip.Status
	stored.IsActive = trip.IsActive
	return nil
}

func (r *fakeTripRepo) Transition(_ context.Context, tripID, driverID int64, status entity.TripStatus, at time.Time) (*entity.Trip, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.trips[tripID]
	if !ok || t.DriverID != driverID {
		return nil, nil
	}
	t.Status = status
	switch status {
	case entity.TripStatusStarted:
		t.StartedAt = &at
	case entity.TripStatusCompleted:
		t.CompletedAt = &at
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTripRepo) DeactivateStale(_ context.Context, arrivedBefore time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, t := range r.s.trips {
		if t.IsActive && t.Status == entity.TripStatusPending && t.ArrivalTime.Before(arrivedBefore) {
			t.IsActive = false
			n++
		}
	}
	return n, nil
}

// ---- bookings ----

type fakeBookingRepo struct{ s *store }

func (r *fakeBookingRepo) CreateWithSeatReservation(_ context.Context, booking *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.trips[booking.TripID]
	if !ok || !t.IsActive || t.AvailableSeats < booking.SeatsBooked {
		return repository.ErrSeatsUnavailable
	}
	t.AvailableSeats -= booking.SeatsBooked
	booking.ID = r.s.id()
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	cp := *booking
	r.s.bookings[booking.ID] = &cp
	return nil
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id int64) (*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepo) FindByPassengerID(_ context.Context, passengerID int64) ([]*entity.BookingWithTrip, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	trips := &fakeTripRepo{r.s}
	var out []*entity.BookingWithTrip
	for _, b := range r.s.bookings {
		if b.PassengerID != passengerID {
			continue
		}
		bwt := &entity.BookingWithTrip{Booking: *b}
		if t, ok := r.s.trips[b.TripID]; ok {
			bwt.Trip = *trips.withDriver(t)
		}
		out = append(out, bwt)
	}
	return out, nil
}

func (r *fakeBookingRepo) FindByTripID(_ context.Context, tripID int64) ([]*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Booking
	for _, b := range r.s.bookings {
		if b.TripID == tripID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeBookingRepo) UpdateStatus(_ context.Context, bookingID int64, status entity.BookingStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[bookingID]
	if !ok {
		return fmt.Errorf("booking %d not found", bookingID)
	}
	b.Status = status
	return nil
}

func (r *fakeBookingRepo) CancelWithSeatRelease(_ context.Context, bookingID int64) (*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[bookingID]
	if !ok || b.Status != entity.BookingStatusPending {
		return nil, repository.ErrStateChanged
	}
	b.Status = entity.BookingStatusCancelled
	if t, ok := r.s.trips[b.TripID]; ok {
		t.AvailableSeats += b.SeatsBooked
		if t.AvailableSeats > t.TotalSeats {
			t.AvailableSeats = t.TotalSeats
		}
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepo) SettleWithCredits(_ context.Context, bookingID, driverID int64) (*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[bookingID]
	if !ok || b.Status != entity.BookingStatusPending {
		return nil, repository.ErrStateChanged
	}
	if trip := r.s.trips[b.TripID]; trip == nil || !trip.IsActive || trip.Status == entity.TripStatusCancelled {
		return nil, repository.ErrStateChanged
	}
	passenger := r.s.users[b.PassengerID]
	if passenger == nil || passenger.Credits < b.TotalPrice {
		return nil, repository.ErrInsufficientCredits
	}
	passenger.Credits -= b.TotalPrice
	if driver := r.s.users[driverID]; driver != nil {
		driver.Credits += b.TotalPrice
	}
	b.Status = entity.BookingStatusConfirmed
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepo) CancelPendingForTrip(_ context.Context, tripID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, b := range r.s.bookings {
		if b.TripID == tripID && b.Status == entity.BookingStatusPending {
			b.Status = entity.BookingStatusCancelled
			n++
		}
	}
	return n, nil
}

// ---- ratings ----

type fakeRatingRepo struct{ s *store }

func (r *fakeRatingRepo) Create(_ context.Context, rating *entity.Rating) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rating.ID = r.s.id()
	rating.CreatedAt = time.Now()
	cp := *rating
	r.s.ratings[rating.ID] = &cp
	return nil
}

func (r *fakeRatingRepo) FindByID(_ context.Context, id int64) (*entity.Rating, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rt, ok := r.s.ratings[id]
	if !ok {
		return nil, nil
	}
	cp := *rt
	return &cp, nil
}

func (r *fakeRatingRepo) filter(match func(*entity.Rating) bool) []*entity.Rating {
	var out []*entity.Rating
	for _, rt := range r.s.ratings {
		if match(rt) {
			cp := *rt
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeRatingRepo) FindByRateeID(_ context.Context, rateeID int64) ([]*entity.Rating, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.filter(func(rt *entity.Rating) bool { return rt.RateeID == rateeID }), nil
}

func (r *fakeRatingRepo) FindPending(_ context.Context, limit, offset int) ([]*entity.Rating, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := r.filter(func(rt *entity.Rating) bool { return rt.IsApproved == nil })
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *fakeRatingRepo) CountPending(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.filter(func(rt *entity.Rating) bool { return rt.IsApproved == nil }))), nil
}

func (r *fakeRatingRepo) ExistsForTrip(_ context.Context, tripID, raterID, rateeID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.filter(func(rt *entity.Rating) bool {
		return rt.TripID == tripID && rt.RaterID == raterID && rt.RateeID == rateeID
	})) > 0, nil
}

func (r *fakeRatingRepo) SetApproval(_ context.Context, id int64, approved bool, moderatorID int64, at time.Time) (*entity.Rating, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rt, ok := r.s.ratings[id]
	if !ok {
		return nil, nil
	}
	rt.IsApproved = &approved
	rt.ModeratedBy = &moderatorID
	rt.ModeratedAt = &at
	cp := *rt
	return &cp, nil
}

func (r *fakeRatingRepo) RateeStats(_ context.Context, rateeID int64) (float64, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var sum, count int
	for _, rt := range r.s.ratings {
		if rt.RateeID == rateeID {
			sum += rt.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

// ---- notifications ----

type fakeNotificationRepo struct{ s *store }

func (r *fakeNotificationRepo) Create(_ context.Context, n *entity.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n.ID = r.s.id()
	n.CreatedAt = time.Now()
	cp := *n
	r.s.notifications[n.ID] = &cp
	return nil
}

func (r *fakeNotificationRepo) FindByUserID(_ context.Context, userID int64, limit int) ([]*entity.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Notification
	for _, n := range r.s.notifications {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, userID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, nt := range r.s.notifications {
		if nt.UserID == userID && !nt.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id, userID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return false, nil
	}
	n.IsRead = true
	return true, nil
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, userID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for _, n := range r.s.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

// ---- collaborators ----

type fakePublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *fakePublisher) Publish(_ context.Context, routingKey string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

type fakePusher struct {
	mu     sync.Mutex
	pushed map[int64][][]byte
}

func (p *fakePusher) SendToUser(userID int64, payload []byte) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pushed == nil {
		p.pushed = make(map[int64][][]byte)
	}
	p.pushed[userID] = append(p.pushed[userID], payload)
	return 1
}

func (p *fakePusher) count(userID int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pushed[userID])
}

// ---- fixtures ----

type fixture struct {
	svc       *Service
	store     *store
	publisher *fakePublisher
	pusher    *fakePusher
	tokens    *utils.TokenManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := newStore()
	pub := &fakePublisher{}
	push := &fakePusher{}
	tokens := utils.NewTokenManager(utils.AuthConfig{Secret: "test-secret", Issuer: "ecoride", ExpiryHours: 1})

	return &fixture{
		svc:       NewService(st.repository(), tokens, pub, push, zaptest.NewLogger(t)),
		store:     st,
		publisher: pub,
		pusher:    push,
		tokens:    tokens,
	}
}

func (f *fixture) addUser(t *testing.T, role entity.UserRole, credits float64) *entity.User {
	t.Helper()
	f.store.mu.Lock()
	id := f.store.id()
	f.store.mu.Unlock()

	u := &entity.User{
		ExternalID: fmt.Sprintf("sub-%d", id),
		Email:      fmt.Sprintf("user%d@example.com", id),
		FirstName:  "Test",
		LastName:   fmt.Sprintf("User%d", id),
		Role:       role,
		Credits:    credits,
	}
	if err := (&fakeUserRepo{f.store}).Create(context.Background(), u); err != nil {
		t.Fatalf("add user: %v", err)
	}
	return u
}

func (f *fixture) addTrip(t *testing.T, driverID int64, seats int, price float64) *entity.Trip {
	t.Helper()
	departure := time.Date(2030, 6, 1, 8, 0, 0, 0, time.UTC)
	trip := &entity.Trip{
		DriverID:       driverID,
		Departure:      "Paris",
		Destination:    "Lyon",
		DepartureTime:  departure,
		ArrivalTime:    departure.Add(4 * time.Hour),
		AvailableSeats: seats,
		TotalSeats:     seats,
		PricePerSeat:   price,
		Status:         entity.TripStatusPending,
		IsActive:       true,
	}
	if err := (&fakeTripRepo{f.store}).Create(context.Background(), trip); err != nil {
		t.Fatalf("add trip: %v", err)
	}
	return trip
}

func actorOf(u *entity.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}
