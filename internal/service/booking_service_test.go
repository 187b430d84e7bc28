package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/suivi-academique-api/internal/dto"
	"github.com/noah-isme/suivi-academique-api/internal/models"
	"github.com/noah-isme/suivi-academique-api/internal/repository"
	appErrors "github.com/noah-isme/suivi-academique-api/pkg/errors"
	"github.com/noah-isme/suivi-academique-api/pkg/events"
)

type memoryBookingStore struct {
	mu           sync.Mutex
	rooms        map[string]models.Room
	courses      map[string]bool
	staff        map[string]bool
	bookings     map[int64]models.Booking
	nextID       int64
	overlapDelay time.Duration
	createErr    error
	lockCalls    int
}

func newMemoryBookingStore() *memoryBookingStore {
	return &memoryBookingStore{
		rooms: map[string]models.Room{
			"A101": {Code: "A101", Capacity: 40, Status: models.RoomStatusFree},
			"B202": {Code: "B202", Capacity: 25, Status: models.RoomStatusFree},
			"C303": {Code: "C303", Capacity: 30, Status: models.RoomStatusOccupied},
		},
		courses:  map[string]bool{"INF101": true, "MAT201": true},
		staff:    map[string]bool{"ENS202512345": true, "RA202500001": true},
		bookings: make(map[int64]models.Booking),
	}
}

func (m *memoryBookingStore) WithRoomLock(ctx context.Context, roomCodes []string, fn func(store repository.BookingStore) error) error {
	m.mu.Lock()
	m.lockCalls++
	m.mu.Unlock()
	return fn(m)
}

func (m *memoryBookingStore) FindByID(ctx context.Context, id int64) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &b, nil
}

func (m *memoryBookingStore) FindOverlapping(ctx context.Context, roomCode string, start, end time.Time, excludeID *int64) ([]models.Booking, error) {
	m.mu.Lock()
	var out []models.Booking
	for _, b := range m.bookings {
		if b.RoomCode != roomCode || b.Status == models.BookingStatusRejected {
			continue
		}
		if excludeID != nil && b.ID == *excludeID {
			continue
		}
		if b.StartsAt.Before(end) && start.Before(b.EndsAt) {
			out = append(out, b)
		}
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if m.overlapDelay > 0 {
		time.Sleep(m.overlapDelay)
	}
	return out, nil
}

func (m *memoryBookingStore) Create(ctx context.Context, booking *models.Booking) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	booking.ID = m.nextID
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	m.bookings[booking.ID] = *booking
	return nil
}

func (m *memoryBookingStore) Update(ctx context.Context, booking *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[booking.ID]; !ok {
		return sql.ErrNoRows
	}
	m.bookings[booking.ID] = *booking
	return nil
}

func (m *memoryBookingStore) UpdateReview(ctx context.Context, id int64, status models.BookingStatus, reviewerCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return sql.ErrNoRows
	}
	b.Status = status
	b.ReviewerCode = &reviewerCode
	m.bookings[id] = b
	return nil
}

func (m *memoryBookingStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.bookings, id)
	return nil
}

func (m *memoryBookingStore) FindRoom(ctx context.Context, code string) (*models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &room, nil
}

func (m *memoryBookingStore) CourseExists(ctx context.Context, code string) (bool, error) {
	return m.courses[code], nil
}

func (m *memoryBookingStore) StaffExists(ctx context.Context, code string) (bool, error) {
	return m.staff[code], nil
}

func (m *memoryBookingStore) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		if filter.RoomCode != "" && b.RoomCode != filter.RoomCode {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *memoryBookingStore) AvailableRooms(ctx context.Context, start, end time.Time) ([]models.Room, error) {
	var rooms []models.Room
	for _, code := range []string{"A101", "B202", "C303"} {
		room := m.rooms[code]
		if room.Status != models.RoomStatusFree {
			continue
		}
		busy, _ := m.FindOverlapping(ctx, code, start, end, nil)
		if len(busy) == 0 {
			rooms = append(rooms, room)
		}
	}
	return rooms, nil
}

func (m *memoryBookingStore) HoursByCourse(ctx context.Context) ([]models.BookedHours, error) {
	return m.sumHours(func(b models.Booking) string { return b.CourseCode }), nil
}

func (m *memoryBookingStore) HoursByCreator(ctx context.Context) ([]models.BookedHours, error) {
	return m.sumHours(func(b models.Booking) string { return b.CreatorCode }), nil
}

func (m *memoryBookingStore) sumHours(key func(models.Booking) string) []models.BookedHours {
	m.mu.Lock()
	defer m.mu.Unlock()
	totals := map[string]int{}
	for _, b := range m.bookings {
		if b.Status != models.BookingStatusRejected {
			totals[key(b)] += b.DurationHours
		}
	}
	out := make([]models.BookedHours, 0, len(totals))
	for code, hours := range totals {
		out = append(out, models.BookedHours{Code: code, Hours: hours})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (m *memoryBookingStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func at(hour, minute int) *time.Time {
	t := time.Date(2025, 3, 3, hour, minute, 0, 0, time.UTC)
	return &t
}

func bookingRequest(room string, start, end *time.Time) dto.CreateBookingRequest {
	return dto.CreateBookingRequest{
		RoomCode:      room,
		CourseCode:    "INF101",
		CreatorCode:   "ENS202512345",
		DurationHours: 1,
		StartsAt:      start,
		EndsAt:        end,
	}
}

func newTestBookingService(store *memoryBookingStore) (*BookingService, *recordingPublisher) {
	publisher := &recordingPublisher{}
	return NewBookingService(store, nil, NewMetricsService(), publisher, nil), publisher
}

func errorCode(err error) string {
	return appErrors.FromError(err).Code
}

func TestBookingServiceCreateTouchingIntervals(t *testing.T) {
	store := newMemoryBookingStore()
	svc, publisher := newTestBookingService(store)
	ctx := context.Background()

	first, err := svc.Create(ctx, bookingRequest("A101", at(10, 0), at(11, 0)))
	require.NoError(t, err)
	second, err := svc.Create(ctx, bookingRequest("A101", at(11, 0), at(12, 0)))
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, models.BookingStatusScheduled, first.Status)
	assert.Nil(t, first.ReviewerCode)
	assert.Equal(t, 2, store.count())
	assert.Equal(t, []string{events.BookingCreated, events.BookingCreated}, publisher.types())
}

func TestBookingServiceCreateOverlapConflict(t *testing.T) {
	store := newMemoryBookingStore()
	svc, _ := newTestBookingService(store)
	ctx := context.Background()

	first, err := svc.Create(ctx, bookingRequest("A101", at(10, 0), at(11, 0)))
	require.NoError(t, err)

	_, err = svc.Create(ctx, bookingRequest("A101", at(10, 30), at(11, 30)))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, errorCode(err))
	assert.Contains(t, err.Error(), "booking(s) 1")

	var conflict *models.BookingConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []int64{first.ID}, conflict.BookingIDs)
	assert.Equal(t, 1, store.count())
}

func TestBookingServiceCreateOtherRoomDoesNotConflict(t *testing.T) {
	store := newMemoryBookingStore()
	svc, _ := newTestBookingService(store)
	ctx := context.Background()

	_, err := svc.Create(ctx, bookingRequest("A101", at(10, 0), at(11, 0)))
	require.NoError(t, err)
	_, err = svc.Create(ctx, bookingRequest("B202", at(10, 0), at(11, 0)))
	require.NoError(t, err)
}

func TestBookingServiceRejectFreesInterval(t *testing.T) {
	store := newMemoryBookingStore()
	svc, _ := newTestBookingService(store)
	ctx := context.Background()

	a, err := svc.Create(ctx, bookingRequest("A101", at(9, 0), at(10, 0)))
	require.NoError(t, err)

	rejected, err := svc.Review(ctx, a.ID, dto.ReviewBookingRequest{ReviewerCode: "RA202500001", Decision: dto.DecisionReject})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusRejected, rejected.Status)
	require.NotNil(t, rejected.ReviewerCode)
	assert.Equal(t, "RA202500001", *rejected.ReviewerCode)

	b, err := svc.Create(ctx, bookingRequest("A101", at(9, 0), at(10, 0)))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestBookingServiceReviewTwiceFails(t *testing.T) {
	cases := []struct {
		name   string
		second dto.ReviewDecision
	}{
		{name: "validate again", second: dto.DecisionValidate},
		{name: "reject after validate", second: dto.DecisionReject},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemoryBookingStore()
			svc, _ := newTestBookingService(store)
			ctx := context.Background()

			b, err := svc.Create(ctx, bookingRequest("A101", at(9, 0), at(10, 0)))
			require.NoError(t, err)
			_, err = svc.Review(ctx, b.ID, dto.ReviewBookingRequest{ReviewerCode: "RA202500001", Decision: dto.DecisionValidate})
			require.NoError(t, err)

			_, err = svc.Review(ctx, b.ID, dto.ReviewBookingRequest{ReviewerCode: "RA202500001", Decision: tc.second})
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrInvalidState.Code, errorCode(err))

			stored, err := svc.Get(ctx, b.ID)
			require.NoError(t, err)
			assert.Equal(t, models.BookingStatusValidated, stored.Status)
		})
	}
}

func TestBookingServiceReviewFailures(t *testing.T) {
	store := newMemoryBookingStore()
	svc, _ := newTestBookingService(store)
	ctx := context.Background()

	b, err := svc.Create(ctx, bookingRequest("A101", at(9, 0), at(10, 0)))
	require.NoError(t, err)

	_, err = svc.Review(ctx, 999, dto.ReviewBookingRequest{ReviewerCode: "RA202500001", Decision: dto.DecisionValidate})
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))

	_, err = svc.Review(ctx, b.ID, dto.ReviewBookingRequest{ReviewerCode: "RA000000000", Decision: dto.DecisionValidate})
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))
	assert.Contains(t, err.Error(), "reviewer")

	_, err = svc.Review(ctx, b.ID, dto.ReviewBookingRequest{ReviewerCode: "RA202500001", Decision: "MAYBE"})
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	stored, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusScheduled, stored.Status)
}

func TestBookingServiceCreateUnknownRoomPersistsNothing(t *testing.T) {
	store := newMemoryBookingStore()
	svc, publisher := newTestBookingService(store)

	_, err := svc.Create(context.Background(), bookingRequest("Z999", at(9, 0), at(10, 0)))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))
	assert.Equal(t, 0, store.count())
	assert.Empty(t, publisher.types())
}

func TestBookingServiceCreateOccupiedRoom(t *testing.T) {
	store := newMemoryBookingStore()
	svc, _ := newTestBookingService(store)

	_, err := svc.Create(context.Background(), bookingRequest("C303", at(9, 0), at(10, 0)))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, errorCode(err))
	assert.Contains(t, err.Error(), "not in a bookable state")

	var conflict *models.BookingConflictError
	assert.False(t, errors.As(err, &conflict))
	assert.Equal(t, 0, store.count())
}

func TestBookingServiceValidationOrder(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(r *dto.CreateBookingRequest)
		code    string
		message string
	}{
		{
			name: "missing room wins over bad duration",
			mutate: func(r *dto.CreateBookingRequest) {
				r.RoomCode = "Z999"
				r.DurationHours = 0
			},
			code:    appErrors.ErrNotFound.Code,
			message: "room Z999",
		},
		{
			name:    "missing course",
			mutate:  func(r *dto.CreateBookingRequest) { r.CourseCode = "NOPE1" },
			code:    appErrors.ErrNotFound.Code,
			message: "course NOPE1",
		},
		{
			name: "missing creator wins over bad window",
			mutate: func(r *dto.CreateBookingRequest) {
				r.CreatorCode = "ENS000"
				r.EndsAt = r.StartsAt
			},
			code:    appErrors.ErrNotFound.Code,
			message: "staff ENS000",
		},
		{
			name:    "zero duration",
			mutate:  func(r *dto.CreateBookingRequest) { r.DurationHours = 0 },
			code:    appErrors.ErrValidation.Code,
			message: "duration",
		},
		{
			name:    "negative duration wins over occupied room",
			mutate:  func(r *dto.CreateBookingRequest) { r.DurationHours = -2; r.RoomCode = "C303" },
			code:    appErrors.ErrValidation.Code,
			message: "duration",
		},
		{
			name:    "missing start",
			mutate:  func(r *dto.CreateBookingRequest) { r.StartsAt = nil },
			code:    appErrors.ErrValidation.Code,
			message: "required",
		},
		{
			name:    "end equals start",
			mutate:  func(r *dto.CreateBookingRequest) { r.EndsAt = r.StartsAt },
			code:    appErrors.ErrValidation.Code,
			message: "end must be after start",
		},
		{
			name:    "end before start wins over occupied room",
			mutate:  func(r *dto.CreateBookingRequest) { r.EndsAt = at(8, 0); r.RoomCode = "C303" },
			code:    appErrors.ErrValidation.Code,
			message: "end must be after start",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemoryBookingStore()
			svc, _ := newTestBookingService(store)
			req := bookingRequest("A101", at(9, 0), at(10, 0))
			tc.mutate(&req)

			_, err := svc.Create(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, tc.code, errorCode(err))
			assert.Contains(t, err.Error(), tc.message)
			assert.Equal(t, 0, store.count())
		})
	}
}

func TestBookingServiceGetIsIdempotent(t *testing.T) {
	store := newMemoryBookingStore()
	svc, _ := newTestBookingService(store)
	ctx := context.Background()

	b, err := svc.Create(ctx, bookingRequest("A101", at(9, 0), at(10, 0)))
	require.NoError(t, err)

	first, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	second, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = svc.Get(ctx, 404)
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))
}

func TestBookingServiceConcurrentCreateAdmitsOne(t *testing.T) {
	store := newMemoryBookingStore()
	store.overlapDelay = 5 * time.Millisecond
	svc, _ := newTestBookingService(store)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			req := bookingRequest("A101", at(10, i), at(11, i))
			_, err := svc.Create(context.Background(), req)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			if errorCode(err) == appErrors.ErrConflict.Code {
				conflicts++
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
	assert.Equal(t, 1, store.count())
	assert.Equal(t, 0, svc.locker.size())
}

func TestBookingServiceUpdateIgnoresOwnInterval(t *testing.T) {
	store := newMemoryBookingStore()
	svc, publisher := newTestBookingService(store)
	ctx := context.Background()

	a, err := svc.Create(ctx, bookingRequest("A101", at(9, 0), at(10, 0)))
	require.NoError(t, err)
	b, err := svc.Create(ctx, bookingRequest("A101", at(11, 0), at(12, 0)))
	require.NoError(t, err)
	_, err = svc.Review(ctx, a.ID, dto.ReviewBookingRequest{ReviewerCode: "RA202500001", Decision: dto.DecisionValidate})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, a.ID, dto.UpdateBookingRequest{
		RoomCode: "A101", CourseCode: "MAT201", CreatorCode: "ENS202512345",
		DurationHours: 2, StartsAt: at(9, 30), EndsAt: at(11, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, "MAT201", updated.CourseCode)
	assert.Equal(t, models.BookingStatusValidated, updated.Status)
	require.NotNil(t, updated.ReviewerCode)

	_, err = svc.Update(ctx, a.ID, dto.UpdateBookingRequest{
		RoomCode: "A101", CourseCode: "MAT201", CreatorCode: "ENS202512345",
		DurationHours: 2, StartsAt: at(10, 30), EndsAt: at(11, 30),
	})
	require.Error(t, err)
	var conflict *models.BookingConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []int64{b.ID}, conflict.BookingIDs)

	stored, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, stored.StartsAt.Equal(*at(9, 30)))
	assert.Contains(t, publisher.types(), events.BookingUpdated)
}

func TestBookingServiceUpdateMovesRoom(t *testing.T) {
	store := newMemoryBookingStore()
	svc, _ := newTestBookingService(store)
	ctx := context.Background()

	a, err := svc.Create(ctx, bookingRequest("A101", at(9, 0), at(10, 0)))
	require.NoError(t, err)

	moved, err := svc.Update(ctx, a.ID, dto.UpdateBookingRequest{
		RoomCode: "B202", CourseCode: "INF101", CreatorCode: "ENS202512345",
		DurationHours: 1, StartsAt: at(9, 0), EndsAt: at(10, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, "B202", moved.RoomCode)

	_, err = svc.Create(ctx, bookingRequest("A101", at(9, 0), at(10, 0)))
	require.NoError(t, err)
}

func TestBookingServiceUpdateMissing(t *testing.T) {
	svc, _ := newTestBookingService(newMemoryBookingStore())
	_, err := svc.Update(context.Background(), 77, dto.UpdateBookingRequest{RoomCode: "A101"})
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))
}

func TestBookingServiceDelete(t *testing.T) {
	store := newMemoryBookingStore()
	svc, publisher := newTestBookingService(store)
	ctx := context.Background()

	a, err := svc.Create(ctx, bookingRequest("A101", at(9, 0), at(10, 0)))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, a.ID))
	assert.Equal(t, 0, store.count())
	assert.Contains(t, publisher.types(), events.BookingDeleted)

	err = svc.Delete(ctx, a.ID)
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))
}

func TestBookingServiceMapsExclusionViolation(t *testing.T) {
	store := newMemoryBookingStore()
	store.createErr = &pq.Error{Code: "23P01", Message: "conflicting key value violates exclusion constraint"}
	svc, _ := newTestBookingService(store)

	_, err := svc.Create(context.Background(), bookingRequest("A101", at(9, 0), at(10, 0)))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, errorCode(err))
}

func TestBookingServiceInfrastructureError(t *testing.T) {
	store := newMemoryBookingStore()
	store.createErr = errors.New("connection reset")
	svc, _ := newTestBookingService(store)

	_, err := svc.Create(context.Background(), bookingRequest("A101", at(9, 0), at(10, 0)))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, errorCode(err))
}

func TestBookingServicePublishFailureDoesNotFailWrite(t *testing.T) {
	store := newMemoryBookingStore()
	publisher := &recordingPublisher{err: errors.New("broker down")}
	svc := NewBookingService(store, nil, nil, publisher, nil)

	_, err := svc.Create(context.Background(), bookingRequest("A101", at(9, 0), at(10, 0)))
	require.NoError(t, err)
	assert.Equal(t, 1, store.count())
}

func TestBookingServiceCheckConflicts(t *testing.T) {
	store := newMemoryBookingStore()
	svc, _ := newTestBookingService(store)
	ctx := context.Background()

	a, err := svc.Create(ctx, bookingRequest("A101", at(9, 0), at(10, 0)))
	require.NoError(t, err)

	found, err := svc.CheckConflicts(ctx, dto.ConflictQuery{RoomCode: "A101", StartsAt: *at(9, 30), EndsAt: *at(10, 30)})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, a.ID, found[0].ID)

	found, err = svc.CheckConflicts(ctx, dto.ConflictQuery{RoomCode: "A101", StartsAt: *at(9, 30), EndsAt: *at(10, 30), ExcludeID: &a.ID})
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = svc.CheckConflicts(ctx, dto.ConflictQuery{RoomCode: "A101", StartsAt: *at(10, 0), EndsAt: *at(9, 0)})
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))
}

func TestBookingServiceAvailableRoomsAndStats(t *testing.T) {
	store := newMemoryBookingStore()
	svc, _ := newTestBookingService(store)
	ctx := context.Background()

	_, err := svc.Create(ctx, bookingRequest("A101", at(9, 0), at(11, 0)))
	require.NoError(t, err)
	rejected, err := svc.Create(ctx, bookingRequest("B202", at(9, 0), at(10, 0)))
	require.NoError(t, err)
	_, err = svc.Review(ctx, rejected.ID, dto.ReviewBookingRequest{ReviewerCode: "RA202500001", Decision: dto.DecisionReject})
	require.NoError(t, err)

	rooms, err := svc.AvailableRooms(ctx, *at(9, 0), *at(10, 0))
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "B202", rooms[0].Code)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.BookedHours{{Code: "INF101", Hours: 1}}, stats.ByCourse)
}

func TestBookingServiceStatsCachedUntilWrite(t *testing.T) {
	store := newMemoryBookingStore()
	cacheRepo := newMemoryCache()
	svc := NewBookingService(store, NewCacheService(cacheRepo, nil, time.Minute, nil, true), nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, bookingRequest("A101", at(9, 0), at(10, 0)))
	require.NoError(t, err)
	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.BookedHours{{Code: "INF101", Hours: 1}}, stats.ByCourse)
	assert.Contains(t, cacheRepo.items, bookingStatsKey)

	_, err = svc.Create(ctx, bookingRequest("A101", at(10, 0), at(11, 0)))
	require.NoError(t, err)
	assert.NotContains(t, cacheRepo.items, bookingStatsKey)

	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.BookedHours{{Code: "INF101", Hours: 2}}, stats.ByCourse)
}

func TestBookingServiceReadsSurviveCacheOutage(t *testing.T) {
	store := newMemoryBookingStore()
	cacheRepo := newMemoryCache()
	cacheRepo.failGet = errors.New("connection refused")
	cacheRepo.failSet = errors.New("connection refused")
	svc := NewBookingService(store, NewCacheService(cacheRepo, nil, time.Minute, nil, true), nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, bookingRequest("A101", at(9, 0), at(10, 0)))
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.BookedHours{{Code: "INF101", Hours: 1}}, stats.ByCourse)

	rooms, err := svc.AvailableRooms(ctx, *at(9, 0), *at(10, 0))
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
	assert.Empty(t, cacheRepo.items)
}
