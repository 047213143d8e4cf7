package cache

import (
	"alcyxob/club-app/internal/domain"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// mapStore is an in-memory Store.
type mapStore struct {
	data    map[string][]byte
	readErr error
	sets    int
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[string][]byte)}
}

func (s *mapStore) Get(_ context.Context, key string) *redis.StringCmd {
	if s.readErr != nil {
		return redis.NewStringResult("", s.readErr)
	}
	v, ok := s.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (s *mapStore) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	s.sets++
	switch v := value.(type) {
	case []byte:
		s.data[key] = v
	case string:
		s.data[key] = []byte(v)
	}
	return redis.NewStatusResult("OK", nil)
}

type countingBookings struct {
	calls   int
	booking domain.Booking
	err     error
}

func (c *countingBookings) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Booking, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	b := c.booking
	b.ID = id
	return &b, nil
}

func (c *countingBookings) ListByTeam(_ context.Context, _ primitive.ObjectID, _ domain.BookingPurpose, _ time.Time) ([]domain.Booking, error) {
	c.calls++
	return nil, nil
}

func TestCachedBookingServesSecondReadFromStore(t *testing.T) {
	start := time.Date(2026, 11, 2, 18, 0, 0, 0, time.UTC)
	inner := &countingBookings{booking: domain.Booking{
		Purpose: domain.PurposeTraining, StartTime: start, IsRecurring: true, CourtName: "Court 2",
	}}
	store := newMapStore()
	dir := NewCachedBookingDirectory(inner, store, time.Minute, zap.NewNop())
	id := primitive.NewObjectID()

	first, err := dir.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("first GetByID: %v", err)
	}
	second, err := dir.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("second GetByID: %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("directory calls = %d, want 1", inner.calls)
	}
	if second.ID != id || !second.StartTime.Equal(first.StartTime) || !second.IsRecurring || second.CourtName != "Court 2" {
		t.Errorf("cached booking differs: %+v vs %+v", second, first)
	}
}

func TestCachedBookingFallsThroughOnStoreError(t *testing.T) {
	inner := &countingBookings{}
	store := newMapStore()
	store.readErr = errors.New("connection refused")
	dir := NewCachedBookingDirectory(inner, store, time.Minute, zap.NewNop())

	if _, err := dir.GetByID(context.Background(), primitive.NewObjectID()); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("directory calls = %d, want 1", inner.calls)
	}
}

func TestCachedBookingDoesNotCacheErrors(t *testing.T) {
	inner := &countingBookings{err: errors.New("boom")}
	store := newMapStore()
	dir := NewCachedBookingDirectory(inner, store, time.Minute, zap.NewNop())

	if _, err := dir.GetByID(context.Background(), primitive.NewObjectID()); err == nil {
		t.Fatal("expected error")
	}
	if store.sets != 0 {
		t.Errorf("sets = %d, want 0", store.sets)
	}
}
