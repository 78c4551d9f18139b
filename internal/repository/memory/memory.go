// Package memory is an in-process AssetRepository used by tests and by
// STORE_DRIVER=memory.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"asset-buyback-api/internal/model"
	"asset-buyback-api/internal/repository"
	"asset-buyback-api/pkg/datetime"
)

// Store keeps assets in insertion order. Soft-deleted assets stay in the map.
type Store struct {
	mu     sync.RWMutex
	assets map[uuid.UUID]*model.Asset
	order  []uuid.UUID
	now    func() time.Time
	newID  func() uuid.UUID
}

var _ repository.AssetRepository = (*Store)(nil)

// New creates an empty store using the wall clock.
func New() *Store {
	return NewWithClock(func() time.Time { return time.Now().UTC() })
}

// NewWithClock creates an empty store that stamps records with now.
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		assets: make(map[uuid.UUID]*model.Asset),
		now:    now,
		newID:  uuid.New,
	}
}

func (s *Store) list(includeDeleted bool) []model.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Asset, 0, len(s.order))
	for _, id := range s.order {
		a := s.assets[id]
		if !includeDeleted && a.Deleted() {
			continue
		}
		out = append(out, *a)
	}
	return out
}

func (s *Store) ListAssets(_ context.Context) ([]model.Asset, error) {
	return s.list(false), nil
}

func (s *Store) ListAllAssets(_ context.Context) ([]model.Asset, error) {
	return s.list(true), nil
}

func (s *Store) GetAsset(_ context.Context, id uuid.UUID) (*model.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assets[id]
	if !ok || a.Deleted() {
		return nil, repository.ErrAssetNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Store) CreateAsset(_ context.Context, in model.AssetInput) (*model.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for _, taken := s.assets[id]; taken || id == uuid.Nil; _, taken = s.assets[id] {
		id = s.newID()
	}

	now := s.now()
	a := &model.Asset{ID: id, CreatedAt: now, StatusLog: model.EntryActive}
	apply(a, in, now)

	s.assets[id] = a
	s.order = append(s.order, id)

	cp := *a
	return &cp, nil
}

func (s *Store) UpdateAsset(_ context.Context, id uuid.UUID, in model.AssetInput) (*model.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assets[id]
	if !ok || a.Deleted() {
		return nil, repository.ErrAssetNotFound
	}
	apply(a, in, s.now())

	cp := *a
	return &cp, nil
}

func (s *Store) UpdateAssetStatus(_ context.Context, id uuid.UUID, status model.BuybackStatus) (*model.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assets[id]
	if !ok || a.Deleted() {
		return nil, repository.ErrAssetNotFound
	}
	a.BuybackStatus = status
	a.UpdatedAt = s.now()

	cp := *a
	return &cp, nil
}

func (s *Store) DeleteAsset(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assets[id]
	if !ok || a.Deleted() {
		return repository.ErrAssetNotFound
	}
	a.StatusLog = model.EntryDeleted
	a.UpdatedAt = s.now()
	return nil
}

func apply(a *model.Asset, in model.AssetInput, now time.Time) {
	a.PCName = in.PCName
	a.EmployeeNumber = in.EmployeeNumber
	a.Username = in.Username
	a.SerialNumber = in.SerialNumber
	a.MACAddress = in.MACAddress
	a.BuybackStatus = in.BuybackStatus
	a.Date = datetime.CalendarDay(in.Date)
	a.UpdatedAt = now
}
