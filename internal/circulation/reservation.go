package circulation

import (
	"context"

	"github.com/google/uuid"

	"github.com/hitoshi/bookshelf/internal/model"
)

const resourceReservation = "Reservation"

// CreateReservation は取り置きを作成する。
// 有効期限は作成時刻から設定された期間後。同一利用者・同一蔵書の有効な取り置きは重複とする。
func (s *Service) CreateReservation(ctx context.Context, r model.Reservation) (*model.Reservation, error) {
	if err := requireIDs(r.BookID, r.UserID); err != nil {
		return nil, err
	}
	now := s.now()
	exists, err := s.reservations.ExistsActive(ctx, r.UserID, r.BookID, now)
	if err != nil {
		return nil, translate(err, resourceReservation, "check")
	}
	if exists {
		return nil, model.NewDuplicateError("Reservation already exists")
	}

	r.ID = uuid.New()
	r.ReservedAt = now
	r.ExpiresAt = now.Add(s.config.ReservationTTL)
	if err := s.reservations.Create(ctx, &r); err != nil {
		return nil, translate(err, resourceReservation, "create")
	}
	return &r, nil
}

// UpdateReservation は取り置きの有効期限を延長・短縮する。
func (s *Service) UpdateReservation(ctx context.Context, r model.Reservation) (*model.Reservation, error) {
	if !r.ExpiresAt.IsZero() && !r.ReservedAt.IsZero() && r.ExpiresAt.Before(r.ReservedAt) {
		return nil, model.NewDomainError("expiresAt must not be before reservedAt")
	}
	ok, err := s.reservations.Update(ctx, &r)
	if err := found(ok, err, resourceReservation, "update"); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Service) DeleteReservation(ctx context.Context, id uuid.UUID) error {
	ok, err := s.reservations.Delete(ctx, id)
	return found(ok, err, resourceReservation, "delete")
}

func (s *Service) ReadReservations(ctx context.Context, filter model.CirculationFilter, page model.Page) ([]model.Reservation, error) {
	list, err := s.reservations.List(ctx, filter, page)
	if err != nil {
		return nil, translate(err, resourceReservation, "list")
	}
	return list, nil
}

// ExpireReservations は期限切れの取り置きを削除し、件数を返す。
func (s *Service) ExpireReservations(ctx context.Context) (int64, error) {
	n, err := s.reservations.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, translate(err, resourceReservation, "expire")
	}
	return n, nil
}
