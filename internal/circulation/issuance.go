package circulation

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/repository"
)

const resourceIssuance = "Issuance"

// CreateIssuance は蔵書を貸し出す。
// 返却期限は貸出日時から貸出期間後。貸出可能な冊数が無い場合は409相当のエラーを返す。
func (s *Service) CreateIssuance(ctx context.Context, iss model.Issuance) (*model.Issuance, error) {
	if err := requireIDs(iss.BookID, iss.UserID); err != nil {
		return nil, err
	}
	iss.ID = uuid.New()
	if iss.IssuedAt.IsZero() {
		iss.IssuedAt = s.now()
	}
	iss.DueAt = iss.IssuedAt.Add(s.config.LoanPeriod)
	iss.ReturnedAt = nil

	if err := s.issuances.Create(ctx, &iss); err != nil {
		if errors.Is(err, repository.ErrNoAvailableCopies) {
			return nil, model.NewNoAvailableCopiesError(iss.BookID.String())
		}
		if errors.Is(err, repository.ErrReferenceNotFound) {
			return nil, model.NewNotFoundError("Book")
		}
		return nil, translate(err, resourceIssuance, "create")
	}
	return &iss, nil
}

// UpdateIssuance は返却期限と返却日時を更新する。
// 返却日時の設定・解除に応じて貸出可能冊数が増減する。
func (s *Service) UpdateIssuance(ctx context.Context, iss model.Issuance) (*model.Issuance, error) {
	ok, err := s.issuances.Update(ctx, &iss)
	if errors.Is(err, repository.ErrNoAvailableCopies) {
		return nil, model.NewNoAvailableCopiesError(iss.BookID.String())
	}
	if err := found(ok, err, resourceIssuance, "update"); err != nil {
		return nil, err
	}
	return &iss, nil
}

func (s *Service) DeleteIssuance(ctx context.Context, id uuid.UUID) error {
	ok, err := s.issuances.Delete(ctx, id)
	return found(ok, err, resourceIssuance, "delete")
}

func (s *Service) ReadIssuances(ctx context.Context, filter model.CirculationFilter, page model.Page) ([]model.Issuance, error) {
	list, err := s.issuances.List(ctx, filter, page)
	if err != nil {
		return nil, translate(err, resourceIssuance, "list")
	}
	return list, nil
}
