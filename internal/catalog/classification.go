package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/hitoshi/bookshelf/internal/model"
)

const (
	resourceBbk = "Bbk"
	resourceApu = "Apu"
)

func (s *Service) cleanBbk(b *model.Bbk) error {
	b.Code = s.sanitizer.Plain(b.Code)
	b.Description = s.sanitizer.Plain(b.Description)
	return required(b.Code, "code")
}

func (s *Service) CreateBbk(ctx context.Context, bbk model.Bbk) (*model.Bbk, error) {
	if err := s.cleanBbk(&bbk); err != nil {
		return nil, err
	}
	bbk.ID = uuid.New()
	if err := s.bbks.Create(ctx, &bbk); err != nil {
		return nil, translate(err, resourceBbk, "create")
	}
	return &bbk, nil
}

func (s *Service) UpdateBbk(ctx context.Context, bbk model.Bbk) (*model.Bbk, error) {
	if err := s.cleanBbk(&bbk); err != nil {
		return nil, err
	}
	ok, err := s.bbks.Update(ctx, &bbk)
	if err := found(ok, err, resourceBbk, "update"); err != nil {
		return nil, err
	}
	return &bbk, nil
}

func (s *Service) DeleteBbk(ctx context.Context, id uuid.UUID) error {
	ok, err := s.bbks.Delete(ctx, id)
	return found(ok, err, resourceBbk, "delete")
}

func (s *Service) ReadBbkByID(ctx context.Context, id uuid.UUID) (*model.Bbk, error) {
	bbk, err := s.bbks.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, resourceBbk, "read")
	}
	if bbk == nil {
		return nil, model.NewNotFoundError(resourceBbk)
	}
	return bbk, nil
}

func (s *Service) ReadBbks(ctx context.Context, q string, page model.Page) ([]model.Bbk, error) {
	bbks, err := s.bbks.Search(ctx, s.sanitizer.Plain(q), page)
	if err != nil {
		return nil, translate(err, resourceBbk, "list")
	}
	return bbks, nil
}

func (s *Service) cleanApu(a *model.Apu) error {
	a.Term = s.sanitizer.Plain(a.Term)
	return required(a.Term, "term")
}

func (s *Service) CreateApu(ctx context.Context, apu model.Apu) (*model.Apu, error) {
	if err := s.cleanApu(&apu); err != nil {
		return nil, err
	}
	apu.ID = uuid.New()
	if err := s.apus.Create(ctx, &apu); err != nil {
		return nil, translate(err, resourceApu, "create")
	}
	return &apu, nil
}

// UpdateApu は更新後の件名索引を返す。
func (s *Service) UpdateApu(ctx context.Context, apu model.Apu) (*model.Apu, error) {
	if err := s.cleanApu(&apu); err != nil {
		return nil, err
	}
	ok, err := s.apus.Update(ctx, &apu)
	if err := found(ok, err, resourceApu, "update"); err != nil {
		return nil, err
	}
	return &apu, nil
}

func (s *Service) DeleteApu(ctx context.Context, id uuid.UUID) error {
	ok, err := s.apus.Delete(ctx, id)
	return found(ok, err, resourceApu, "delete")
}

func (s *Service) ReadApuByID(ctx context.Context, id uuid.UUID) (*model.Apu, error) {
	apu, err := s.apus.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, resourceApu, "read")
	}
	if apu == nil {
		return nil, model.NewNotFoundError(resourceApu)
	}
	return apu, nil
}

func (s *Service) ReadApus(ctx context.Context, q string, page model.Page) ([]model.Apu, error) {
	apus, err := s.apus.Search(ctx, s.sanitizer.Plain(q), page)
	if err != nil {
		return nil, translate(err, resourceApu, "list")
	}
	return apus, nil
}
