package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/hitoshi/bookshelf/internal/model"
)

const resourcePublisher = "Publisher"

func (s *Service) cleanPublisher(p *model.Publisher) error {
	p.Name = s.sanitizer.Plain(p.Name)
	p.City = s.sanitizer.Plain(p.City)
	p.Email = s.sanitizer.Plain(p.Email)
	p.PhoneNumber = s.sanitizer.Plain(p.PhoneNumber)
	return required(p.Name, "name")
}

func (s *Service) CreatePublisher(ctx context.Context, publisher model.Publisher) (*model.Publisher, error) {
	if err := s.cleanPublisher(&publisher); err != nil {
		return nil, err
	}
	publisher.ID = uuid.New()
	if err := s.publishers.Create(ctx, &publisher); err != nil {
		return nil, translate(err, resourcePublisher, "create")
	}
	return &publisher, nil
}

func (s *Service) UpdatePublisher(ctx context.Context, publisher model.Publisher) (*model.Publisher, error) {
	if err := s.cleanPublisher(&publisher); err != nil {
		return nil, err
	}
	ok, err := s.publishers.Update(ctx, &publisher)
	if err := found(ok, err, resourcePublisher, "update"); err != nil {
		return nil, err
	}
	return &publisher, nil
}

func (s *Service) DeletePublisher(ctx context.Context, id uuid.UUID) error {
	ok, err := s.publishers.Delete(ctx, id)
	return found(ok, err, resourcePublisher, "delete")
}

func (s *Service) ReadPublisherByID(ctx context.Context, id uuid.UUID) (*model.Publisher, error) {
	p, err := s.publishers.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, resourcePublisher, "read")
	}
	if p == nil {
		return nil, model.NewNotFoundError(resourcePublisher)
	}
	return p, nil
}

func (s *Service) ReadPublishers(ctx context.Context, q string, page model.Page) ([]model.Publisher, error) {
	publishers, err := s.publishers.Search(ctx, s.sanitizer.Plain(q), page)
	if err != nil {
		return nil, translate(err, resourcePublisher, "list")
	}
	return publishers, nil
}
