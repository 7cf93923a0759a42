package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/hitoshi/bookshelf/internal/model"
)

const resourceAuthor = "Author"

func (s *Service) cleanAuthor(a *model.Author) error {
	a.Name = s.sanitizer.Plain(a.Name)
	a.Surname = s.sanitizer.Plain(a.Surname)
	a.Biography = s.sanitizer.Rich(a.Biography)
	return required(a.Name, "name")
}

func (s *Service) CreateAuthor(ctx context.Context, author model.Author) (*model.Author, error) {
	if err := s.cleanAuthor(&author); err != nil {
		return nil, err
	}
	author.ID = uuid.New()
	if err := s.authors.Create(ctx, &author); err != nil {
		return nil, translate(err, resourceAuthor, "create")
	}
	return &author, nil
}

func (s *Service) UpdateAuthor(ctx context.Context, author model.Author) (*model.Author, error) {
	if err := s.cleanAuthor(&author); err != nil {
		return nil, err
	}
	ok, err := s.authors.Update(ctx, &author)
	if err := found(ok, err, resourceAuthor, "update"); err != nil {
		return nil, err
	}
	return &author, nil
}

func (s *Service) DeleteAuthor(ctx context.Context, id uuid.UUID) error {
	ok, err := s.authors.Delete(ctx, id)
	return found(ok, err, resourceAuthor, "delete")
}

func (s *Service) ReadAuthorByID(ctx context.Context, id uuid.UUID) (*model.Author, error) {
	author, err := s.authors.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, resourceAuthor, "read")
	}
	if author == nil {
		return nil, model.NewNotFoundError(resourceAuthor)
	}
	return author, nil
}

// ReadAuthors は姓名の部分一致で検索する。qが空なら全件を対象とする。
func (s *Service) ReadAuthors(ctx context.Context, q string, page model.Page) ([]model.Author, error) {
	authors, err := s.authors.Search(ctx, s.sanitizer.Plain(q), page)
	if err != nil {
		return nil, translate(err, resourceAuthor, "list")
	}
	return authors, nil
}
