package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/repository"
)

const resourceBook = "Book"

func (s *Service) cleanBook(book *model.Book) error {
	book.Title = s.sanitizer.Plain(book.Title)
	book.ISBN = s.sanitizer.Plain(book.ISBN)
	book.Annotation = s.sanitizer.Rich(book.Annotation)
	if err := required(book.Title, "title"); err != nil {
		return err
	}
	if book.Copies < 0 {
		return model.NewDomainError("copies must not be negative")
	}
	if book.PublishYear < 0 {
		return model.NewDomainError("publishYear must not be negative")
	}
	return nil
}

// CreateBook は蔵書を登録し、採番したIDを返す。
// 登録直後は全冊が貸出可能。
func (s *Service) CreateBook(ctx context.Context, book model.Book) (uuid.UUID, error) {
	if err := s.cleanBook(&book); err != nil {
		return uuid.Nil, err
	}
	book.ID = uuid.New()
	book.AvailableCopies = book.Copies
	if err := s.books.Create(ctx, &book); err != nil {
		return uuid.Nil, translate(err, resourceBook, "create")
	}
	return book.ID, nil
}

// UpdateBook は蔵書を更新する。貸出可能冊数はリポジトリが総冊数の増減から算出する。
func (s *Service) UpdateBook(ctx context.Context, book model.Book) (*model.Book, error) {
	if err := s.cleanBook(&book); err != nil {
		return nil, err
	}
	ok, err := s.books.Update(ctx, &book)
	if err := found(ok, err, resourceBook, "update"); err != nil {
		return nil, err
	}
	return s.ReadBookByID(ctx, book.ID)
}

func (s *Service) DeleteBook(ctx context.Context, id uuid.UUID) error {
	ok, err := s.books.Delete(ctx, id)
	return found(ok, err, resourceBook, "delete")
}

func (s *Service) ReadBookByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	book, err := s.books.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, resourceBook, "read")
	}
	if book == nil {
		return nil, model.NewNotFoundError(resourceBook)
	}
	return book, nil
}

func (s *Service) ReadBooks(ctx context.Context, page model.Page) ([]model.Book, error) {
	return s.listBooks(ctx, repository.BookQuery{}, page)
}

func (s *Service) ReadBooksByAuthor(ctx context.Context, authorID uuid.UUID, page model.Page) ([]model.Book, error) {
	return s.listBooks(ctx, repository.BookQuery{AuthorID: &authorID}, page)
}

func (s *Service) ReadBooksByBbk(ctx context.Context, bbkID uuid.UUID, page model.Page) ([]model.Book, error) {
	return s.listBooks(ctx, repository.BookQuery{BbkID: &bbkID}, page)
}

func (s *Service) ReadBooksByPublisher(ctx context.Context, publisherID uuid.UUID, page model.Page) ([]model.Book, error) {
	return s.listBooks(ctx, repository.BookQuery{PublisherID: &publisherID}, page)
}

// ReadBooksBySentence は書名・注記・ISBNの部分一致で検索する。
func (s *Service) ReadBooksBySentence(ctx context.Context, sentence string, page model.Page) ([]model.Book, error) {
	sentence = s.sanitizer.Plain(sentence)
	if sentence == "" {
		return nil, model.NewParameterError("Search sentence is empty")
	}
	return s.listBooks(ctx, repository.BookQuery{Sentence: sentence}, page)
}

func (s *Service) listBooks(ctx context.Context, q repository.BookQuery, page model.Page) ([]model.Book, error) {
	books, err := s.books.List(ctx, q, page)
	if err != nil {
		return nil, translate(err, resourceBook, "list")
	}
	return books, nil
}
