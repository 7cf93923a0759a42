package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/repository"
	"github.com/hitoshi/bookshelf/internal/security"
)

// --- モック ---

type mockBookRepo struct {
	findByIDFn func(ctx context.Context, id uuid.UUID) (*model.Book, error)
	listFn     func(ctx context.Context, q repository.BookQuery, page model.Page) ([]model.Book, error)
	createFn   func(ctx context.Context, book *model.Book) error
	updateFn   func(ctx context.Context, book *model.Book) (bool, error)
	deleteFn   func(ctx context.Context, id uuid.UUID) (bool, error)
}

func (m *mockBookRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockBookRepo) List(ctx context.Context, q repository.BookQuery, page model.Page) ([]model.Book, error) {
	if m.listFn != nil {
		return m.listFn(ctx, q, page)
	}
	return []model.Book{}, nil
}
func (m *mockBookRepo) Create(ctx context.Context, book *model.Book) error {
	if m.createFn != nil {
		return m.createFn(ctx, book)
	}
	return nil
}
func (m *mockBookRepo) Update(ctx context.Context, book *model.Book) (bool, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, book)
	}
	return true, nil
}
func (m *mockBookRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return true, nil
}

type mockAuthorRepo struct {
	findByIDFn func(ctx context.Context, id uuid.UUID) (*model.Author, error)
	searchFn   func(ctx context.Context, q string, page model.Page) ([]model.Author, error)
	createFn   func(ctx context.Context, author *model.Author) error
	updateFn   func(ctx context.Context, author *model.Author) (bool, error)
	deleteFn   func(ctx context.Context, id uuid.UUID) (bool, error)
}

func (m *mockAuthorRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Author, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockAuthorRepo) Search(ctx context.Context, q string, page model.Page) ([]model.Author, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q, page)
	}
	return []model.Author{}, nil
}
func (m *mockAuthorRepo) Create(ctx context.Context, author *model.Author) error {
	if m.createFn != nil {
		return m.createFn(ctx, author)
	}
	return nil
}
func (m *mockAuthorRepo) Update(ctx context.Context, author *model.Author) (bool, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, author)
	}
	return true, nil
}
func (m *mockAuthorRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return true, nil
}

type mockBbkRepo struct {
	createFn func(ctx context.Context, bbk *model.Bbk) error
	updateFn func(ctx context.Context, bbk *model.Bbk) (bool, error)
}

func (m *mockBbkRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Bbk, error) {
	return nil, nil
}
func (m *mockBbkRepo) Search(ctx context.Context, q string, page model.Page) ([]model.Bbk, error) {
	return []model.Bbk{}, nil
}
func (m *mockBbkRepo) Create(ctx context.Context, bbk *model.Bbk) error {
	if m.createFn != nil {
		return m.createFn(ctx, bbk)
	}
	return nil
}
func (m *mockBbkRepo) Update(ctx context.Context, bbk *model.Bbk) (bool, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, bbk)
	}
	return true, nil
}
func (m *mockBbkRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return true, nil
}

type mockApuRepo struct {
	updateFn func(ctx context.Context, apu *model.Apu) (bool, error)
}

func (m *mockApuRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Apu, error) {
	return nil, nil
}
func (m *mockApuRepo) Search(ctx context.Context, q string, page model.Page) ([]model.Apu, error) {
	return []model.Apu{}, nil
}
func (m *mockApuRepo) Create(ctx context.Context, apu *model.Apu) error {
	return nil
}
func (m *mockApuRepo) Update(ctx context.Context, apu *model.Apu) (bool, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, apu)
	}
	return true, nil
}
func (m *mockApuRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return true, nil
}

type mockPublisherRepo struct {
	deleteFn func(ctx context.Context, id uuid.UUID) (bool, error)
}

func (m *mockPublisherRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Publisher, error) {
	return nil, nil
}
func (m *mockPublisherRepo) Search(ctx context.Context, q string, page model.Page) ([]model.Publisher, error) {
	return []model.Publisher{}, nil
}
func (m *mockPublisherRepo) Create(ctx context.Context, p *model.Publisher) error {
	return nil
}
func (m *mockPublisherRepo) Update(ctx context.Context, p *model.Publisher) (bool, error) {
	return true, nil
}
func (m *mockPublisherRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return true, nil
}

type fixture struct {
	books      *mockBookRepo
	authors    *mockAuthorRepo
	bbks       *mockBbkRepo
	apus       *mockApuRepo
	publishers *mockPublisherRepo
}

func newTestService() (*Service, *fixture) {
	f := &fixture{
		books:      &mockBookRepo{},
		authors:    &mockAuthorRepo{},
		bbks:       &mockBbkRepo{},
		apus:       &mockApuRepo{},
		publishers: &mockPublisherRepo{},
	}
	svc := NewService(Repositories{
		Books:      f.books,
		Authors:    f.authors,
		Bbks:       f.bbks,
		Apus:       f.apus,
		Publishers: f.publishers,
	}, security.NewTextSanitizer())
	return svc, f
}

// assertAPIError はエラーが指定コードのAPIErrorであることを検証する。
func assertAPIError(t *testing.T, err error, code string) *model.APIError {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != code {
		t.Errorf("error code = %q, want %q", apiErr.Code, code)
	}
	return apiErr
}

// --- テスト ---

func TestCreateBook_SetsAvailableCopiesAndSanitizes(t *testing.T) {
	svc, f := newTestService()

	var saved *model.Book
	f.books.createFn = func(ctx context.Context, book *model.Book) error {
		saved = book
		return nil
	}

	id, err := svc.CreateBook(context.Background(), model.Book{
		Title:      "<b>The Hobbit</b>",
		Annotation: `<p>There and back</p><script>alert(1)</script>`,
		Copies:     4,
	})
	if err != nil {
		t.Fatalf("CreateBook() error: %v", err)
	}
	if id == uuid.Nil {
		t.Fatal("CreateBook() returned nil id")
	}
	if saved.ID != id {
		t.Errorf("saved ID = %s, want %s", saved.ID, id)
	}
	if saved.Title != "The Hobbit" {
		t.Errorf("Title = %q, want %q", saved.Title, "The Hobbit")
	}
	if saved.Annotation != "<p>There and back</p>" {
		t.Errorf("Annotation = %q, want script removed", saved.Annotation)
	}
	if saved.AvailableCopies != 4 {
		t.Errorf("AvailableCopies = %d, want 4", saved.AvailableCopies)
	}
}

func TestCreateBook_Validation(t *testing.T) {
	svc, f := newTestService()
	f.books.createFn = func(ctx context.Context, book *model.Book) error {
		t.Fatal("repository must not be called for invalid input")
		return nil
	}

	tests := []struct {
		name string
		book model.Book
	}{
		{"empty title", model.Book{Title: "   "}},
		{"markup only title", model.Book{Title: "<i></i>"}},
		{"negative copies", model.Book{Title: "Dune", Copies: -1}},
		{"negative year", model.Book{Title: "Dune", PublishYear: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateBook(context.Background(), tt.book)
			assertAPIError(t, err, model.ErrCodeDomain)
		})
	}
}

func TestCreateBook_UnknownReference(t *testing.T) {
	svc, f := newTestService()
	f.books.createFn = func(ctx context.Context, book *model.Book) error {
		return fmt.Errorf("failed to insert book: %w", repository.ErrReferenceNotFound)
	}

	_, err := svc.CreateBook(context.Background(), model.Book{Title: "Dune"})
	assertAPIError(t, err, model.ErrCodeDomain)
}

func TestUpdateBook_NotFound(t *testing.T) {
	svc, f := newTestService()
	f.books.updateFn = func(ctx context.Context, book *model.Book) (bool, error) {
		return false, nil
	}

	_, err := svc.UpdateBook(context.Background(), model.Book{ID: uuid.New(), Title: "Dune"})
	apiErr := assertAPIError(t, err, model.ErrCodeNotFound)
	if apiErr.Message != "Book not found" {
		t.Errorf("Message = %q, want %q", apiErr.Message, "Book not found")
	}
}

func TestUpdateBook_ReturnsStoredBook(t *testing.T) {
	svc, f := newTestService()
	id := uuid.New()
	f.books.findByIDFn = func(ctx context.Context, got uuid.UUID) (*model.Book, error) {
		return &model.Book{ID: got, Title: "Dune", Copies: 3, AvailableCopies: 2}, nil
	}

	book, err := svc.UpdateBook(context.Background(), model.Book{ID: id, Title: "Dune", Copies: 3})
	if err != nil {
		t.Fatalf("UpdateBook() error: %v", err)
	}
	if book.AvailableCopies != 2 {
		t.Errorf("AvailableCopies = %d, want 2", book.AvailableCopies)
	}
}

func TestReadBookByID_NotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ReadBookByID(context.Background(), uuid.New())
	assertAPIError(t, err, model.ErrCodeNotFound)
}

func TestReadBookByID_RepositoryError(t *testing.T) {
	svc, f := newTestService()
	f.books.findByIDFn = func(ctx context.Context, id uuid.UUID) (*model.Book, error) {
		return nil, errors.New("connection refused")
	}

	_, err := svc.ReadBookByID(context.Background(), uuid.New())
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Errorf("error = %v, want unclassified error", err)
	}
}

func TestReadBooksBy_BuildsSingleFilter(t *testing.T) {
	svc, f := newTestService()
	var got repository.BookQuery
	f.books.listFn = func(ctx context.Context, q repository.BookQuery, page model.Page) ([]model.Book, error) {
		got = q
		return []model.Book{}, nil
	}
	id := uuid.New()
	ctx := context.Background()
	page := model.Page{Size: 10}

	if _, err := svc.ReadBooksByAuthor(ctx, id, page); err != nil {
		t.Fatal(err)
	}
	if got.AuthorID == nil || *got.AuthorID != id || got.BbkID != nil || got.PublisherID != nil {
		t.Errorf("ReadBooksByAuthor query = %+v", got)
	}

	if _, err := svc.ReadBooksByBbk(ctx, id, page); err != nil {
		t.Fatal(err)
	}
	if got.BbkID == nil || got.AuthorID != nil {
		t.Errorf("ReadBooksByBbk query = %+v", got)
	}

	if _, err := svc.ReadBooksByPublisher(ctx, id, page); err != nil {
		t.Fatal(err)
	}
	if got.PublisherID == nil || got.BbkID != nil {
		t.Errorf("ReadBooksByPublisher query = %+v", got)
	}

	if _, err := svc.ReadBooksBySentence(ctx, " tolkien ", page); err != nil {
		t.Fatal(err)
	}
	if got.Sentence != "tolkien" {
		t.Errorf("Sentence = %q, want %q", got.Sentence, "tolkien")
	}
}

func TestReadBooksBySentence_Empty(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ReadBooksBySentence(context.Background(), "<br>", model.Page{})
	assertAPIError(t, err, model.ErrCodeMissingParameter)
}

func TestCreateAuthor(t *testing.T) {
	svc, _ := newTestService()

	author, err := svc.CreateAuthor(context.Background(), model.Author{Name: " J.R.R. ", Surname: "Tolkien"})
	if err != nil {
		t.Fatalf("CreateAuthor() error: %v", err)
	}
	if author.ID == uuid.Nil {
		t.Error("ID was not assigned")
	}
	if author.Name != "J.R.R." {
		t.Errorf("Name = %q, want %q", author.Name, "J.R.R.")
	}

	_, err = svc.CreateAuthor(context.Background(), model.Author{Surname: "Tolkien"})
	assertAPIError(t, err, model.ErrCodeDomain)
}

func TestReadAuthorByID_NotFoundMessage(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ReadAuthorByID(context.Background(), uuid.New())
	apiErr := assertAPIError(t, err, model.ErrCodeNotFound)
	if apiErr.Message != "Author not found" {
		t.Errorf("Message = %q, want %q", apiErr.Message, "Author not found")
	}
}

func TestDeleteAuthor_NotFound(t *testing.T) {
	svc, f := newTestService()
	f.authors.deleteFn = func(ctx context.Context, id uuid.UUID) (bool, error) {
		return false, nil
	}

	err := svc.DeleteAuthor(context.Background(), uuid.New())
	assertAPIError(t, err, model.ErrCodeNotFound)
}

func TestCreateBbk_Duplicate(t *testing.T) {
	svc, f := newTestService()
	f.bbks.createFn = func(ctx context.Context, bbk *model.Bbk) error {
		return fmt.Errorf("failed to insert bbk: %w", repository.ErrDuplicate)
	}

	_, err := svc.CreateBbk(context.Background(), model.Bbk{Code: "84(2Рос=Рус)"})
	apiErr := assertAPIError(t, err, model.ErrCodeDuplicate)
	if apiErr.Message != "Bbk already exists" {
		t.Errorf("Message = %q, want %q", apiErr.Message, "Bbk already exists")
	}
}

func TestUpdateApu_ReturnsResult(t *testing.T) {
	svc, _ := newTestService()
	id := uuid.New()

	apu, err := svc.UpdateApu(context.Background(), model.Apu{ID: id, Term: " <em>Fantasy</em> "})
	if err != nil {
		t.Fatalf("UpdateApu() error: %v", err)
	}
	if apu.ID != id || apu.Term != "Fantasy" {
		t.Errorf("UpdateApu() = %+v", apu)
	}
}

func TestDeletePublisher_RepositoryError(t *testing.T) {
	svc, f := newTestService()
	f.publishers.deleteFn = func(ctx context.Context, id uuid.UUID) (bool, error) {
		return false, errors.New("boom")
	}

	err := svc.DeletePublisher(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("DeletePublisher() error = nil")
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Errorf("error = %v, want unclassified error", err)
	}
}
