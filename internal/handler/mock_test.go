package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/hitoshi/bookshelf/internal/model"
)

// --- モック定義 ---

// mockVerifier はトークン文字列をそのままPrincipalに対応付けるTokenVerifierのモック。
type mockVerifier struct {
	principals map[string]*model.Principal
}

func (m *mockVerifier) Verify(token string) (*model.Principal, error) {
	if p, ok := m.principals[token]; ok {
		return p, nil
	}
	return nil, errors.New("token is malformed")
}

var (
	readerID    = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	librarianID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	moderatorID = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

const (
	readerToken    = "reader-token"
	librarianToken = "librarian-token"
	moderatorToken = "moderator-token"
)

func newMockVerifier() *mockVerifier {
	return &mockVerifier{principals: map[string]*model.Principal{
		readerToken:    {UserID: readerID, Email: "reader@example.com", Role: model.RoleReader},
		librarianToken: {UserID: librarianID, Email: "librarian@example.com", Role: model.RoleLibrarian},
		moderatorToken: {UserID: moderatorID, Email: "moderator@example.com", Role: model.RoleModerator},
	}}
}

// mockCatalog はカタログ系ユースケースのモック。
// 未設定のメソッドはゼロ値を返し、呼び出し回数をcallsに記録する。
type mockCatalog struct {
	calls int

	createBookFn          func(ctx context.Context, book model.Book) (uuid.UUID, error)
	updateBookFn          func(ctx context.Context, book model.Book) (*model.Book, error)
	readBookByIDFn        func(ctx context.Context, id uuid.UUID) (*model.Book, error)
	readBooksFn           func(ctx context.Context, page model.Page) ([]model.Book, error)
	readBooksByAuthorFn   func(ctx context.Context, id uuid.UUID, page model.Page) ([]model.Book, error)
	readBooksBySentenceFn func(ctx context.Context, sentence string, page model.Page) ([]model.Book, error)
	readAuthorByIDFn      func(ctx context.Context, id uuid.UUID) (*model.Author, error)
	createAuthorFn        func(ctx context.Context, author model.Author) (*model.Author, error)
	updateAuthorFn        func(ctx context.Context, author model.Author) (*model.Author, error)
	updateApuFn           func(ctx context.Context, apu model.Apu) (*model.Apu, error)
	updateBbkFn           func(ctx context.Context, bbk model.Bbk) (*model.Bbk, error)
	readPublishersFn      func(ctx context.Context, q string, page model.Page) ([]model.Publisher, error)
}

func (m *mockCatalog) CreateBook(ctx context.Context, book model.Book) (uuid.UUID, error) {
	m.calls++
	if m.createBookFn != nil {
		return m.createBookFn(ctx, book)
	}
	return uuid.New(), nil
}

func (m *mockCatalog) UpdateBook(ctx context.Context, book model.Book) (*model.Book, error) {
	m.calls++
	if m.updateBookFn != nil {
		return m.updateBookFn(ctx, book)
	}
	return &book, nil
}

func (m *mockCatalog) DeleteBook(ctx context.Context, id uuid.UUID) error {
	m.calls++
	return nil
}

func (m *mockCatalog) ReadBookByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	m.calls++
	if m.readBookByIDFn != nil {
		return m.readBookByIDFn(ctx, id)
	}
	return &model.Book{ID: id}, nil
}

func (m *mockCatalog) ReadBooks(ctx context.Context, page model.Page) ([]model.Book, error) {
	m.calls++
	if m.readBooksFn != nil {
		return m.readBooksFn(ctx, page)
	}
	return nil, nil
}

func (m *mockCatalog) ReadBooksByAuthor(ctx context.Context, id uuid.UUID, page model.Page) ([]model.Book, error) {
	m.calls++
	if m.readBooksByAuthorFn != nil {
		return m.readBooksByAuthorFn(ctx, id, page)
	}
	return nil, nil
}

func (m *mockCatalog) ReadBooksByBbk(ctx context.Context, id uuid.UUID, page model.Page) ([]model.Book, error) {
	m.calls++
	return nil, nil
}

func (m *mockCatalog) ReadBooksByPublisher(ctx context.Context, id uuid.UUID, page model.Page) ([]model.Book, error) {
	m.calls++
	return nil, nil
}

func (m *mockCatalog) ReadBooksBySentence(ctx context.Context, sentence string, page model.Page) ([]model.Book, error) {
	m.calls++
	if m.readBooksBySentenceFn != nil {
		return m.readBooksBySentenceFn(ctx, sentence, page)
	}
	return nil, nil
}

func (m *mockCatalog) CreateAuthor(ctx context.Context, author model.Author) (*model.Author, error) {
	m.calls++
	if m.createAuthorFn != nil {
		return m.createAuthorFn(ctx, author)
	}
	author.ID = uuid.New()
	return &author, nil
}

func (m *mockCatalog) UpdateAuthor(ctx context.Context, author model.Author) (*model.Author, error) {
	m.calls++
	if m.updateAuthorFn != nil {
		return m.updateAuthorFn(ctx, author)
	}
	return &author, nil
}

func (m *mockCatalog) DeleteAuthor(ctx context.Context, id uuid.UUID) error {
	m.calls++
	return nil
}

func (m *mockCatalog) ReadAuthorByID(ctx context.Context, id uuid.UUID) (*model.Author, error) {
	m.calls++
	if m.readAuthorByIDFn != nil {
		return m.readAuthorByIDFn(ctx, id)
	}
	return &model.Author{ID: id}, nil
}

func (m *mockCatalog) ReadAuthors(ctx context.Context, q string, page model.Page) ([]model.Author, error) {
	m.calls++
	return nil, nil
}

func (m *mockCatalog) CreateBbk(ctx context.Context, bbk model.Bbk) (*model.Bbk, error) {
	m.calls++
	bbk.ID = uuid.New()
	return &bbk, nil
}

func (m *mockCatalog) UpdateBbk(ctx context.Context, bbk model.Bbk) (*model.Bbk, error) {
	m.calls++
	if m.updateBbkFn != nil {
		return m.updateBbkFn(ctx, bbk)
	}
	return &bbk, nil
}

func (m *mockCatalog) DeleteBbk(ctx context.Context, id uuid.UUID) error {
	m.calls++
	return nil
}

func (m *mockCatalog) ReadBbkByID(ctx context.Context, id uuid.UUID) (*model.Bbk, error) {
	m.calls++
	return &model.Bbk{ID: id}, nil
}

func (m *mockCatalog) ReadBbks(ctx context.Context, q string, page model.Page) ([]model.Bbk, error) {
	m.calls++
	return nil, nil
}

func (m *mockCatalog) CreateApu(ctx context.Context, apu model.Apu) (*model.Apu, error) {
	m.calls++
	apu.ID = uuid.New()
	return &apu, nil
}

func (m *mockCatalog) UpdateApu(ctx context.Context, apu model.Apu) (*model.Apu, error) {
	m.calls++
	if m.updateApuFn != nil {
		return m.updateApuFn(ctx, apu)
	}
	return &apu, nil
}

func (m *mockCatalog) DeleteApu(ctx context.Context, id uuid.UUID) error {
	m.calls++
	return nil
}

func (m *mockCatalog) ReadApuByID(ctx context.Context, id uuid.UUID) (*model.Apu, error) {
	m.calls++
	return &model.Apu{ID: id}, nil
}

func (m *mockCatalog) ReadApus(ctx context.Context, q string, page model.Page) ([]model.Apu, error) {
	m.calls++
	return nil, nil
}

func (m *mockCatalog) CreatePublisher(ctx context.Context, publisher model.Publisher) (*model.Publisher, error) {
	m.calls++
	publisher.ID = uuid.New()
	return &publisher, nil
}

func (m *mockCatalog) UpdatePublisher(ctx context.Context, publisher model.Publisher) (*model.Publisher, error) {
	m.calls++
	return &publisher, nil
}

func (m *mockCatalog) DeletePublisher(ctx context.Context, id uuid.UUID) error {
	m.calls++
	return nil
}

func (m *mockCatalog) ReadPublisherByID(ctx context.Context, id uuid.UUID) (*model.Publisher, error) {
	m.calls++
	return &model.Publisher{ID: id}, nil
}

func (m *mockCatalog) ReadPublishers(ctx context.Context, q string, page model.Page) ([]model.Publisher, error) {
	m.calls++
	if m.readPublishersFn != nil {
		return m.readPublishersFn(ctx, q, page)
	}
	return nil, nil
}

// mockPeople は利用者・貸出業務・ログインのユースケースのモック。
type mockPeople struct {
	calls int

	createUserFn       func(ctx context.Context, user model.User) (*model.User, error)
	readUserByIDFn     func(ctx context.Context, id uuid.UUID) (*model.User, error)
	readReservationsFn func(ctx context.Context, filter model.CirculationFilter, page model.Page) ([]model.Reservation, error)
	createIssuanceFn   func(ctx context.Context, issuance model.Issuance) (*model.Issuance, error)
	updateIssuanceFn   func(ctx context.Context, issuance model.Issuance) (*model.Issuance, error)
	addFavoriteFn      func(ctx context.Context, userID, bookID uuid.UUID) (*model.Favorite, error)
	loginUserFn        func(ctx context.Context, phoneNumber, password string) (*model.User, error)
	issueFn            func(user *model.User) (string, error)
}

func (m *mockPeople) CreateUser(ctx context.Context, user model.User) (*model.User, error) {
	m.calls++
	if m.createUserFn != nil {
		return m.createUserFn(ctx, user)
	}
	user.ID = uuid.New()
	return &user, nil
}

func (m *mockPeople) UpdateUser(ctx context.Context, user model.User) (*model.User, error) {
	m.calls++
	return &user, nil
}

func (m *mockPeople) DeleteUser(ctx context.Context, id uuid.UUID) error {
	m.calls++
	return nil
}

func (m *mockPeople) ReadUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	m.calls++
	if m.readUserByIDFn != nil {
		return m.readUserByIDFn(ctx, id)
	}
	return &model.User{ID: id}, nil
}

func (m *mockPeople) ReadUsers(ctx context.Context, phone string, page model.Page) ([]model.User, error) {
	m.calls++
	return nil, nil
}

func (m *mockPeople) CreateReservation(ctx context.Context, r model.Reservation) (*model.Reservation, error) {
	m.calls++
	r.ID = uuid.New()
	return &r, nil
}

func (m *mockPeople) UpdateReservation(ctx context.Context, r model.Reservation) (*model.Reservation, error) {
	m.calls++
	return &r, nil
}

func (m *mockPeople) DeleteReservation(ctx context.Context, id uuid.UUID) error {
	m.calls++
	return nil
}

func (m *mockPeople) ReadReservations(ctx context.Context, filter model.CirculationFilter, page model.Page) ([]model.Reservation, error) {
	m.calls++
	if m.readReservationsFn != nil {
		return m.readReservationsFn(ctx, filter, page)
	}
	return nil, nil
}

func (m *mockPeople) CreateQueueEntry(ctx context.Context, e model.QueueEntry) (*model.QueueEntry, error) {
	m.calls++
	e.ID = uuid.New()
	e.Position = 1
	return &e, nil
}

func (m *mockPeople) UpdateQueueEntry(ctx context.Context, e model.QueueEntry) (*model.QueueEntry, error) {
	m.calls++
	return &e, nil
}

func (m *mockPeople) DeleteQueueEntry(ctx context.Context, id uuid.UUID) error {
	m.calls++
	return nil
}

func (m *mockPeople) ReadQueueEntries(ctx context.Context, filter model.CirculationFilter, page model.Page) ([]model.QueueEntry, error) {
	m.calls++
	return nil, nil
}

func (m *mockPeople) CreateIssuance(ctx context.Context, i model.Issuance) (*model.Issuance, error) {
	m.calls++
	if m.createIssuanceFn != nil {
		return m.createIssuanceFn(ctx, i)
	}
	i.ID = uuid.New()
	return &i, nil
}

func (m *mockPeople) UpdateIssuance(ctx context.Context, i model.Issuance) (*model.Issuance, error) {
	m.calls++
	if m.updateIssuanceFn != nil {
		return m.updateIssuanceFn(ctx, i)
	}
	return &i, nil
}

func (m *mockPeople) DeleteIssuance(ctx context.Context, id uuid.UUID) error {
	m.calls++
	return nil
}

func (m *mockPeople) ReadIssuances(ctx context.Context, filter model.CirculationFilter, page model.Page) ([]model.Issuance, error) {
	m.calls++
	return nil, nil
}

func (m *mockPeople) AddFavorite(ctx context.Context, userID, bookID uuid.UUID) (*model.Favorite, error) {
	m.calls++
	if m.addFavoriteFn != nil {
		return m.addFavoriteFn(ctx, userID, bookID)
	}
	return &model.Favorite{UserID: userID, BookID: bookID}, nil
}

func (m *mockPeople) RemoveFavorite(ctx context.Context, userID, bookID uuid.UUID) error {
	m.calls++
	return nil
}

func (m *mockPeople) ReadFavoriteBooks(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.Book, error) {
	m.calls++
	return nil, nil
}

func (m *mockPeople) LoginUser(ctx context.Context, phoneNumber, password string) (*model.User, error) {
	m.calls++
	if m.loginUserFn != nil {
		return m.loginUserFn(ctx, phoneNumber, password)
	}
	return nil, nil
}

func (m *mockPeople) Issue(user *model.User) (string, error) {
	if m.issueFn != nil {
		return m.issueFn(user)
	}
	return "signed-token", nil
}

// mockHealthChecker はHealthCheckerのモック。
type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}

// --- テストヘルパー ---

type testEnv struct {
	catalog *mockCatalog
	people  *mockPeople
	deps    *RouterDeps
}

// newTestEnv はモックで構成したRouterDepsを返す。
func newTestEnv() *testEnv {
	c := &mockCatalog{}
	p := &mockPeople{}
	deps := &RouterDeps{
		HealthChecker: &mockHealthChecker{},
		TokenVerifier: newMockVerifier(),
		APIV1Enabled:  true,

		Login:  p,
		Tokens: p,

		Books: BookUseCases{
			Create: c, Update: c, Delete: c, ReadByID: c, Read: c,
			ReadByAuthor: c, ReadByBbk: c, ReadByPublisher: c, ReadBySearch: c,
		},
		Authors:    AuthorUseCases{Create: c, Update: c, Delete: c, ReadByID: c, Read: c},
		Bbks:       BbkUseCases{Create: c, Update: c, Delete: c, ReadByID: c, Read: c},
		Apus:       ApuUseCases{Create: c, Update: c, Delete: c, ReadByID: c, Read: c},
		Publishers: PublisherUseCases{Create: c, Update: c, Delete: c, ReadByID: c, Read: c},

		Users:        UserUseCases{Create: p, Update: p, Delete: p, ReadByID: p, Read: p},
		Reservations: ReservationUseCases{Create: p, Update: p, Delete: p, Read: p},
		Queue:        QueueUseCases{Create: p, Update: p, Delete: p, Read: p},
		Issuances:    IssuanceUseCases{Create: p, Update: p, Delete: p, Read: p},
		Favorites:    FavoriteUseCases{Add: p, Remove: p, ReadBooks: p},
	}
	return &testEnv{catalog: c, people: p, deps: deps}
}

func (e *testEnv) calls() int {
	return e.catalog.calls + e.people.calls
}

// serve はルーター全体を通してリクエストを処理する。
func (e *testEnv) serve(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		buf, _ := json.Marshal(b)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	NewRouter(e.deps).ServeHTTP(w, req)
	return w
}

// errorMessage はエラーレスポンスのメッセージを取り出す。
func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v (body=%q)", err, w.Body.String())
	}
	return body.Error
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Errorf("status = %d, want %d (body=%s)", w.Code, want, w.Body.String())
	}
}
