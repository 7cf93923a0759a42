// Package usecase はハンドラーから呼び出されるユースケースのインターフェースを定義する。
// 1インターフェース1メソッドとし、ハンドラーは必要なものだけを受け取る。
package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/hitoshi/bookshelf/internal/model"
)

// --- 蔵書 ---

type CreateBook interface {
	CreateBook(ctx context.Context, book model.Book) (uuid.UUID, error)
}

type UpdateBook interface {
	UpdateBook(ctx context.Context, book model.Book) (*model.Book, error)
}

type DeleteBook interface {
	DeleteBook(ctx context.Context, id uuid.UUID) error
}

// ReadBookByID は存在しない場合にNotFoundエラーを返す。
type ReadBookByID interface {
	ReadBookByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
}

type ReadBooks interface {
	ReadBooks(ctx context.Context, page model.Page) ([]model.Book, error)
}

type ReadBooksByAuthor interface {
	ReadBooksByAuthor(ctx context.Context, authorID uuid.UUID, page model.Page) ([]model.Book, error)
}

type ReadBooksByBbk interface {
	ReadBooksByBbk(ctx context.Context, bbkID uuid.UUID, page model.Page) ([]model.Book, error)
}

type ReadBooksByPublisher interface {
	ReadBooksByPublisher(ctx context.Context, publisherID uuid.UUID, page model.Page) ([]model.Book, error)
}

// ReadBooksBySentence は書名・注記の部分一致で検索する。
type ReadBooksBySentence interface {
	ReadBooksBySentence(ctx context.Context, sentence string, page model.Page) ([]model.Book, error)
}

// --- 著者 ---

type CreateAuthor interface {
	CreateAuthor(ctx context.Context, author model.Author) (*model.Author, error)
}

type UpdateAuthor interface {
	UpdateAuthor(ctx context.Context, author model.Author) (*model.Author, error)
}

type DeleteAuthor interface {
	DeleteAuthor(ctx context.Context, id uuid.UUID) error
}

type ReadAuthorByID interface {
	ReadAuthorByID(ctx context.Context, id uuid.UUID) (*model.Author, error)
}

type ReadAuthors interface {
	ReadAuthors(ctx context.Context, q string, page model.Page) ([]model.Author, error)
}

// --- BBK分類 ---

type CreateBbk interface {
	CreateBbk(ctx context.Context, bbk model.Bbk) (*model.Bbk, error)
}

type UpdateBbk interface {
	UpdateBbk(ctx context.Context, bbk model.Bbk) (*model.Bbk, error)
}

type DeleteBbk interface {
	DeleteBbk(ctx context.Context, id uuid.UUID) error
}

type ReadBbkByID interface {
	ReadBbkByID(ctx context.Context, id uuid.UUID) (*model.Bbk, error)
}

type ReadBbks interface {
	ReadBbks(ctx context.Context, q string, page model.Page) ([]model.Bbk, error)
}

// --- 件名索引 ---

type CreateApu interface {
	CreateApu(ctx context.Context, apu model.Apu) (*model.Apu, error)
}

type UpdateApu interface {
	UpdateApu(ctx context.Context, apu model.Apu) (*model.Apu, error)
}

type DeleteApu interface {
	DeleteApu(ctx context.Context, id uuid.UUID) error
}

type ReadApuByID interface {
	ReadApuByID(ctx context.Context, id uuid.UUID) (*model.Apu, error)
}

type ReadApus interface {
	ReadApus(ctx context.Context, q string, page model.Page) ([]model.Apu, error)
}

// --- 出版社 ---

type CreatePublisher interface {
	CreatePublisher(ctx context.Context, publisher model.Publisher) (*model.Publisher, error)
}

type UpdatePublisher interface {
	UpdatePublisher(ctx context.Context, publisher model.Publisher) (*model.Publisher, error)
}

type DeletePublisher interface {
	DeletePublisher(ctx context.Context, id uuid.UUID) error
}

type ReadPublisherByID interface {
	ReadPublisherByID(ctx context.Context, id uuid.UUID) (*model.Publisher, error)
}

type ReadPublishers interface {
	ReadPublishers(ctx context.Context, q string, page model.Page) ([]model.Publisher, error)
}

// --- 利用者 ---

// CreateUser はパスワードをハッシュ化して利用者を登録する。
type CreateUser interface {
	CreateUser(ctx context.Context, user model.User) (*model.User, error)
}

type UpdateUser interface {
	UpdateUser(ctx context.Context, user model.User) (*model.User, error)
}

type DeleteUser interface {
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type ReadUserByID interface {
	ReadUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// ReadUsers は電話番号の部分一致で利用者を検索する。
type ReadUsers interface {
	ReadUsers(ctx context.Context, phone string, page model.Page) ([]model.User, error)
}

// --- 取り置き ---

type CreateReservation interface {
	CreateReservation(ctx context.Context, reservation model.Reservation) (*model.Reservation, error)
}

type UpdateReservation interface {
	UpdateReservation(ctx context.Context, reservation model.Reservation) (*model.Reservation, error)
}

type DeleteReservation interface {
	DeleteReservation(ctx context.Context, id uuid.UUID) error
}

type ReadReservations interface {
	ReadReservations(ctx context.Context, filter model.CirculationFilter, page model.Page) ([]model.Reservation, error)
}

// --- 貸出待ち ---

type CreateQueueEntry interface {
	CreateQueueEntry(ctx context.Context, entry model.QueueEntry) (*model.QueueEntry, error)
}

type UpdateQueueEntry interface {
	UpdateQueueEntry(ctx context.Context, entry model.QueueEntry) (*model.QueueEntry, error)
}

type DeleteQueueEntry interface {
	DeleteQueueEntry(ctx context.Context, id uuid.UUID) error
}

type ReadQueueEntries interface {
	ReadQueueEntries(ctx context.Context, filter model.CirculationFilter, page model.Page) ([]model.QueueEntry, error)
}

// --- 貸出 ---

type CreateIssuance interface {
	CreateIssuance(ctx context.Context, issuance model.Issuance) (*model.Issuance, error)
}

type UpdateIssuance interface {
	UpdateIssuance(ctx context.Context, issuance model.Issuance) (*model.Issuance, error)
}

type DeleteIssuance interface {
	DeleteIssuance(ctx context.Context, id uuid.UUID) error
}

type ReadIssuances interface {
	ReadIssuances(ctx context.Context, filter model.CirculationFilter, page model.Page) ([]model.Issuance, error)
}

// --- お気に入り ---

type AddFavorite interface {
	AddFavorite(ctx context.Context, userID, bookID uuid.UUID) (*model.Favorite, error)
}

type RemoveFavorite interface {
	RemoveFavorite(ctx context.Context, userID, bookID uuid.UUID) error
}

type ReadFavoriteBooks interface {
	ReadFavoriteBooks(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.Book, error)
}

// --- 認証 ---

// LoginUser は資格情報が一致しない場合に (nil, nil) を返す。
type LoginUser interface {
	LoginUser(ctx context.Context, phoneNumber, password string) (*model.User, error)
}

// IssueToken は利用者に対するアクセストークンを発行する。
type IssueToken interface {
	Issue(user *model.User) (string, error)
}
