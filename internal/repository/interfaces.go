// Package repository はデータ永続化のインターフェースと実装を提供する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/bookshelf/internal/model"
)

var (
	// ErrDuplicate は一意制約違反を表す。
	ErrDuplicate = errors.New("duplicate record")
	// ErrReferenceNotFound は外部キーの参照先が存在しないことを表す。
	ErrReferenceNotFound = errors.New("referenced record not found")
	// ErrNoAvailableCopies は貸出可能な冊数が0であることを表す。
	ErrNoAvailableCopies = errors.New("no available copies")
)

// BookQuery は蔵書一覧の検索条件。
// ゼロ値のフィールドは条件に含めない。
type BookQuery struct {
	AuthorID    *uuid.UUID
	BbkID       *uuid.UUID
	PublisherID *uuid.UUID
	Sentence    string
}

// BookRepository は蔵書データの永続化インターフェース。
type BookRepository interface {
	// FindByID は指定IDの蔵書を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
	// List は条件に一致する蔵書を書名順に返す。
	List(ctx context.Context, q BookQuery, page model.Page) ([]model.Book, error)
	Create(ctx context.Context, book *model.Book) error
	// Update は蔵書を更新する。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, book *model.Book) (bool, error)
	// Delete は蔵書を削除する。対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// AuthorRepository は著者データの永続化インターフェース。
type AuthorRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Author, error)
	// Search は姓名の部分一致で著者を検索する。qが空の場合は全件を対象とする。
	Search(ctx context.Context, q string, page model.Page) ([]model.Author, error)
	Create(ctx context.Context, author *model.Author) error
	Update(ctx context.Context, author *model.Author) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// BbkRepository はBBK分類データの永続化インターフェース。
type BbkRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Bbk, error)
	// Search はコードの前方一致または説明の部分一致で検索する。
	Search(ctx context.Context, q string, page model.Page) ([]model.Bbk, error)
	Create(ctx context.Context, bbk *model.Bbk) error
	Update(ctx context.Context, bbk *model.Bbk) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// ApuRepository は件名索引データの永続化インターフェース。
type ApuRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Apu, error)
	Search(ctx context.Context, q string, page model.Page) ([]model.Apu, error)
	Create(ctx context.Context, apu *model.Apu) error
	Update(ctx context.Context, apu *model.Apu) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// PublisherRepository は出版社データの永続化インターフェース。
type PublisherRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Publisher, error)
	Search(ctx context.Context, q string, page model.Page) ([]model.Publisher, error)
	Create(ctx context.Context, publisher *model.Publisher) error
	Update(ctx context.Context, publisher *model.Publisher) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// UserRepository は利用者データの永続化インターフェース。
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// FindByPhone は電話番号で利用者を取得する。見つからない場合はnilを返す。
	FindByPhone(ctx context.Context, phone string) (*model.User, error)
	// Search は電話番号の部分一致で利用者を検索する。
	Search(ctx context.Context, phone string, page model.Page) ([]model.User, error)
	Create(ctx context.Context, user *model.User) error
	// Update は利用者を更新する。RoleとPasswordHashが空の場合は変更しない。
	Update(ctx context.Context, user *model.User) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// ReservationRepository は取り置きデータの永続化インターフェース。
type ReservationRepository interface {
	List(ctx context.Context, filter model.CirculationFilter, page model.Page) ([]model.Reservation, error)
	// ExistsActive は指定時刻に有効な同一利用者・同一蔵書の取り置きがあるかを返す。
	ExistsActive(ctx context.Context, userID, bookID uuid.UUID, at time.Time) (bool, error)
	Create(ctx context.Context, reservation *model.Reservation) error
	Update(ctx context.Context, reservation *model.Reservation) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	// DeleteExpired は期限切れの取り置きを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// QueueRepository は貸出待ち行列データの永続化インターフェース。
type QueueRepository interface {
	List(ctx context.Context, filter model.CirculationFilter, page model.Page) ([]model.QueueEntry, error)
	Exists(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
	// Create は蔵書ごとの末尾の位置でエントリを作成し、Positionを設定する。
	Create(ctx context.Context, entry *model.QueueEntry) error
	Update(ctx context.Context, entry *model.QueueEntry) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// IssuanceRepository は貸出データの永続化インターフェース。
// 貸出と返却に伴う蔵書の貸出可能冊数の増減は同一トランザクションで行う。
type IssuanceRepository interface {
	List(ctx context.Context, filter model.CirculationFilter, page model.Page) ([]model.Issuance, error)
	// Create は貸出可能冊数を1減らして貸出を記録する。
	// 冊数が0の場合はErrNoAvailableCopiesを返す。
	Create(ctx context.Context, issuance *model.Issuance) error
	// Update は貸出を更新し、返却状態の変化に応じて貸出可能冊数を調整する。
	Update(ctx context.Context, issuance *model.Issuance) (bool, error)
	// Delete は貸出を削除し、未返却であれば貸出可能冊数を戻す。
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// FavoriteRepository はお気に入りデータの永続化インターフェース。
type FavoriteRepository interface {
	Create(ctx context.Context, favorite *model.Favorite) error
	Delete(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
	// ListBooks は利用者のお気に入り蔵書を登録の新しい順に返す。
	ListBooks(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.Book, error)
}
