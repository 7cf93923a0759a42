// Package circulation は取り置き、貸出待ち行列、貸出、お気に入りのドメインロジックを提供する。
package circulation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/repository"
)

// Config は流通処理の期間設定。
type Config struct {
	ReservationTTL time.Duration // 取り置きの有効期間
	LoanPeriod     time.Duration // 貸出から返却期限までの期間
}

// Repositories はServiceが使用するリポジトリの集合。
type Repositories struct {
	Reservations repository.ReservationRepository
	Queue        repository.QueueRepository
	Issuances    repository.IssuanceRepository
	Favorites    repository.FavoriteRepository
}

// Service は流通処理のサービス層。
type Service struct {
	reservations repository.ReservationRepository
	queue        repository.QueueRepository
	issuances    repository.IssuanceRepository
	favorites    repository.FavoriteRepository
	config       Config
	now          func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repos Repositories, config Config) *Service {
	return &Service{
		reservations: repos.Reservations,
		queue:        repos.Queue,
		issuances:    repos.Issuances,
		favorites:    repos.Favorites,
		config:       config,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// requireIDs は蔵書IDと利用者IDが指定されていることを検証する。
func requireIDs(bookID, userID uuid.UUID) error {
	if bookID == uuid.Nil {
		return model.NewParameterError("bookId is required")
	}
	if userID == uuid.Nil {
		return model.NewParameterError("userId is required")
	}
	return nil
}

// translate はリポジトリのエラーをAPIエラーに変換する。
func translate(err error, resource, op string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return model.NewDuplicateError(resource + " already exists")
	case errors.Is(err, repository.ErrReferenceNotFound):
		return model.NewDomainError("Referenced book or user does not exist")
	}
	return fmt.Errorf("failed to %s %s: %w", op, strings.ToLower(resource), err)
}

func found(ok bool, err error, resource, op string) error {
	if err != nil {
		return translate(err, resource, op)
	}
	if !ok {
		return model.NewNotFoundError(resource)
	}
	return nil
}
