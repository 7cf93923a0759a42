// Package user は利用者管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/repository"
	"github.com/hitoshi/bookshelf/internal/security"
)

const resourceUser = "User"

// Service は利用者管理のサービス層。
// パスワードはハッシュ化して保存し、返却する利用者には含めない。
type Service struct {
	userRepo  repository.UserRepository
	hasher    security.PasswordHasher
	sanitizer security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	hasher security.PasswordHasher,
	sanitizer security.TextSanitizer,
) *Service {
	return &Service{
		userRepo:  userRepo,
		hasher:    hasher,
		sanitizer: sanitizer,
	}
}

func (s *Service) clean(u *model.User) {
	u.Name = s.sanitizer.Plain(u.Name)
	u.Surname = s.sanitizer.Plain(u.Surname)
	u.Email = strings.ToLower(s.sanitizer.Plain(u.Email))
	u.PhoneNumber = s.sanitizer.Plain(u.PhoneNumber)
}

// MessageRoleAssignmentForbidden は新規登録でREADER以外のロールを指定した場合のメッセージ。
const MessageRoleAssignmentForbidden = "Only moderators can assign roles"

// CreateUser は利用者を登録する。新規登録は常にREADERとし、
// 他のロールは認証済みMODERATORによる更新でのみ付与できる。
func (s *Service) CreateUser(ctx context.Context, u model.User) (*model.User, error) {
	s.clean(&u)
	if u.PhoneNumber == "" {
		return nil, model.NewDomainError("phoneNumber is required")
	}
	if u.Email == "" {
		return nil, model.NewDomainError("email is required")
	}
	if u.Password == "" {
		return nil, model.NewDomainError("password is required")
	}
	if u.Role != "" && u.Role != model.RoleReader {
		return nil, model.NewForbiddenError(MessageRoleAssignmentForbidden)
	}
	u.Role = model.RoleReader

	hash, err := s.hasher.Hash(u.Password)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}
	u.ID = uuid.New()
	u.PasswordHash = hash
	u.CreatedAt = time.Now().UTC()

	if err := s.userRepo.Create(ctx, &u); err != nil {
		return nil, translate(err, "create")
	}

	slog.Info("利用者を登録しました",
		slog.String("user_id", u.ID.String()),
		slog.String("role", string(u.Role)),
	)
	out := u.Sanitized()
	return &out, nil
}

// UpdateUser は利用者を更新する。パスワードが空の場合は変更しない。
func (s *Service) UpdateUser(ctx context.Context, u model.User) (*model.User, error) {
	s.clean(&u)
	if u.Role != "" {
		if _, err := model.ParseRole(string(u.Role)); err != nil {
			return nil, model.NewDomainError(fmt.Sprintf("Unknown role: %s", u.Role))
		}
	}
	u.PasswordHash = ""
	if u.Password != "" {
		hash, err := s.hasher.Hash(u.Password)
		if err != nil {
			return nil, fmt.Errorf("ユーザーの更新に失敗しました: %w", err)
		}
		u.PasswordHash = hash
	}

	ok, err := s.userRepo.Update(ctx, &u)
	if err != nil {
		return nil, translate(err, "update")
	}
	if !ok {
		return nil, model.NewNotFoundError(resourceUser)
	}
	out := u.Sanitized()
	return &out, nil
}

// DeleteUser は利用者を削除する。取り置き・貸出等はCASCADE削除される。
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	ok, err := s.userRepo.Delete(ctx, id)
	if err != nil {
		return translate(err, "delete")
	}
	if !ok {
		return model.NewNotFoundError(resourceUser)
	}
	slog.Info("利用者を削除しました", slog.String("user_id", id.String()))
	return nil
}

func (s *Service) ReadUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "read")
	}
	if u == nil {
		return nil, model.NewNotFoundError(resourceUser)
	}
	out := u.Sanitized()
	return &out, nil
}

// ReadUsers は電話番号の部分一致で利用者を検索する。
func (s *Service) ReadUsers(ctx context.Context, phone string, page model.Page) ([]model.User, error) {
	users, err := s.userRepo.Search(ctx, s.sanitizer.Plain(phone), page)
	if err != nil {
		return nil, translate(err, "list")
	}
	for i := range users {
		users[i] = users[i].Sanitized()
	}
	return users, nil
}

func translate(err error, op string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return model.NewDuplicateError("User with this email or phone number already exists")
	}
	return fmt.Errorf("failed to %s user: %w", op, err)
}
