// Package auth はトークンの発行・検証とログイン時の資格情報照合を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/repository"
	"github.com/hitoshi/bookshelf/internal/security"
)

// LoginService は電話番号とパスワードによるログインを処理する。
type LoginService struct {
	userRepo repository.UserRepository
	hasher   security.PasswordHasher
}

// NewLoginService はLoginServiceを生成する。
func NewLoginService(userRepo repository.UserRepository, hasher security.PasswordHasher) *LoginService {
	return &LoginService{userRepo: userRepo, hasher: hasher}
}

// LoginUser は資格情報を照合し、一致した利用者を返す。
// 利用者が存在しない、またはパスワードが一致しない場合は (nil, nil) を返す。
func (s *LoginService) LoginUser(ctx context.Context, phoneNumber, password string) (*model.User, error) {
	if phoneNumber == "" || password == "" {
		return nil, nil
	}

	user, err := s.userRepo.FindByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by phone: %w", err)
	}
	if user == nil {
		slog.Debug("login attempt for unknown phone number")
		return nil, nil
	}

	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		slog.Info("login rejected", slog.String("user_id", user.ID.String()))
		return nil, nil
	}

	slog.Info("user logged in", slog.String("user_id", user.ID.String()))
	out := user.Sanitized()
	return &out, nil
}
