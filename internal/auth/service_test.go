package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/security"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByPhoneFn func(ctx context.Context, phone string) (*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	if m.findByPhoneFn != nil {
		return m.findByPhoneFn(ctx, phone)
	}
	return nil, nil
}
func (m *mockUserRepo) Search(ctx context.Context, phone string, page model.Page) ([]model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	return nil
}
func (m *mockUserRepo) Update(ctx context.Context, user *model.User) (bool, error) {
	return true, nil
}
func (m *mockUserRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return true, nil
}

func storedUser(t *testing.T, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword() error: %v", err)
	}
	return &model.User{
		ID:           uuid.New(),
		PhoneNumber:  "+15550100",
		Email:        "ada@example.com",
		PasswordHash: string(hash),
		Role:         model.RoleReader,
	}
}

// --- テスト ---

func TestLoginUser_Success(t *testing.T) {
	user := storedUser(t, "s3cret")
	repo := &mockUserRepo{
		findByPhoneFn: func(ctx context.Context, phone string) (*model.User, error) {
			if phone != "+15550100" {
				t.Errorf("phone = %q, want +15550100", phone)
			}
			return user, nil
		},
	}
	svc := NewLoginService(repo, security.NewBcryptHasher())

	got, err := svc.LoginUser(context.Background(), "+15550100", "s3cret")
	if err != nil {
		t.Fatalf("LoginUser() error: %v", err)
	}
	if got == nil || got.ID != user.ID {
		t.Fatalf("LoginUser() = %+v, want user %s", got, user.ID)
	}
	if got.PasswordHash != "" {
		t.Errorf("PasswordHash = %q, want empty", got.PasswordHash)
	}
}

func TestLoginUser_NoMatch(t *testing.T) {
	user := storedUser(t, "s3cret")

	tests := []struct {
		name     string
		found    *model.User
		phone    string
		password string
	}{
		{"wrong password", user, "+15550100", "nope"},
		{"unknown phone", nil, "+15550199", "s3cret"},
		{"empty password", user, "+15550100", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockUserRepo{
				findByPhoneFn: func(ctx context.Context, phone string) (*model.User, error) {
					return tt.found, nil
				},
			}
			svc := NewLoginService(repo, security.NewBcryptHasher())

			got, err := svc.LoginUser(context.Background(), tt.phone, tt.password)
			if err != nil {
				t.Fatalf("LoginUser() error: %v", err)
			}
			if got != nil {
				t.Errorf("LoginUser() = %+v, want nil", got)
			}
		})
	}
}

func TestLoginUser_RepositoryError(t *testing.T) {
	repo := &mockUserRepo{
		findByPhoneFn: func(ctx context.Context, phone string) (*model.User, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := NewLoginService(repo, security.NewBcryptHasher())

	if _, err := svc.LoginUser(context.Background(), "+15550100", "x"); err == nil {
		t.Fatal("LoginUser() error = nil, want error")
	}
}
