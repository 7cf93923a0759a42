package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hitoshi/bookshelf/internal/model"
)

const userColumns = `id, name, surname, email, phone_number, password_hash, role, created_at`

// PostgresUserRepo はPostgreSQLを使用した利用者リポジトリ。
type PostgresUserRepo struct {
	db *sqlx.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sqlx.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDの利用者を取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByPhone は電話番号で利用者を取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number = $1`, phone)
}

func (r *PostgresUserRepo) findOne(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	user := &model.User{}
	err := r.db.GetContext(ctx, user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// Search は電話番号の部分一致で利用者を検索する。
func (r *PostgresUserRepo) Search(ctx context.Context, phone string, page model.Page) ([]model.User, error) {
	users := []model.User{}
	if err := selectList(ctx, r.db, &users, buildUserSearchQuery(phone, page)); err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

func buildUserSearchQuery(phone string, page model.Page) *goqu.SelectDataset {
	ds := dialect.From("users").Select(
		"id", "name", "surname", "email", "phone_number", "password_hash", "role", "created_at",
	)
	if phone != "" {
		ds = ds.Where(goqu.C("phone_number").ILike(containsPattern(phone)))
	}
	return paginate(ds.Order(goqu.C("created_at").Asc(), goqu.C("id").Asc()), page)
}

// Create は利用者を作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Name, user.Surname, user.Email, user.PhoneNumber,
		user.PasswordHash, user.Role, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", translateError(err))
	}
	return nil
}

// Update は利用者を部分更新する。空文字列のフィールドは既存の値を保持する。
func (r *PostgresUserRepo) Update(ctx context.Context, user *model.User) (bool, error) {
	query, args, err := buildUserUpdate(user).ToSQL()
	if err != nil {
		return false, fmt.Errorf("failed to build user update: %w", err)
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update user: %w", translateError(err))
	}
	return affected(result)
}

// buildUserUpdate は指定されたフィールドのみを更新するUPDATE文を組み立てる。
func buildUserUpdate(user *model.User) *goqu.UpdateDataset {
	set := goqu.Record{}
	for col, v := range map[string]string{
		"name":          user.Name,
		"surname":       user.Surname,
		"email":         user.Email,
		"phone_number":  user.PhoneNumber,
		"role":          string(user.Role),
		"password_hash": user.PasswordHash,
	} {
		if v != "" {
			set[col] = v
		}
	}
	if len(set) == 0 {
		// 変更なしでも存在確認のため対象行に一致させる
		set["id"] = goqu.I("id")
	}
	return dialect.Update("users").Prepared(true).Set(set).Where(goqu.C("id").Eq(user.ID))
}

// Delete は利用者を削除する。
// 関連する取り置き、待ち行列、貸出、お気に入りはCASCADE削除される。
func (r *PostgresUserRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	return affected(result)
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
