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

// PostgresPublisherRepo はPostgreSQLを使用した出版社リポジトリ。
type PostgresPublisherRepo struct {
	db *sqlx.DB
}

// NewPostgresPublisherRepo はPostgresPublisherRepoを生成する。
func NewPostgresPublisherRepo(db *sqlx.DB) *PostgresPublisherRepo {
	return &PostgresPublisherRepo{db: db}
}

// FindByID は指定IDの出版社を取得する。見つからない場合はnilを返す。
func (r *PostgresPublisherRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Publisher, error) {
	p := &model.Publisher{}
	err := r.db.GetContext(ctx, p,
		`SELECT id, name, city, email, phone_number FROM publishers WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find publisher by ID: %w", err)
	}
	return p, nil
}

// Search は名称の部分一致で出版社を検索する。
func (r *PostgresPublisherRepo) Search(ctx context.Context, q string, page model.Page) ([]model.Publisher, error) {
	publishers := []model.Publisher{}
	if err := selectList(ctx, r.db, &publishers, buildPublisherSearchQuery(q, page)); err != nil {
		return nil, fmt.Errorf("failed to search publishers: %w", err)
	}
	return publishers, nil
}

func buildPublisherSearchQuery(q string, page model.Page) *goqu.SelectDataset {
	ds := dialect.From("publishers").Select("id", "name", "city", "email", "phone_number")
	if q != "" {
		ds = ds.Where(textSearch(q, "name"))
	}
	return paginate(ds.Order(goqu.C("name").Asc(), goqu.C("id").Asc()), page)
}

// Create は出版社を作成する。
func (r *PostgresPublisherRepo) Create(ctx context.Context, p *model.Publisher) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO publishers (id, name, city, email, phone_number) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Name, p.City, p.Email, p.PhoneNumber,
	)
	if err != nil {
		return fmt.Errorf("failed to insert publisher: %w", translateError(err))
	}
	return nil
}

// Update は出版社を更新する。
func (r *PostgresPublisherRepo) Update(ctx context.Context, p *model.Publisher) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE publishers SET name = $2, city = $3, email = $4, phone_number = $5 WHERE id = $1`,
		p.ID, p.Name, p.City, p.Email, p.PhoneNumber,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update publisher: %w", translateError(err))
	}
	return affected(result)
}

// Delete は出版社を削除する。
func (r *PostgresPublisherRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM publishers WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete publisher: %w", err)
	}
	return affected(result)
}

// compile-time interface check
var _ PublisherRepository = (*PostgresPublisherRepo)(nil)
