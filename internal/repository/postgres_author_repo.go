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

// PostgresAuthorRepo はPostgreSQLを使用した著者リポジトリ。
type PostgresAuthorRepo struct {
	db *sqlx.DB
}

// NewPostgresAuthorRepo はPostgresAuthorRepoを生成する。
func NewPostgresAuthorRepo(db *sqlx.DB) *PostgresAuthorRepo {
	return &PostgresAuthorRepo{db: db}
}

// FindByID は指定IDの著者を取得する。見つからない場合はnilを返す。
func (r *PostgresAuthorRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Author, error) {
	author := &model.Author{}
	err := r.db.GetContext(ctx, author,
		`SELECT id, name, surname, biography FROM authors WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find author by ID: %w", err)
	}
	return author, nil
}

// Search は姓名の部分一致で著者を検索する。
func (r *PostgresAuthorRepo) Search(ctx context.Context, q string, page model.Page) ([]model.Author, error) {
	authors := []model.Author{}
	if err := selectList(ctx, r.db, &authors, buildAuthorSearchQuery(q, page)); err != nil {
		return nil, fmt.Errorf("failed to search authors: %w", err)
	}
	return authors, nil
}

func buildAuthorSearchQuery(q string, page model.Page) *goqu.SelectDataset {
	ds := dialect.From("authors").Select("id", "name", "surname", "biography")
	if q != "" {
		ds = ds.Where(textSearch(q, "name", "surname"))
	}
	return paginate(ds.Order(goqu.C("surname").Asc(), goqu.C("name").Asc(), goqu.C("id").Asc()), page)
}

// Create は著者を作成する。
func (r *PostgresAuthorRepo) Create(ctx context.Context, author *model.Author) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO authors (id, name, surname, biography) VALUES ($1, $2, $3, $4)`,
		author.ID, author.Name, author.Surname, author.Biography,
	)
	if err != nil {
		return fmt.Errorf("failed to insert author: %w", translateError(err))
	}
	return nil
}

// Update は著者を更新する。
func (r *PostgresAuthorRepo) Update(ctx context.Context, author *model.Author) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE authors SET name = $2, surname = $3, biography = $4 WHERE id = $1`,
		author.ID, author.Name, author.Surname, author.Biography,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update author: %w", translateError(err))
	}
	return affected(result)
}

// Delete は著者を削除する。蔵書のauthor_idはNULLになる。
func (r *PostgresAuthorRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete author: %w", err)
	}
	return affected(result)
}

// compile-time interface check
var _ AuthorRepository = (*PostgresAuthorRepo)(nil)
