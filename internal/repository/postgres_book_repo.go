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

const bookColumns = `id, title, annotation, isbn, publish_year, author_id, publisher_id, bbk_id, copies, available_copies`

// PostgresBookRepo はPostgreSQLを使用した蔵書リポジトリ。
type PostgresBookRepo struct {
	db *sqlx.DB
}

// NewPostgresBookRepo はPostgresBookRepoを生成する。
func NewPostgresBookRepo(db *sqlx.DB) *PostgresBookRepo {
	return &PostgresBookRepo{db: db}
}

// FindByID は指定IDの蔵書を取得する。見つからない場合はnilを返す。
func (r *PostgresBookRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	book := &model.Book{}
	err := r.db.GetContext(ctx, book, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find book by ID: %w", err)
	}
	return book, nil
}

// List は条件に一致する蔵書を返す。
func (r *PostgresBookRepo) List(ctx context.Context, q BookQuery, page model.Page) ([]model.Book, error) {
	books := []model.Book{}
	if err := selectList(ctx, r.db, &books, buildBookListQuery(q, page)); err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// buildBookListQuery は蔵書一覧のSELECT文を組み立てる。
func buildBookListQuery(q BookQuery, page model.Page) *goqu.SelectDataset {
	ds := dialect.From("books").Select(
		"id", "title", "annotation", "isbn", "publish_year",
		"author_id", "publisher_id", "bbk_id", "copies", "available_copies",
	)
	if q.AuthorID != nil {
		ds = ds.Where(goqu.C("author_id").Eq(q.AuthorID.String()))
	}
	if q.BbkID != nil {
		ds = ds.Where(goqu.C("bbk_id").Eq(q.BbkID.String()))
	}
	if q.PublisherID != nil {
		ds = ds.Where(goqu.C("publisher_id").Eq(q.PublisherID.String()))
	}
	if q.Sentence != "" {
		ds = ds.Where(textSearch(q.Sentence, "title", "annotation", "isbn"))
	}
	return paginate(ds.Order(goqu.C("title").Asc(), goqu.C("id").Asc()), page)
}

// Create は蔵書を作成する。
func (r *PostgresBookRepo) Create(ctx context.Context, book *model.Book) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO books (`+bookColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		book.ID, book.Title, book.Annotation, book.ISBN, book.PublishYear,
		book.AuthorID, book.PublisherID, book.BbkID, book.Copies, book.AvailableCopies,
	)
	if err != nil {
		return fmt.Errorf("failed to insert book: %w", translateError(err))
	}
	return nil
}

// Update は蔵書を更新する。
// 総冊数の変更分だけ貸出可能冊数も増減させ、貸出中の冊数を保つ。
func (r *PostgresBookRepo) Update(ctx context.Context, book *model.Book) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE books SET
		   title = $2, annotation = $3, isbn = $4, publish_year = $5,
		   author_id = $6, publisher_id = $7, bbk_id = $8,
		   available_copies = GREATEST(available_copies + ($9 - copies), 0),
		   copies = $9
		 WHERE id = $1`,
		book.ID, book.Title, book.Annotation, book.ISBN, book.PublishYear,
		book.AuthorID, book.PublisherID, book.BbkID, book.Copies,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update book: %w", translateError(err))
	}
	return affected(result)
}

// Delete は蔵書を削除する。
// 関連する取り置き、待ち行列、貸出、お気に入りはCASCADE削除される。
func (r *PostgresBookRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete book: %w", err)
	}
	return affected(result)
}

// compile-time interface check
var _ BookRepository = (*PostgresBookRepo)(nil)
