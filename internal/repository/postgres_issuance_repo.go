package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hitoshi/bookshelf/internal/model"
)

// PostgresIssuanceRepo はPostgreSQLを使用した貸出リポジトリ。
type PostgresIssuanceRepo struct {
	db *sqlx.DB
}

// NewPostgresIssuanceRepo はPostgresIssuanceRepoを生成する。
func NewPostgresIssuanceRepo(db *sqlx.DB) *PostgresIssuanceRepo {
	return &PostgresIssuanceRepo{db: db}
}

// List は条件に一致する貸出を貸出日の新しい順に返す。
func (r *PostgresIssuanceRepo) List(ctx context.Context, filter model.CirculationFilter, page model.Page) ([]model.Issuance, error) {
	issuances := []model.Issuance{}
	if err := selectList(ctx, r.db, &issuances, buildIssuanceListQuery(filter, page)); err != nil {
		return nil, fmt.Errorf("failed to list issuances: %w", err)
	}
	return issuances, nil
}

func buildIssuanceListQuery(filter model.CirculationFilter, page model.Page) *goqu.SelectDataset {
	ds := dialect.From("issuances").Select("id", "book_id", "user_id", "issued_at", "due_at", "returned_at")
	ds = applyCirculationFilter(ds, filter)
	return paginate(ds.Order(goqu.C("issued_at").Desc(), goqu.C("id").Asc()), page)
}

// Create は貸出可能冊数を1減らして貸出を記録する。
func (r *PostgresIssuanceRepo) Create(ctx context.Context, iss *model.Issuance) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := checkout(ctx, tx, iss.BookID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO issuances (id, book_id, user_id, issued_at, due_at, returned_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		iss.ID, iss.BookID, iss.UserID, iss.IssuedAt, iss.DueAt, iss.ReturnedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert issuance: %w", translateError(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// copyDelta は返却状態の変化に応じた貸出可能冊数の増減を返す。
// returnedAtが指定されていない更新では返却状態を変えない。
func copyDelta(wasReturned bool, iss *model.Issuance) int {
	if !iss.ReturnedAtSet {
		return 0
	}
	isReturned := iss.ReturnedAt != nil
	switch {
	case !wasReturned && isReturned:
		return 1
	case wasReturned && !isReturned:
		return -1
	}
	return 0
}

// Update は期限と返却日時を更新する。
// 未返却から返却済みになった場合は貸出可能冊数を戻し、逆の場合は再度減らす。
// 対象の蔵書IDはエラー時も含めてissに設定する。
func (r *PostgresIssuanceRepo) Update(ctx context.Context, iss *model.Issuance) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var prev struct {
		BookID     uuid.UUID  `db:"book_id"`
		ReturnedAt *time.Time `db:"returned_at"`
	}
	err = tx.GetContext(ctx, &prev,
		`SELECT book_id, returned_at FROM issuances WHERE id = $1 FOR UPDATE`, iss.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock issuance: %w", err)
	}
	iss.BookID = prev.BookID

	switch copyDelta(prev.ReturnedAt != nil, iss) {
	case 1:
		if err := checkin(ctx, tx, prev.BookID); err != nil {
			return false, err
		}
	case -1:
		if err := checkout(ctx, tx, prev.BookID); err != nil {
			return false, err
		}
	}
	if !iss.ReturnedAtSet {
		iss.ReturnedAt = prev.ReturnedAt
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE issuances SET due_at = COALESCE($2::timestamptz, due_at), returned_at = $3 WHERE id = $1`,
		iss.ID, nullTime(iss.DueAt), iss.ReturnedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update issuance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// Delete は貸出を削除し、未返却であれば貸出可能冊数を戻す。
func (r *PostgresIssuanceRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var deleted struct {
		BookID     uuid.UUID  `db:"book_id"`
		ReturnedAt *time.Time `db:"returned_at"`
	}
	err = tx.GetContext(ctx, &deleted,
		`DELETE FROM issuances WHERE id = $1 RETURNING book_id, returned_at`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete issuance: %w", err)
	}

	if deleted.ReturnedAt == nil {
		if err := checkin(ctx, tx, deleted.BookID); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// checkout は貸出可能冊数を1減らす。
// 蔵書が存在しない場合はErrReferenceNotFound、冊数が0の場合はErrNoAvailableCopiesを返す。
func checkout(ctx context.Context, tx *sqlx.Tx, bookID uuid.UUID) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE books SET available_copies = available_copies - 1
		 WHERE id = $1 AND available_copies > 0`,
		bookID,
	)
	if err != nil {
		return fmt.Errorf("failed to decrement available copies: %w", err)
	}
	ok, err := affected(result)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, bookID); err != nil {
		return fmt.Errorf("failed to check book: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: book %s", ErrReferenceNotFound, bookID)
	}
	return ErrNoAvailableCopies
}

// checkin は貸出可能冊数を総冊数を上限として1増やす。
func checkin(ctx context.Context, tx *sqlx.Tx, bookID uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE books SET available_copies = LEAST(available_copies + 1, copies) WHERE id = $1`,
		bookID,
	)
	if err != nil {
		return fmt.Errorf("failed to increment available copies: %w", err)
	}
	return nil
}

// compile-time interface check
var _ IssuanceRepository = (*PostgresIssuanceRepo)(nil)
