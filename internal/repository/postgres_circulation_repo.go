package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hitoshi/bookshelf/internal/model"
)

// applyCirculationFilter は蔵書IDと利用者IDの絞り込み条件を付与する。
func applyCirculationFilter(ds *goqu.SelectDataset, filter model.CirculationFilter) *goqu.SelectDataset {
	if filter.BookID != nil {
		ds = ds.Where(goqu.C("book_id").Eq(filter.BookID.String()))
	}
	if filter.UserID != nil {
		ds = ds.Where(goqu.C("user_id").Eq(filter.UserID.String()))
	}
	return ds
}

// nullTime はゼロ値をNULLとして渡すための変換を行う。
func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

// PostgresReservationRepo はPostgreSQLを使用した取り置きリポジトリ。
type PostgresReservationRepo struct {
	db *sqlx.DB
}

// NewPostgresReservationRepo はPostgresReservationRepoを生成する。
func NewPostgresReservationRepo(db *sqlx.DB) *PostgresReservationRepo {
	return &PostgresReservationRepo{db: db}
}

// List は条件に一致する取り置きを作成の新しい順に返す。
func (r *PostgresReservationRepo) List(ctx context.Context, filter model.CirculationFilter, page model.Page) ([]model.Reservation, error) {
	reservations := []model.Reservation{}
	if err := selectList(ctx, r.db, &reservations, buildReservationListQuery(filter, page)); err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return reservations, nil
}

func buildReservationListQuery(filter model.CirculationFilter, page model.Page) *goqu.SelectDataset {
	ds := dialect.From("reservations").Select("id", "book_id", "user_id", "reserved_at", "expires_at")
	ds = applyCirculationFilter(ds, filter)
	return paginate(ds.Order(goqu.C("reserved_at").Desc(), goqu.C("id").Asc()), page)
}

// ExistsActive は有効な同一の取り置きがあるかを返す。
func (r *PostgresReservationRepo) ExistsActive(ctx context.Context, userID, bookID uuid.UUID, at time.Time) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (
		   SELECT 1 FROM reservations WHERE user_id = $1 AND book_id = $2 AND expires_at > $3
		 )`,
		userID, bookID, at,
	)
	if err != nil {
		return false, fmt.Errorf("failed to check active reservation: %w", err)
	}
	return exists, nil
}

// Create は取り置きを作成する。
func (r *PostgresReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reservations (id, book_id, user_id, reserved_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		res.ID, res.BookID, res.UserID, res.ReservedAt, res.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reservation: %w", translateError(err))
	}
	return nil
}

// Update は取り置きの期限を更新する。ExpiresAtがゼロ値の場合は変更しない。
func (r *PostgresReservationRepo) Update(ctx context.Context, res *model.Reservation) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET expires_at = COALESCE($2::timestamptz, expires_at) WHERE id = $1`,
		res.ID, nullTime(res.ExpiresAt),
	)
	if err != nil {
		return false, fmt.Errorf("failed to update reservation: %w", err)
	}
	return affected(result)
}

// Delete は取り置きを削除する。
func (r *PostgresReservationRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete reservation: %w", err)
	}
	return affected(result)
}

// DeleteExpired は期限切れの取り置きを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (r *PostgresReservationRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reservations: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// PostgresQueueRepo はPostgreSQLを使用した貸出待ち行列リポジトリ。
type PostgresQueueRepo struct {
	db *sqlx.DB
}

// NewPostgresQueueRepo はPostgresQueueRepoを生成する。
func NewPostgresQueueRepo(db *sqlx.DB) *PostgresQueueRepo {
	return &PostgresQueueRepo{db: db}
}

// List は条件に一致する待ち行列エントリを位置順に返す。
func (r *PostgresQueueRepo) List(ctx context.Context, filter model.CirculationFilter, page model.Page) ([]model.QueueEntry, error) {
	entries := []model.QueueEntry{}
	if err := selectList(ctx, r.db, &entries, buildQueueListQuery(filter, page)); err != nil {
		return nil, fmt.Errorf("failed to list queue entries: %w", err)
	}
	return entries, nil
}

func buildQueueListQuery(filter model.CirculationFilter, page model.Page) *goqu.SelectDataset {
	ds := dialect.From("queue_entries").Select("id", "book_id", "user_id", "position", "created_at")
	ds = applyCirculationFilter(ds, filter)
	return paginate(ds.Order(goqu.C("book_id").Asc(), goqu.C("position").Asc()), page)
}

// Exists は同一利用者・同一蔵書のエントリがあるかを返す。
func (r *PostgresQueueRepo) Exists(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM queue_entries WHERE user_id = $1 AND book_id = $2)`,
		userID, bookID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to check queue entry: %w", err)
	}
	return exists, nil
}

// Create は蔵書ごとの末尾にエントリを追加する。
func (r *PostgresQueueRepo) Create(ctx context.Context, entry *model.QueueEntry) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO queue_entries (id, book_id, user_id, position, created_at)
		 SELECT $1::uuid, $2::uuid, $3::uuid, COALESCE(MAX(position), 0) + 1, $4::timestamptz
		 FROM queue_entries WHERE book_id = $2::uuid
		 RETURNING position`,
		entry.ID, entry.BookID, entry.UserID, entry.CreatedAt,
	).Scan(&entry.Position)
	if err != nil {
		return fmt.Errorf("failed to insert queue entry: %w", translateError(err))
	}
	return nil
}

// Update はエントリの位置を更新する。
func (r *PostgresQueueRepo) Update(ctx context.Context, entry *model.QueueEntry) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE queue_entries SET position = $2 WHERE id = $1`,
		entry.ID, entry.Position,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update queue entry: %w", err)
	}
	return affected(result)
}

// Delete はエントリを削除する。
func (r *PostgresQueueRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM queue_entries WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete queue entry: %w", err)
	}
	return affected(result)
}

// PostgresFavoriteRepo はPostgreSQLを使用したお気に入りリポジトリ。
type PostgresFavoriteRepo struct {
	db *sqlx.DB
}

// NewPostgresFavoriteRepo はPostgresFavoriteRepoを生成する。
func NewPostgresFavoriteRepo(db *sqlx.DB) *PostgresFavoriteRepo {
	return &PostgresFavoriteRepo{db: db}
}

// Create はお気に入りを登録する。
func (r *PostgresFavoriteRepo) Create(ctx context.Context, f *model.Favorite) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO favorites (user_id, book_id, created_at) VALUES ($1, $2, $3)`,
		f.UserID, f.BookID, f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert favorite: %w", translateError(err))
	}
	return nil
}

// Delete はお気に入りを解除する。
func (r *PostgresFavoriteRepo) Delete(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND book_id = $2`, userID, bookID)
	if err != nil {
		return false, fmt.Errorf("failed to delete favorite: %w", err)
	}
	return affected(result)
}

// ListBooks は利用者のお気に入り蔵書を返す。
func (r *PostgresFavoriteRepo) ListBooks(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.Book, error) {
	books := []model.Book{}
	if err := selectList(ctx, r.db, &books, buildFavoriteBooksQuery(userID, page)); err != nil {
		return nil, fmt.Errorf("failed to list favorite books: %w", err)
	}
	return books, nil
}

func buildFavoriteBooksQuery(userID uuid.UUID, page model.Page) *goqu.SelectDataset {
	ds := dialect.From(goqu.T("books").As("b")).
		Join(goqu.T("favorites").As("f"), goqu.On(goqu.I("f.book_id").Eq(goqu.I("b.id")))).
		Select(
			"b.id", "b.title", "b.annotation", "b.isbn", "b.publish_year",
			"b.author_id", "b.publisher_id", "b.bbk_id", "b.copies", "b.available_copies",
		).
		Where(goqu.I("f.user_id").Eq(userID.String())).
		Order(goqu.I("f.created_at").Desc())
	return paginate(ds, page)
}

// compile-time interface check
var (
	_ ReservationRepository = (*PostgresReservationRepo)(nil)
	_ QueueRepository       = (*PostgresQueueRepo)(nil)
	_ FavoriteRepository    = (*PostgresFavoriteRepo)(nil)
)
