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

// PostgresBbkRepo はPostgreSQLを使用したBBK分類リポジトリ。
type PostgresBbkRepo struct {
	db *sqlx.DB
}

// NewPostgresBbkRepo はPostgresBbkRepoを生成する。
func NewPostgresBbkRepo(db *sqlx.DB) *PostgresBbkRepo {
	return &PostgresBbkRepo{db: db}
}

// FindByID は指定IDの分類を取得する。見つからない場合はnilを返す。
func (r *PostgresBbkRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Bbk, error) {
	bbk := &model.Bbk{}
	err := r.db.GetContext(ctx, bbk, `SELECT id, code, description FROM bbks WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find bbk by ID: %w", err)
	}
	return bbk, nil
}

// Search はコードの前方一致または説明の部分一致で検索する。
func (r *PostgresBbkRepo) Search(ctx context.Context, q string, page model.Page) ([]model.Bbk, error) {
	bbks := []model.Bbk{}
	if err := selectList(ctx, r.db, &bbks, buildBbkSearchQuery(q, page)); err != nil {
		return nil, fmt.Errorf("failed to search bbks: %w", err)
	}
	return bbks, nil
}

func buildBbkSearchQuery(q string, page model.Page) *goqu.SelectDataset {
	ds := dialect.From("bbks").Select("id", "code", "description")
	if q != "" {
		ds = ds.Where(goqu.Or(
			goqu.C("code").ILike(prefixPattern(q)),
			goqu.C("description").ILike(containsPattern(q)),
		))
	}
	return paginate(ds.Order(goqu.C("code").Asc()), page)
}

// Create は分類を作成する。
func (r *PostgresBbkRepo) Create(ctx context.Context, bbk *model.Bbk) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bbks (id, code, description) VALUES ($1, $2, $3)`,
		bbk.ID, bbk.Code, bbk.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bbk: %w", translateError(err))
	}
	return nil
}

// Update は分類を更新する。
func (r *PostgresBbkRepo) Update(ctx context.Context, bbk *model.Bbk) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE bbks SET code = $2, description = $3 WHERE id = $1`,
		bbk.ID, bbk.Code, bbk.Description,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update bbk: %w", translateError(err))
	}
	return affected(result)
}

// Delete は分類を削除する。
func (r *PostgresBbkRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bbks WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete bbk: %w", err)
	}
	return affected(result)
}

// PostgresApuRepo はPostgreSQLを使用した件名索引リポジトリ。
type PostgresApuRepo struct {
	db *sqlx.DB
}

// NewPostgresApuRepo はPostgresApuRepoを生成する。
func NewPostgresApuRepo(db *sqlx.DB) *PostgresApuRepo {
	return &PostgresApuRepo{db: db}
}

// FindByID は指定IDの索引項目を取得する。見つからない場合はnilを返す。
func (r *PostgresApuRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Apu, error) {
	apu := &model.Apu{}
	err := r.db.GetContext(ctx, apu, `SELECT id, term, bbk_id FROM apus WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find apu by ID: %w", err)
	}
	return apu, nil
}

// Search は用語の部分一致で索引項目を検索する。
func (r *PostgresApuRepo) Search(ctx context.Context, q string, page model.Page) ([]model.Apu, error) {
	apus := []model.Apu{}
	if err := selectList(ctx, r.db, &apus, buildApuSearchQuery(q, page)); err != nil {
		return nil, fmt.Errorf("failed to search apus: %w", err)
	}
	return apus, nil
}

func buildApuSearchQuery(q string, page model.Page) *goqu.SelectDataset {
	ds := dialect.From("apus").Select("id", "term", "bbk_id")
	if q != "" {
		ds = ds.Where(textSearch(q, "term"))
	}
	return paginate(ds.Order(goqu.C("term").Asc()), page)
}

// Create は索引項目を作成する。
func (r *PostgresApuRepo) Create(ctx context.Context, apu *model.Apu) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO apus (id, term, bbk_id) VALUES ($1, $2, $3)`,
		apu.ID, apu.Term, apu.BbkID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert apu: %w", translateError(err))
	}
	return nil
}

// Update は索引項目を更新する。
func (r *PostgresApuRepo) Update(ctx context.Context, apu *model.Apu) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE apus SET term = $2, bbk_id = $3 WHERE id = $1`,
		apu.ID, apu.Term, apu.BbkID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update apu: %w", translateError(err))
	}
	return affected(result)
}

// Delete は索引項目を削除する。
func (r *PostgresApuRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM apus WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete apu: %w", err)
	}
	return affected(result)
}

// compile-time interface check
var (
	_ BbkRepository = (*PostgresBbkRepo)(nil)
	_ ApuRepository = (*PostgresApuRepo)(nil)
)
