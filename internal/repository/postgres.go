package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hitoshi/bookshelf/internal/model"
)

// dialect は一覧・検索クエリの組み立てに使用するgoquのPostgreSQL方言。
var dialect = goqu.Dialect("postgres")

// NewDB は*sql.DBをリポジトリで共有する*sqlx.DBに包む。
func NewDB(db *sql.DB) *sqlx.DB {
	return sqlx.NewDb(db, "postgres")
}

// translateError はPostgreSQLの制約違反をリポジトリのエラーに変換する。
func translateError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code.Name() {
	case "unique_violation":
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	case "foreign_key_violation":
		return fmt.Errorf("%w: %s", ErrReferenceNotFound, pqErr.Constraint)
	}
	return err
}

// paginate はデータセットにLIMIT/OFFSETを設定し、プレースホルダ形式にする。
func paginate(ds *goqu.SelectDataset, page model.Page) *goqu.SelectDataset {
	ds = ds.Prepared(true)
	if page.Size <= 0 {
		return ds
	}
	return ds.Limit(uint(page.Size)).Offset(uint(page.Offset()))
}

// containsPattern はILIKE用の部分一致パターンを返す。
// ワイルドカード文字はエスケープする。
func containsPattern(q string) string {
	return "%" + escapeLike(q) + "%"
}

// prefixPattern はILIKE用の前方一致パターンを返す。
func prefixPattern(q string) string {
	return escapeLike(q) + "%"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(q string) string {
	return likeEscaper.Replace(q)
}

// textSearch は複数カラムのいずれかに部分一致する条件を返す。
func textSearch(q string, columns ...string) exp.ExpressionList {
	pattern := containsPattern(q)
	exprs := make([]exp.Expression, 0, len(columns))
	for _, c := range columns {
		exprs = append(exprs, goqu.C(c).ILike(pattern))
	}
	return goqu.Or(exprs...)
}

// selectList は組み立てたクエリを実行して結果をdestに読み込む。
func selectList(ctx context.Context, db *sqlx.DB, dest interface{}, ds *goqu.SelectDataset) error {
	query, args, err := ds.ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	if err := db.SelectContext(ctx, dest, query, args...); err != nil {
		return fmt.Errorf("failed to select: %w", err)
	}
	return nil
}

// affected はUPDATE/DELETEの結果から対象行の有無を返す。
func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}
