package model

// Page は一覧取得のページ指定。Numberは0始まり。
type Page struct {
	Number int
	Size   int
}

// Offset はSQLのOFFSETに渡す値を返す。
func (p Page) Offset() int {
	if p.Number < 0 || p.Size <= 0 {
		return 0
	}
	return p.Number * p.Size
}
