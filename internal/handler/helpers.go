// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hitoshi/bookshelf/internal/middleware"
	"github.com/hitoshi/bookshelf/internal/model"
)

// maxRequestBodyBytes はリクエストボディの上限サイズ。
const maxRequestBodyBytes = 1 << 20

// 一覧取得のページング既定値
const (
	defaultPageSize     = 20
	maxPageSize         = 100
	defaultBookPage     = 1
	defaultBookPageSize = 10
)

// listResponse は一覧レスポンスの共通エンベロープ。
type listResponse struct {
	Content any `json:"content"`
}

// idResponse は作成したリソースのIDのみを返すレスポンス。
type idResponse struct {
	ID uuid.UUID `json:"id"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// writeList はcontentエンベロープで一覧を書き込む。nilのスライスは空配列として返す。
func writeList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, listResponse{Content: items})
}

// handleServiceError はユースケースから返されたエラーをレスポンスに変換する。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	middleware.WriteError(w, r, err)
}

// decodeJSON はリクエストボディをvにデコードする。
// 失敗した場合はConversionErrorを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return model.NewConversionError("request body too large")
		}
		return model.NewConversionError(err.Error())
	}
	return nil
}

// parseUUID はパラメータ値をUUIDとして解釈する。
func parseUUID(name, raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, model.NewParameterError(fmt.Sprintf("%s is required", name))
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, model.NewParameterError(fmt.Sprintf("Invalid %s: %s", name, raw))
	}
	return id, nil
}

// pathUUID はURLパスパラメータからUUIDを取得する。
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return parseUUID(name, chi.URLParam(r, name))
}

// queryUUID はクエリパラメータからUUIDを取得する。未指定の場合はnilを返す。
func queryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := parseUUID(name, raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// listPage は一覧取得のページ指定を解析する。
// pageは0始まり。不正な値は既定値に戻し、sizeは上限で切り詰める。
func listPage(r *http.Request) model.Page {
	q := r.URL.Query()
	page := model.Page{Number: 0, Size: defaultPageSize}

	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			page.Number = n
		}
	}
	if v := q.Get("size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page.Size = min(n, maxPageSize)
		}
	}
	return page
}

// bookPage は蔵書一覧のページ指定を解析する。
// pageは1始まり、件数はpageSize（別名size）で受け付け、不正な値はエラーとする。
func bookPage(r *http.Request) (model.Page, error) {
	q := r.URL.Query()
	number := defaultBookPage
	size := defaultBookPageSize

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return model.Page{}, model.NewParameterError(fmt.Sprintf("Invalid page: %s", v))
		}
		number = n
	}

	sizeParam := "pageSize"
	v := q.Get(sizeParam)
	if v == "" {
		sizeParam = "size"
		v = q.Get(sizeParam)
	}
	if v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return model.Page{}, model.NewParameterError(fmt.Sprintf("Invalid %s: %s", sizeParam, v))
		}
		size = min(n, maxPageSize)
	}

	return model.Page{Number: number - 1, Size: size}, nil
}

// searchPage は蔵書検索のページ指定を解析する。
// 検索ではページ指定を任意扱いとし、不正な値は既定値に読み替える。
func searchPage(r *http.Request) model.Page {
	page, err := bookPage(r)
	if err != nil {
		return model.Page{Number: defaultBookPage - 1, Size: defaultBookPageSize}
	}
	return page
}

// circulationFilter はbookId・userIdクエリから一覧の絞り込み条件を組み立てる。
func circulationFilter(r *http.Request) (model.CirculationFilter, error) {
	bookID, err := queryUUID(r, "bookId")
	if err != nil {
		return model.CirculationFilter{}, err
	}
	userID, err := queryUUID(r, "userId")
	if err != nil {
		return model.CirculationFilter{}, err
	}
	return model.CirculationFilter{BookID: bookID, UserID: userID}, nil
}
