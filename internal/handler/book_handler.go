package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/usecase"
)

// 書誌の変更操作に対する403メッセージ
const (
	msgBookCreateForbidden = "Only moderators can create books"
	msgBookUpdateForbidden = "Only moderators can update books"
	msgBookDeleteForbidden = "Only moderators can delete books"
)

// BookUseCases は蔵書ハンドラーが利用するユースケース群。
type BookUseCases struct {
	Create          usecase.CreateBook
	Update          usecase.UpdateBook
	Delete          usecase.DeleteBook
	ReadByID        usecase.ReadBookByID
	Read            usecase.ReadBooks
	ReadByAuthor    usecase.ReadBooksByAuthor
	ReadByBbk       usecase.ReadBooksByBbk
	ReadByPublisher usecase.ReadBooksByPublisher
	ReadBySearch    usecase.ReadBooksBySentence
}

// BookHandler は蔵書関連のHTTPハンドラー。
type BookHandler struct {
	uc    BookUseCases
	guard Guard
}

// NewBookHandler は新しいBookHandlerを生成する。
func NewBookHandler(uc BookUseCases, guard Guard) *BookHandler {
	return &BookHandler{uc: uc, guard: guard}
}

// ListBooks はGET /book を処理する。
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	page, err := bookPage(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	books, err := h.uc.Read.ReadBooks(r.Context(), page)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeList(w, books)
}

// GetBook はGET /book/{id} を処理する。
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	book, err := h.uc.ReadByID.ReadBookByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// searchFilters は蔵書検索で排他的に指定する条件名。
var searchFilters = []string{"authorId", "bbkId", "publisherId", "q"}

// SearchBooks はGET/POST /book/search を処理する。
// authorId・bbkId・publisherId・qのうち、ちょうど1つの条件を受け付ける。
// 条件は値ではなく指定の有無で数えるため、?q= は空文字列の全文検索になる。
func (h *BookHandler) SearchBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := 0
	for _, name := range searchFilters {
		if q.Has(name) {
			filters++
		}
	}
	switch {
	case filters == 0:
		handleServiceError(w, r, model.NewParameterError("Filter query is required"))
		return
	case filters > 1:
		handleServiceError(w, r, model.NewParameterError("Filter query is more than one filter"))
		return
	}

	page := searchPage(r)

	var books []model.Book
	var err error
	ctx := r.Context()
	switch {
	case q.Has("authorId"):
		var id uuid.UUID
		if id, err = parseUUID("authorId", q.Get("authorId")); err == nil {
			books, err = h.uc.ReadByAuthor.ReadBooksByAuthor(ctx, id, page)
		}
	case q.Has("bbkId"):
		var id uuid.UUID
		if id, err = parseUUID("bbkId", q.Get("bbkId")); err == nil {
			books, err = h.uc.ReadByBbk.ReadBooksByBbk(ctx, id, page)
		}
	case q.Has("publisherId"):
		var id uuid.UUID
		if id, err = parseUUID("publisherId", q.Get("publisherId")); err == nil {
			books, err = h.uc.ReadByPublisher.ReadBooksByPublisher(ctx, id, page)
		}
	default:
		books, err = h.uc.ReadBySearch.ReadBooksBySentence(ctx, q.Get("q"), page)
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeList(w, books)
}

// CreateBook はPOST /book を処理する。
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, msgBookCreateForbidden, model.RoleModerator) {
		return
	}
	var book model.Book
	if err := decodeJSON(w, r, &book); err != nil {
		handleServiceError(w, r, err)
		return
	}

	id, err := h.uc.Create.CreateBook(r.Context(), book)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

// UpdateBook はPUT /book を処理する。IDはボディで受け取る。
func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, msgBookUpdateForbidden, model.RoleModerator) {
		return
	}
	var book model.Book
	if err := decodeJSON(w, r, &book); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if book.ID == uuid.Nil {
		handleServiceError(w, r, model.NewParameterError("id is required"))
		return
	}

	if _, err := h.uc.Update.UpdateBook(r.Context(), book); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteBook はDELETE /book/{id} を処理する。
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, msgBookDeleteForbidden, model.RoleModerator) {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if err := h.uc.Delete.DeleteBook(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
