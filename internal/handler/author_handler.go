package handler

import (
	"net/http"

	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/usecase"
)

// AuthorUseCases は著者ハンドラーが利用するユースケース群。
type AuthorUseCases struct {
	Create   usecase.CreateAuthor
	Update   usecase.UpdateAuthor
	Delete   usecase.DeleteAuthor
	ReadByID usecase.ReadAuthorByID
	Read     usecase.ReadAuthors
}

// AuthorHandler は著者関連のHTTPハンドラー。一覧と参照は認証不要。
type AuthorHandler struct {
	uc    AuthorUseCases
	guard Guard
}

func NewAuthorHandler(uc AuthorUseCases, guard Guard) *AuthorHandler {
	return &AuthorHandler{uc: uc, guard: guard}
}

// ListAuthors はGET /authors を処理する。
func (h *AuthorHandler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := h.uc.Read.ReadAuthors(r.Context(), r.URL.Query().Get("q"), listPage(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeList(w, authors)
}

// GetAuthor はGET /authors/{id} を処理する。
func (h *AuthorHandler) GetAuthor(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	author, err := h.uc.ReadByID.ReadAuthorByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, author)
}

// CreateAuthor はPOST /authors を処理する。
func (h *AuthorHandler) CreateAuthor(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "Only moderators can create authors", model.RoleModerator) {
		return
	}
	var author model.Author
	if err := decodeJSON(w, r, &author); err != nil {
		handleServiceError(w, r, err)
		return
	}
	created, err := h.uc.Create.CreateAuthor(r.Context(), author)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateAuthor はPATCH /authors/{id} を処理する。パスのIDがボディのIDより優先される。
func (h *AuthorHandler) UpdateAuthor(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "Only moderators can update authors", model.RoleModerator) {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var author model.Author
	if err := decodeJSON(w, r, &author); err != nil {
		handleServiceError(w, r, err)
		return
	}
	author.ID = id

	if _, err := h.uc.Update.UpdateAuthor(r.Context(), author); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAuthor はDELETE /authors/{id} を処理する。
func (h *AuthorHandler) DeleteAuthor(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "Only moderators can delete authors", model.RoleModerator) {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := h.uc.Delete.DeleteAuthor(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
