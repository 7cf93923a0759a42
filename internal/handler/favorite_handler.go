package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/hitoshi/bookshelf/internal/usecase"
)

// FavoriteUseCases はお気に入りハンドラーが利用するユースケース群。
type FavoriteUseCases struct {
	Add       usecase.AddFavorite
	Remove    usecase.RemoveFavorite
	ReadBooks usecase.ReadFavoriteBooks
}

// FavoriteHandler はお気に入り関連のHTTPハンドラー。
type FavoriteHandler struct {
	uc    FavoriteUseCases
	guard Guard
}

func NewFavoriteHandler(uc FavoriteUseCases, guard Guard) *FavoriteHandler {
	return &FavoriteHandler{uc: uc, guard: guard}
}

// favoriteResponse はお気に入り登録のレスポンス。
type favoriteResponse struct {
	UserID uuid.UUID `json:"userId"`
	BookID uuid.UUID `json:"bookId"`
}

// ListFavorites はGET /user/{userId}/favorites を処理する。
func (h *FavoriteHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "", memberRoles...) {
		return
	}
	userID, err := pathUUID(r, "userId")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	books, err := h.uc.ReadBooks.ReadFavoriteBooks(r.Context(), userID, listPage(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeList(w, books)
}

// AddFavorite はPOST /user/{userId}/favorites/{bookId} を処理する。
func (h *FavoriteHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "", memberRoles...) {
		return
	}
	userID, bookID, ok := h.favoriteIDs(w, r)
	if !ok {
		return
	}
	favorite, err := h.uc.Add.AddFavorite(r.Context(), userID, bookID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, favoriteResponse{UserID: favorite.UserID, BookID: favorite.BookID})
}

// RemoveFavorite はDELETE /user/{userId}/favorites/{bookId} を処理する。
func (h *FavoriteHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "", memberRoles...) {
		return
	}
	userID, bookID, ok := h.favoriteIDs(w, r)
	if !ok {
		return
	}
	if err := h.uc.Remove.RemoveFavorite(r.Context(), userID, bookID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FavoriteHandler) favoriteIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, err := pathUUID(r, "userId")
	if err != nil {
		handleServiceError(w, r, err)
		return uuid.Nil, uuid.Nil, false
	}
	bookID, err := pathUUID(r, "bookId")
	if err != nil {
		handleServiceError(w, r, err)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, bookID, true
}
