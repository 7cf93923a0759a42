package handler

import (
	"net/http"

	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/usecase"
)

// PublisherUseCases は出版社ハンドラーが利用するユースケース群。
type PublisherUseCases struct {
	Create   usecase.CreatePublisher
	Update   usecase.UpdatePublisher
	Delete   usecase.DeletePublisher
	ReadByID usecase.ReadPublisherByID
	Read     usecase.ReadPublishers
}

// PublisherHandler は出版社関連のHTTPハンドラー。参照にも認証を要求する。
type PublisherHandler struct {
	uc    PublisherUseCases
	guard Guard
}

func NewPublisherHandler(uc PublisherUseCases, guard Guard) *PublisherHandler {
	return &PublisherHandler{uc: uc, guard: guard}
}

func (h *PublisherHandler) ListPublishers(w http.ResponseWriter, r *http.Request) {
	publishers, err := h.uc.Read.ReadPublishers(r.Context(), r.URL.Query().Get("q"), listPage(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeList(w, publishers)
}

func (h *PublisherHandler) GetPublisher(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	publisher, err := h.uc.ReadByID.ReadPublisherByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, publisher)
}

func (h *PublisherHandler) CreatePublisher(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "", model.RoleModerator) {
		return
	}
	var publisher model.Publisher
	if err := decodeJSON(w, r, &publisher); err != nil {
		handleServiceError(w, r, err)
		return
	}
	created, err := h.uc.Create.CreatePublisher(r.Context(), publisher)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *PublisherHandler) UpdatePublisher(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "", model.RoleModerator) {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var publisher model.Publisher
	if err := decodeJSON(w, r, &publisher); err != nil {
		handleServiceError(w, r, err)
		return
	}
	publisher.ID = id

	if _, err := h.uc.Update.UpdatePublisher(r.Context(), publisher); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PublisherHandler) DeletePublisher(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "", model.RoleModerator) {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := h.uc.Delete.DeletePublisher(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
