package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/usecase"
)

// BbkUseCases はBBKハンドラーが利用するユースケース群。
type BbkUseCases struct {
	Create   usecase.CreateBbk
	Update   usecase.UpdateBbk
	Delete   usecase.DeleteBbk
	ReadByID usecase.ReadBbkByID
	Read     usecase.ReadBbks
}

// ApuUseCases はAPUハンドラーが利用するユースケース群。
type ApuUseCases struct {
	Create   usecase.CreateApu
	Update   usecase.UpdateApu
	Delete   usecase.DeleteApu
	ReadByID usecase.ReadApuByID
	Read     usecase.ReadApus
}

// ClassificationHandler は分類（BBK・APU）関連のHTTPハンドラー。
// 一覧と参照は認証不要、変更はMODERATORのみ。
type ClassificationHandler struct {
	bbk   BbkUseCases
	apu   ApuUseCases
	guard Guard
}

func NewClassificationHandler(bbk BbkUseCases, apu ApuUseCases, guard Guard) *ClassificationHandler {
	return &ClassificationHandler{bbk: bbk, apu: apu, guard: guard}
}

// --- BBK ---

func (h *ClassificationHandler) ListBbks(w http.ResponseWriter, r *http.Request) {
	bbks, err := h.bbk.Read.ReadBbks(r.Context(), r.URL.Query().Get("q"), listPage(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeList(w, bbks)
}

func (h *ClassificationHandler) GetBbk(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	bbk, err := h.bbk.ReadByID.ReadBbkByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bbk)
}

func (h *ClassificationHandler) CreateBbk(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "Only moderators can create BBK entries", model.RoleModerator) {
		return
	}
	var bbk model.Bbk
	if err := decodeJSON(w, r, &bbk); err != nil {
		handleServiceError(w, r, err)
		return
	}
	created, err := h.bbk.Create.CreateBbk(r.Context(), bbk)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateBbk はPATCH /bbks を処理する。IDはボディで受け取る。
func (h *ClassificationHandler) UpdateBbk(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "Only moderators can update BBK entries", model.RoleModerator) {
		return
	}
	var bbk model.Bbk
	if err := decodeJSON(w, r, &bbk); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if bbk.ID == uuid.Nil {
		handleServiceError(w, r, model.NewParameterError("id is required"))
		return
	}
	if _, err := h.bbk.Update.UpdateBbk(r.Context(), bbk); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ClassificationHandler) DeleteBbk(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "Only moderators can delete BBK entries", model.RoleModerator) {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := h.bbk.Delete.DeleteBbk(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- APU ---

func (h *ClassificationHandler) ListApus(w http.ResponseWriter, r *http.Request) {
	apus, err := h.apu.Read.ReadApus(r.Context(), r.URL.Query().Get("q"), listPage(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeList(w, apus)
}

func (h *ClassificationHandler) GetApu(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	apu, err := h.apu.ReadByID.ReadApuByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apu)
}

func (h *ClassificationHandler) CreateApu(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "Only moderators can create APU entries", model.RoleModerator) {
		return
	}
	var apu model.Apu
	if err := decodeJSON(w, r, &apu); err != nil {
		handleServiceError(w, r, err)
		return
	}
	created, err := h.apu.Create.CreateApu(r.Context(), apu)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateApu はPATCH /apus/{id} を処理する。更新結果を200で返す。
func (h *ClassificationHandler) UpdateApu(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "Only moderators can update APU entries", model.RoleModerator) {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var apu model.Apu
	if err := decodeJSON(w, r, &apu); err != nil {
		handleServiceError(w, r, err)
		return
	}
	apu.ID = id

	updated, err := h.apu.Update.UpdateApu(r.Context(), apu)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ClassificationHandler) DeleteApu(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "Only moderators can delete APU entries", model.RoleModerator) {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := h.apu.Delete.DeleteApu(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
