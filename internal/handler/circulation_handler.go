package handler

import (
	"net/http"

	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/usecase"
)

// ReservationUseCases は取り置きハンドラーが利用するユースケース群。
type ReservationUseCases struct {
	Create usecase.CreateReservation
	Update usecase.UpdateReservation
	Delete usecase.DeleteReservation
	Read   usecase.ReadReservations
}

// QueueUseCases は貸出待ち行列ハンドラーが利用するユースケース群。
type QueueUseCases struct {
	Create usecase.CreateQueueEntry
	Update usecase.UpdateQueueEntry
	Delete usecase.DeleteQueueEntry
	Read   usecase.ReadQueueEntries
}

// IssuanceUseCases は貸出ハンドラーが利用するユースケース群。
type IssuanceUseCases struct {
	Create usecase.CreateIssuance
	Update usecase.UpdateIssuance
	Delete usecase.DeleteIssuance
	Read   usecase.ReadIssuances
}

// CirculationHandler は取り置き・待ち行列・貸出のHTTPハンドラー。
// すべての操作に認証を要求する。
type CirculationHandler struct {
	reservations ReservationUseCases
	queue        QueueUseCases
	issuances    IssuanceUseCases
	guard        Guard
}

// NewCirculationHandler は新しいCirculationHandlerを生成する。
func NewCirculationHandler(reservations ReservationUseCases, queue QueueUseCases, issuances IssuanceUseCases, guard Guard) *CirculationHandler {
	return &CirculationHandler{
		reservations: reservations,
		queue:        queue,
		issuances:    issuances,
		guard:        guard,
	}
}

// --- 取り置き ---

func (h *CirculationHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	filter, err := circulationFilter(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	reservations, err := h.reservations.Read.ReadReservations(r.Context(), filter, listPage(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeList(w, reservations)
}

// CreateReservation はPOST /reservations を処理する。READERのみ。
func (h *CirculationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "", model.RoleReader) {
		return
	}
	var reservation model.Reservation
	if err := decodeJSON(w, r, &reservation); err != nil {
		handleServiceError(w, r, err)
		return
	}
	created, err := h.reservations.Create.CreateReservation(r.Context(), reservation)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateReservation はPATCH /reservations/{id} を処理する。LIBRARIANのみ。
func (h *CirculationHandler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "", model.RoleLibrarian) {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var reservation model.Reservation
	if err := decodeJSON(w, r, &reservation); err != nil {
		handleServiceError(w, r, err)
		return
	}
	reservation.ID = id

	if _, err := h.reservations.Update.UpdateReservation(r.Context(), reservation); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteReservation はDELETE /reservations/{id} を処理する。MODERATORのみ。
func (h *CirculationHandler) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "", model.RoleModerator) {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := h.reservations.Delete.DeleteReservation(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- 貸出待ち行列 ---

func (h *CirculationHandler) ListQueueEntries(w http.ResponseWriter, r *http.Request) {
	filter, err := circulationFilter(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	entries, err := h.queue.Read.ReadQueueEntries(r.Context(), filter, listPage(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeList(w, entries)
}

func (h *CirculationHandler) CreateQueueEntry(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "", model.RoleReader) {
		return
	}
	var entry model.QueueEntry
	if err := decodeJSON(w, r, &entry); err != nil {
		handleServiceError(w, r, err)
		return
	}
	created, err := h.queue.Create.CreateQueueEntry(r.Context(), entry)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *CirculationHandler) UpdateQueueEntry(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "", model.RoleModerator) {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var entry model.QueueEntry
	if err := decodeJSON(w, r, &entry); err != nil {
		handleServiceError(w, r, err)
		return
	}
	entry.ID = id

	if _, err := h.queue.Update.UpdateQueueEntry(r.Context(), entry); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CirculationHandler) DeleteQueueEntry(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "", model.RoleModerator) {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := h.queue.Delete.DeleteQueueEntry(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- 貸出 ---

func (h *CirculationHandler) ListIssuances(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "", memberRoles...) {
		return
	}
	filter, err := circulationFilter(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	issuances, err := h.issuances.Read.ReadIssuances(r.Context(), filter, listPage(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeList(w, issuances)
}

func (h *CirculationHandler) CreateIssuance(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "", memberRoles...) {
		return
	}
	var issuance model.Issuance
	if err := decodeJSON(w, r, &issuance); err != nil {
		handleServiceError(w, r, err)
		return
	}
	created, err := h.issuances.Create.CreateIssuance(r.Context(), issuance)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *CirculationHandler) UpdateIssuance(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "", staffRoles...) {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var issuance model.Issuance
	if err := decodeJSON(w, r, &issuance); err != nil {
		handleServiceError(w, r, err)
		return
	}
	issuance.ID = id

	if _, err := h.issuances.Update.UpdateIssuance(r.Context(), issuance); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CirculationHandler) DeleteIssuance(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "", staffRoles...) {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := h.issuances.Delete.DeleteIssuance(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
