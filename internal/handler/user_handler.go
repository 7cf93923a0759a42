package handler

import (
	"net/http"

	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/usecase"
)

const msgRoleAssignmentForbidden = "Only moderators can assign roles"

// UserUseCases は利用者ハンドラーが利用するユースケース群。
type UserUseCases struct {
	Create   usecase.CreateUser
	Update   usecase.UpdateUser
	Delete   usecase.DeleteUser
	ReadByID usecase.ReadUserByID
	Read     usecase.ReadUsers
}

// UserHandler は利用者関連のHTTPハンドラー。
// 参照と新規登録は認証不要、更新と削除はMODERATORのみ。
type UserHandler struct {
	uc    UserUseCases
	guard Guard
}

// NewUserHandler は新しいUserHandlerを生成する。
func NewUserHandler(uc UserUseCases, guard Guard) *UserHandler {
	return &UserHandler{uc: uc, guard: guard}
}

// ListUsers はGET /users を処理する。phone（別名q）で電話番号を絞り込む。
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	if phone == "" {
		phone = r.URL.Query().Get("q")
	}
	users, err := h.uc.Read.ReadUsers(r.Context(), phone, listPage(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeList(w, users)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	user, err := h.uc.ReadByID.ReadUserByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Sanitized())
}

// CreateUser はPOST /users（利用者登録）を処理する。
// 認証不要のため、READER以外のロール指定は403とする。
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var user model.User
	if err := decodeJSON(w, r, &user); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if user.Role != "" && user.Role != model.RoleReader {
		handleServiceError(w, r, model.NewForbiddenError(msgRoleAssignmentForbidden))
		return
	}
	user.Role = model.RoleReader
	created, err := h.uc.Create.CreateUser(r.Context(), user)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created.Sanitized())
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "", model.RoleModerator) {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var user model.User
	if err := decodeJSON(w, r, &user); err != nil {
		handleServiceError(w, r, err)
		return
	}
	user.ID = id

	if _, err := h.uc.Update.UpdateUser(r.Context(), user); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if !h.guard.RequireRole(w, r, "", model.RoleModerator) {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := h.uc.Delete.DeleteUser(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
