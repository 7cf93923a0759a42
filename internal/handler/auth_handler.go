package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/bookshelf/internal/middleware"
	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/usecase"
)

// AuthHandler はログインのHTTPハンドラー。
type AuthHandler struct {
	login  usecase.LoginUser
	tokens usecase.IssueToken
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(login usecase.LoginUser, tokens usecase.IssueToken) *AuthHandler {
	return &AuthHandler{login: login, tokens: tokens}
}

type loginRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

type loginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Login はPOST /auth/login を処理する。
// 資格情報が一致しない場合は401、想定外の失敗は原因を含めて500を返す。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.loginFailed(w, err)
		return
	}

	user, err := h.login.LoginUser(r.Context(), req.PhoneNumber, req.Password)
	if err != nil {
		h.loginFailed(w, err)
		return
	}
	if user == nil {
		slog.Warn("ログインに失敗しました", slog.String("reason", "invalid credentials"))
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.MessageInvalidCredentials)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.loginFailed(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user.Sanitized()})
}

func (h *AuthHandler) loginFailed(w http.ResponseWriter, err error) {
	slog.Error("login failed", slog.String("error", err.Error()))
	middleware.WriteErrorResponse(w, http.StatusInternalServerError, "Failed to login: "+err.Error())
}
