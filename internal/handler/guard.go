package handler

import (
	"net/http"

	"github.com/hitoshi/bookshelf/internal/middleware"
	"github.com/hitoshi/bookshelf/internal/model"
)

// Guard はルート単位の認証・認可チェックを行う。
// ボディの解析やユースケース呼び出しより前に評価する。
// enforceがfalseの場合（v1 API）はチェックを行わない。
type Guard struct {
	enforce bool
}

// NewGuard はGuardを生成する。
func NewGuard(enforce bool) Guard {
	return Guard{enforce: enforce}
}

// RequireRole は検証済みのPrincipalとロールの所属を要求する。
// 未認証は401、ロール不一致はmessageを本文とする403を書き込みfalseを返す。
func (g Guard) RequireRole(w http.ResponseWriter, r *http.Request, message string, roles ...model.Role) bool {
	if !g.enforce {
		return true
	}
	principal := middleware.PrincipalFromContext(r.Context())
	if principal == nil {
		handleServiceError(w, r, model.NewUnauthenticatedError())
		return false
	}
	if !principal.HasAnyRole(roles...) {
		handleServiceError(w, r, model.NewForbiddenError(message))
		return false
	}
	return true
}

var staffRoles = []model.Role{model.RoleLibrarian, model.RoleModerator}

var memberRoles = []model.Role{model.RoleReader, model.RoleLibrarian, model.RoleModerator}
