package model

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Role は利用者の権限区分。
// 権限判定は集合の所属で行い、ロール間の上下関係は持たない。
type Role string

const (
	RoleReader    Role = "READER"
	RoleLibrarian Role = "LIBRARIAN"
	RoleModerator Role = "MODERATOR"
)

// AllRoles は定義済みの全ロールを返す。
func AllRoles() []Role {
	return []Role{RoleReader, RoleLibrarian, RoleModerator}
}

// ParseRole は文字列をRoleに変換する。
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !slices.Contains(AllRoles(), r) {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}

// Principal は検証済みトークンから得られるリクエスト単位の利用者情報。
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

// HasRole はロールが指定ロールと一致するかを返す。
func (p *Principal) HasRole(role Role) bool {
	if p == nil {
		return false
	}
	return p.Role == role
}

// HasAnyRole はロールが指定集合に含まれるかを返す。
func (p *Principal) HasAnyRole(roles ...Role) bool {
	if p == nil {
		return false
	}
	return slices.Contains(roles, p.Role)
}
