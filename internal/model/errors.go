// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// Codeで分類され、HTTPステータスへの変換はエラーマッパーが行う。
type APIError struct {
	Code    string // エラーコード
	Message string // クライアントに返すメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeMissingParameter  = "MISSING_PARAMETER"
	ErrCodeConversionFailure = "CONVERSION_FAILURE"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeDuplicate         = "DUPLICATE"
	ErrCodeNoAvailableCopies = "NO_AVAILABLE_COPIES"
	ErrCodeDomain            = "DOMAIN_ERROR"
	ErrCodeUnauthenticated   = "UNAUTHENTICATED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeReadOnly          = "READ_ONLY"
)

// 固定メッセージ
const (
	MessageAuthenticationRequired = "Authentication required"
	MessageInsufficientPermission = "Insufficient permissions"
	MessageReadOnly               = "This instance is read-only"
	MessageInvalidCredentials     = "Invalid email or password"
)

// NewParameterError は欠落または不正なパラメータのエラーを生成する。
func NewParameterError(message string) *APIError {
	return &APIError{Code: ErrCodeMissingParameter, Message: message}
}

// NewConversionError はリクエストボディの変換失敗エラーを生成する。
func NewConversionError(reason string) *APIError {
	return &APIError{
		Code:    ErrCodeConversionFailure,
		Message: fmt.Sprintf("Failed to convert request body: %s", reason),
	}
}

// NewNotFoundError は "<Resource> not found" 形式のエラーを生成する。
func NewNotFoundError(resource string) *APIError {
	return &APIError{Code: ErrCodeNotFound, Message: resource + " not found"}
}

// NewDuplicateError は一意制約違反のエラーを生成する。
func NewDuplicateError(message string) *APIError {
	return &APIError{Code: ErrCodeDuplicate, Message: message}
}

// NewNoAvailableCopiesError は貸出可能な冊数が無い場合のエラーを生成する。
func NewNoAvailableCopiesError(bookID string) *APIError {
	return &APIError{
		Code:    ErrCodeNoAvailableCopies,
		Message: fmt.Sprintf("No available copies for book %s", bookID),
	}
}

// NewDomainError はその他のドメインエラーを生成する。
func NewDomainError(message string) *APIError {
	return &APIError{Code: ErrCodeDomain, Message: message}
}

// NewUnauthenticatedError は未認証エラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{Code: ErrCodeUnauthenticated, Message: MessageAuthenticationRequired}
}

// NewForbiddenError はロール不足のエラーを生成する。
// messageが空の場合は汎用メッセージを使用する。
func NewForbiddenError(message string) *APIError {
	if message == "" {
		message = MessageInsufficientPermission
	}
	return &APIError{Code: ErrCodeForbidden, Message: message}
}

// NewReadOnlyError は読み取り専用モードでの変更操作エラーを生成する。
func NewReadOnlyError() *APIError {
	return &APIError{Code: ErrCodeReadOnly, Message: MessageReadOnly}
}
