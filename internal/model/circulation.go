package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Reservation は蔵書の取り置きを表す。
type Reservation struct {
	ID         uuid.UUID `json:"id" db:"id"`
	BookID     uuid.UUID `json:"bookId" db:"book_id"`
	UserID     uuid.UUID `json:"userId" db:"user_id"`
	ReservedAt time.Time `json:"reservedAt" db:"reserved_at"`
	ExpiresAt  time.Time `json:"expiresAt" db:"expires_at"`
}

// QueueEntry は貸出待ち行列の1件を表す。
type QueueEntry struct {
	ID        uuid.UUID `json:"id" db:"id"`
	BookID    uuid.UUID `json:"bookId" db:"book_id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Issuance は貸出記録を表す。ReturnedAtがnilの間は貸出中。
type Issuance struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	BookID     uuid.UUID  `json:"bookId" db:"book_id"`
	UserID     uuid.UUID  `json:"userId" db:"user_id"`
	IssuedAt   time.Time  `json:"issuedAt" db:"issued_at"`
	DueAt      time.Time  `json:"dueAt" db:"due_at"`
	ReturnedAt *time.Time `json:"returnedAt" db:"returned_at"`

	// ReturnedAtSet はJSONにreturnedAtキーが含まれていた場合にtrueとなる。
	// 更新時はこれがtrueの場合のみ返却状態を変更する。
	ReturnedAtSet bool `json:"-" db:"-"`
}

// UnmarshalJSON はreturnedAtの指定有無を記録しながらIssuanceを復元する。
// "returnedAt": null は未返却に戻す指定として扱う。
func (i *Issuance) UnmarshalJSON(data []byte) error {
	type plain Issuance
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*i = Issuance(out)
	_, i.ReturnedAtSet = keys["returnedAt"]
	return nil
}

// Favorite は利用者のお気に入り登録を表す。
type Favorite struct {
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	BookID    uuid.UUID `json:"bookId" db:"book_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// CirculationFilter は取り置き・待ち行列・貸出の一覧検索条件。
// nilのフィールドは条件に含めない。
type CirculationFilter struct {
	BookID *uuid.UUID
	UserID *uuid.UUID
}
