package model

import "github.com/google/uuid"

// Book は蔵書を表す。
// AvailableCopiesは貸出中を除いた冊数。
type Book struct {
	ID              uuid.UUID     `json:"id" db:"id"`
	Title           string        `json:"title" db:"title"`
	Annotation      string        `json:"annotation" db:"annotation"`
	ISBN            string        `json:"isbn" db:"isbn"`
	PublishYear     int           `json:"publishYear" db:"publish_year"`
	AuthorID        uuid.NullUUID `json:"authorId" db:"author_id"`
	PublisherID     uuid.NullUUID `json:"publisherId" db:"publisher_id"`
	BbkID           uuid.NullUUID `json:"bbkId" db:"bbk_id"`
	Copies          int           `json:"copies" db:"copies"`
	AvailableCopies int           `json:"availableCopies" db:"available_copies"`
}

// Author は著者を表す。
type Author struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Surname   string    `json:"surname" db:"surname"`
	Biography string    `json:"biography" db:"biography"`
}

// Bbk は図書館分類（BBK）のコードを表す。
type Bbk struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Code        string    `json:"code" db:"code"`
	Description string    `json:"description" db:"description"`
}

// Apu はBBKに紐づく件名索引の項目を表す。
type Apu struct {
	ID    uuid.UUID     `json:"id" db:"id"`
	Term  string        `json:"term" db:"term"`
	BbkID uuid.NullUUID `json:"bbkId" db:"bbk_id"`
}

// Publisher は出版社を表す。
type Publisher struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	City        string    `json:"city" db:"city"`
	Email       string    `json:"email" db:"email"`
	PhoneNumber string    `json:"phoneNumber" db:"phone_number"`
}
