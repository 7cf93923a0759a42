// Package catalog は蔵書目録（蔵書、著者、BBK分類、件名索引、出版社）のドメインロジックを提供する。
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/repository"
	"github.com/hitoshi/bookshelf/internal/security"
)

// Repositories はServiceが使用するリポジトリの集合。
type Repositories struct {
	Books      repository.BookRepository
	Authors    repository.AuthorRepository
	Bbks       repository.BbkRepository
	Apus       repository.ApuRepository
	Publishers repository.PublisherRepository
}

// Service は目録のサービス層。
// 自由入力テキストは保存前にサニタイズする。
type Service struct {
	books      repository.BookRepository
	authors    repository.AuthorRepository
	bbks       repository.BbkRepository
	apus       repository.ApuRepository
	publishers repository.PublisherRepository
	sanitizer  security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repos Repositories, sanitizer security.TextSanitizer) *Service {
	return &Service{
		books:      repos.Books,
		authors:    repos.Authors,
		bbks:       repos.Bbks,
		apus:       repos.Apus,
		publishers: repos.Publishers,
		sanitizer:  sanitizer,
	}
}

// required は必須項目が空でないことを検証する。
func required(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return model.NewDomainError(fmt.Sprintf("%s is required", field))
	}
	return nil
}

// translate はリポジトリのエラーをAPIエラーに変換する。
// 分類できないエラーは操作名を付けてラップする。
func translate(err error, resource, op string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return model.NewDuplicateError(resource + " already exists")
	case errors.Is(err, repository.ErrReferenceNotFound):
		return model.NewDomainError("Referenced record does not exist")
	}
	return fmt.Errorf("failed to %s %s: %w", op, strings.ToLower(resource), err)
}

// found はUpdate/Deleteの結果を検証し、対象が無ければNotFoundを返す。
func found(ok bool, err error, resource, op string) error {
	if err != nil {
		return translate(err, resource, op)
	}
	if !ok {
		return model.NewNotFoundError(resource)
	}
	return nil
}
