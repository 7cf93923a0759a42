package circulation

import (
	"context"

	"github.com/google/uuid"

	"github.com/hitoshi/bookshelf/internal/model"
)

const resourceFavorite = "Favorite"

func (s *Service) AddFavorite(ctx context.Context, userID, bookID uuid.UUID) (*model.Favorite, error) {
	if err := requireIDs(bookID, userID); err != nil {
		return nil, err
	}
	f := &model.Favorite{UserID: userID, BookID: bookID, CreatedAt: s.now()}
	if err := s.favorites.Create(ctx, f); err != nil {
		return nil, translate(err, resourceFavorite, "create")
	}
	return f, nil
}

func (s *Service) RemoveFavorite(ctx context.Context, userID, bookID uuid.UUID) error {
	ok, err := s.favorites.Delete(ctx, userID, bookID)
	return found(ok, err, resourceFavorite, "delete")
}

// ReadFavoriteBooks は利用者がお気に入り登録した蔵書を返す。
func (s *Service) ReadFavoriteBooks(ctx context.Context, userID uuid.UUID, page model.Page) ([]model.Book, error) {
	books, err := s.favorites.ListBooks(ctx, userID, page)
	if err != nil {
		return nil, translate(err, resourceFavorite, "list")
	}
	return books, nil
}
