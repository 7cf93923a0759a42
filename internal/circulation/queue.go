package circulation

import (
	"context"

	"github.com/google/uuid"

	"github.com/hitoshi/bookshelf/internal/model"
)

const resourceQueueEntry = "Queue entry"

// CreateQueueEntry は蔵書の待ち行列の末尾に利用者を追加する。
func (s *Service) CreateQueueEntry(ctx context.Context, e model.QueueEntry) (*model.QueueEntry, error) {
	if err := requireIDs(e.BookID, e.UserID); err != nil {
		return nil, err
	}
	exists, err := s.queue.Exists(ctx, e.UserID, e.BookID)
	if err != nil {
		return nil, translate(err, resourceQueueEntry, "check")
	}
	if exists {
		return nil, model.NewDuplicateError("Queue entry already exists")
	}

	e.ID = uuid.New()
	e.CreatedAt = s.now()
	if err := s.queue.Create(ctx, &e); err != nil {
		return nil, translate(err, resourceQueueEntry, "create")
	}
	return &e, nil
}

// UpdateQueueEntry は待ち行列内の位置を変更する。
func (s *Service) UpdateQueueEntry(ctx context.Context, e model.QueueEntry) (*model.QueueEntry, error) {
	if e.Position < 1 {
		return nil, model.NewDomainError("position must be positive")
	}
	ok, err := s.queue.Update(ctx, &e)
	if err := found(ok, err, resourceQueueEntry, "update"); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Service) DeleteQueueEntry(ctx context.Context, id uuid.UUID) error {
	ok, err := s.queue.Delete(ctx, id)
	return found(ok, err, resourceQueueEntry, "delete")
}

func (s *Service) ReadQueueEntries(ctx context.Context, filter model.CirculationFilter, page model.Page) ([]model.QueueEntry, error) {
	list, err := s.queue.List(ctx, filter, page)
	if err != nil {
		return nil, translate(err, resourceQueueEntry, "list")
	}
	return list, nil
}
