package main

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type BookServiceProvider interface {
	Search(ctx context.Context, filter BookFilter) ([]Book, error)
	GetOne(ctx context.Context, id int64) (Book, error)
	Add(ctx context.Context, book Book) (Book, error)
	Update(ctx context.Context, id int64, book Book) (Book, error)
	Delete(ctx context.Context, id int64) error
}

type BookService struct {
	logger  *zap.Logger
	clock   Clocker
	storage BookStorage
	events  EventPublisher
}

func NewBookService(logger *zap.Logger, clock Clocker, storage BookStorage, events EventPublisher) BookServiceProvider {
	if events == nil {
		events = NewNoopEventPublisher()
	}
	return &BookService{
		logger:  logger,
		clock:   clock,
		storage: storage,
		events:  events,
	}
}

func (bs *BookService) Search(ctx context.Context, filter BookFilter) ([]Book, error) {
	return bs.storage.Search(ctx, filter)
}

func (bs *BookService) GetOne(ctx context.Context, id int64) (Book, error) {
	return bs.storage.GetOne(ctx, id)
}

func (bs *BookService) Add(ctx context.Context, book Book) (Book, error) {
	created, err := bs.storage.Add(ctx, book)
	if err != nil {
		return created, err
	}
	bs.publish(ctx, BookCreated, created.ID, &created)
	return created, nil
}

func (bs *BookService) Update(ctx context.Context, id int64, book Book) (Book, error) {
	updated, err := bs.storage.Update(ctx, id, book)
	if err != nil {
		return updated, err
	}
	bs.publish(ctx, BookUpdated, updated.ID, &updated)
	return updated, nil
}

func (bs *BookService) Delete(ctx context.Context, id int64) error {
	if err := bs.storage.Delete(ctx, id); err != nil {
		return err
	}
	bs.publish(ctx, BookDeleted, id, nil)
	return nil
}

// publish notifies a successful write. A failure is only logged since
// the write itself is already committed.
func (bs *BookService) publish(ctx context.Context, kind string, id int64, book *Book) {
	event := BookEvent{
		Kind:      kind,
		BookID:    id,
		Book:      book,
		RequestID: GetValueFromContext(ctx, RequestIDContextKey),
		Timestamp: bs.clock.Now().UTC().Format(time.RFC3339),
	}
	if err := bs.events.Publish(ctx, event); err != nil {
		bs.logger.Error("service: failed to publish book event",
			zap.String("event.kind", kind),
			zap.Int64("book.id", id),
			zap.String("request.id", event.RequestID),
			zap.Error(err),
		)
	}
}
