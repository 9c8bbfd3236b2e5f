package repository

import (
	"context"
	stderrors "errors"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"convochat/internal/domain/repository"
	"convochat/pkg/errors"
	"convochat/pkg/logger"
)

// subscribeQuery drains q's snapshot stream on its own goroutine, handing each
// full result set to onDocs until the returned func is called. A stream
// failure is reported once through onError and ends the goroutine; the caller
// keeps its handle until it unsubscribes.
func subscribeQuery(key string, q firestore.Query, onDocs func([]*firestore.DocumentSnapshot), onError func(error)) repository.Unsubscribe {
	ctx, cancel := context.WithCancel(context.Background())
	it := q.Snapshots(ctx)

	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if isStreamClosed(ctx, err) {
					logger.Debug("Subscription %s closed", key)
					return
				}
				logger.Warn("Subscription %s failed: %v", key, err)
				if onError != nil {
					onError(errors.Subscription(key, err))
				}
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				logger.Warn("Subscription %s: failed to read snapshot: %v", key, err)
				if onError != nil {
					onError(errors.Subscription(key, err))
				}
				return
			}
			onDocs(docs)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(cancel)
	}
}

func isStreamClosed(ctx context.Context, err error) bool {
	if ctx.Err() != nil || err == iterator.Done {
		return true
	}
	if stderrors.Is(err, context.Canceled) {
		return true
	}
	return status.Code(err) == codes.Canceled
}
