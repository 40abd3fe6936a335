package pipeline

import (
	"bytes"
	"context"
	"errors"

	"github.com/duarteocarmo/limpa/internal/logging"
	"github.com/duarteocarmo/limpa/internal/objectstore"
	"github.com/duarteocarmo/limpa/internal/services"
	"github.com/duarteocarmo/limpa/internal/subscription"
)

// FeedURL returns the public URL serving a subscription's rewritten feed.
func (r *Runner) FeedURL(sub *subscription.Subscription) string {
	return r.objects.URL(objectstore.FeedKey(sub.URLHash))
}

// Register validates a feed URL, creates the subscription record, and uploads
// the raw feed document so the published URL serves content before the first
// refresh completes.
func (r *Runner) Register(ctx context.Context, url string) (*subscription.Subscription, error) {
	meta, err := r.feeds.FetchValidate(ctx, url)
	if err != nil {
		return nil, err
	}

	sub, err := r.store.Create(ctx, url, meta.Title)
	if err != nil {
		if errors.Is(err, subscription.ErrDuplicateURL) {
			return nil, services.Wrap(services.ErrDuplicate, "register", "create", "feed is already subscribed", err)
		}
		return nil, services.Wrap(services.ErrPipeline, "register", "create", url, err)
	}

	key := objectstore.FeedKey(sub.URLHash)
	if err := r.objects.Put(ctx, key, objectstore.ContentTypeFeed, bytes.NewReader(meta.Raw)); err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "registered subscription",
		logging.Int64(logging.FieldSubscriptionID, sub.ID),
		logging.String("title", sub.Title),
		logging.String("feed_url", r.objects.URL(key)))
	return sub, nil
}
