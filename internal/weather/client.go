package weather

import (
	"context"
	"time"
)

// Client abstracts the external weather provider. FetchDay is the unit the
// cache fans out on; FetchRange is range-naive (no cache consultation) and
// exists for call sites that always want a contiguous pull, such as location
// bootstrap.
type Client interface {
	FetchDay(ctx context.Context, query string, date time.Time) (*HistoryResponse, error)
	FetchRange(ctx context.Context, query string, start, end time.Time) ([]*HistoryResponse, error)
}
