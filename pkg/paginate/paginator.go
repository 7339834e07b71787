// Package paginate drives repeated requests to enumerate paginated
// collections. Pages are fetched strictly sequentially: accumulation order
// carries meaning downstream (first-seen tie-breaks), and the API gives no
// cursor-free parallel fetch guarantee.
package paginate

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"strconv"

	"github.com/gitscout/gitscout/pkg/client"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrEnumerationAborted marks an enumeration terminated by a page failure.
// Records produced before the failure remain valid.
var ErrEnumerationAborted = errors.New("enumeration aborted")

// Fetcher is the single-request unit the paginator drives. *client.Client
// implements it.
type Fetcher interface {
	Get(ctx context.Context, endpoint string, params url.Values) (*client.Page, error)
}

// Paginator enumerates collection endpoints into lazy record sequences.
type Paginator struct {
	fetcher Fetcher
	logger  zerolog.Logger

	// PageSize is the fixed per-page item count requested.
	PageSize int

	// SearchCeiling caps retrievable search results regardless of the
	// reported total, mirroring the server's own hard cap.
	SearchCeiling int
}

// New creates a Paginator with the API's standard limits (100 items per
// page, 1000-result search cap).
func New(fetcher Fetcher) *Paginator {
	return &Paginator{
		fetcher:       fetcher,
		logger:        log.With().Str("component", "paginator").Logger(),
		PageSize:      100,
		SearchCeiling: 1000,
	}
}

// Search enumerates a search-style endpoint: the first page reports an
// approximate total_count, and retrieval stops at an empty page, a short
// page, or min(total_count, SearchCeiling) records, whichever comes first.
// The sequence is lazy; abandoning it stops further requests.
func (p *Paginator) Search(ctx context.Context, endpoint string, params url.Values) iter.Seq2[client.RawRecord, error] {
	return func(yield func(client.RawRecord, error) bool) {
		produced := 0
		limit := -1 // unknown until the first page

		for pageNum := 1; ; pageNum++ {
			page, err := p.fetchPage(ctx, endpoint, params, pageNum)
			if err != nil {
				yield(nil, err)
				return
			}

			if pageNum == 1 && page.TotalCount > 0 {
				limit = page.TotalCount
				if limit > p.SearchCeiling {
					limit = p.SearchCeiling
				}
				p.logger.Info().
					Str("endpoint", endpoint).
					Int("total_count", page.TotalCount).
					Int("retrievable", limit).
					Msg("Search enumeration started")
			}

			for _, record := range page.Items {
				if limit >= 0 && produced >= limit {
					return
				}
				if !yield(record, nil) {
					return
				}
				produced++
			}

			if len(page.Items) == 0 || len(page.Items) < p.PageSize {
				return
			}
			if limit >= 0 && produced >= limit {
				return
			}
		}
	}
}

// List enumerates a list-style endpoint with no authoritative total. The
// caller supplies maxPages as protection against unbounded responses; stops
// at an empty page, a short page, or the page ceiling.
func (p *Paginator) List(ctx context.Context, endpoint string, params url.Values, maxPages int) iter.Seq2[client.RawRecord, error] {
	return func(yield func(client.RawRecord, error) bool) {
		for pageNum := 1; pageNum <= maxPages; pageNum++ {
			page, err := p.fetchPage(ctx, endpoint, params, pageNum)
			if err != nil {
				yield(nil, err)
				return
			}

			for _, record := range page.Items {
				if !yield(record, nil) {
					return
				}
			}

			if len(page.Items) == 0 || len(page.Items) < p.PageSize {
				return
			}
		}
	}
}

func (p *Paginator) fetchPage(ctx context.Context, endpoint string, params url.Values, pageNum int) (*client.Page, error) {
	q := url.Values{}
	for name, values := range params {
		q[name] = values
	}
	q.Set("per_page", strconv.Itoa(p.PageSize))
	q.Set("page", strconv.Itoa(pageNum))

	p.logger.Debug().
		Str("endpoint", endpoint).
		Int("page", pageNum).
		Msg("Fetching page")
	return p.fetcher.Get(ctx, endpoint, q)
}

// Collect consumes a record sequence eagerly. On failure it returns the
// records accumulated so far together with an error wrapping
// ErrEnumerationAborted; partial results are never discarded here, the
// partial-result policy belongs to the caller.
func Collect(seq iter.Seq2[client.RawRecord, error]) ([]client.RawRecord, error) {
	var records []client.RawRecord
	for record, err := range seq {
		if err != nil {
			return records, fmt.Errorf("%w after %d records: %w", ErrEnumerationAborted, len(records), err)
		}
		records = append(records, record)
	}
	return records, nil
}
