package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/PioneersHub/pytanis-go/internal/wire"
)

// Page is a pull-based lazy sequence over a paginated list endpoint. Its
// pagination state is (next_url, buffer, count). Advancing drains the
// buffer, then refills
// from next_url when the buffer empties. Suspension points are exactly
// the boundaries between yielded elements: an element is always fully
// parsed before Next returns it.
type Page[T any] struct {
	f       *Fetcher
	path    string
	nextURL *string
	buffer  []T
	count   int
	fetched int
	started bool
}

// List starts a lazy paginated sequence against path with the given query
// parameters. No request is issued until the first call to Next.
func List[T any](f *Fetcher, path string, query url.Values) *Page[T] {
	u := f.mustFirstURL(path, query)
	return &Page[T]{f: f, path: path, nextURL: &u}
}

// mustFirstURL resolves the first page's URL eagerly (string building,
// never a network call) so Page can be constructed without ctx.
func (f *Fetcher) mustFirstURL(path string, query url.Values) string {
	u, err := f.buildURL(path, query)
	if err != nil {
		// buildURL only fails on a malformed configured base URL, a
		// programmer error caught in tests, not a runtime condition.
		panic(err)
	}
	return u
}

// Count returns the total element count reported by the first page. It is
// zero until the first call to Next.
func (p *Page[T]) Count() int { return p.count }

// Next advances the sequence by one element. ok is false once the
// sequence is exhausted; err is non-nil on a request or decode failure,
// in which case the sequence must not be advanced further.
func (p *Page[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T

	if len(p.buffer) == 0 {
		if p.started && p.nextURL == nil {
			return zero, false, nil
		}
		if err := p.refill(ctx); err != nil {
			return zero, false, err
		}
		if len(p.buffer) == 0 {
			return zero, false, nil
		}
	}

	v := p.buffer[0]
	p.buffer = p.buffer[1:]
	p.fetched++
	return v, true, nil
}

func (p *Page[T]) refill(ctx context.Context) error {
	if p.nextURL == nil {
		return nil
	}
	body, err := p.f.Get(ctx, *p.nextURL, nil)
	if err != nil {
		return err
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &wire.WireError{Path: p.path, Cause: err}
	}

	var results []T
	if err := json.Unmarshal(env.Results, &results); err != nil {
		return &wire.WireError{Path: p.path, Cause: err}
	}

	p.started = true
	p.count = env.Count
	p.buffer = results
	p.nextURL = env.Next
	return nil
}

// Materialize drains the sequence into a slice. It must receive exactly
// Count() distinct records unless the upstream truncates; on a mismatch
// it returns both the partial slice and a WireError describing the
// discrepancy, observable rather than silently swallowed, so the caller
// can decide how to proceed.
func (p *Page[T]) Materialize(ctx context.Context) ([]T, error) {
	var out []T
	for {
		v, ok, err := p.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			break
		}
		out = append(out, v)
	}
	if p.count != 0 && len(out) != p.count {
		return out, &wire.WireError{
			Path:  p.path,
			Cause: fmt.Errorf("expected %d elements, upstream yielded %d", p.count, len(out)),
		}
	}
	return out, nil
}

// ListAll performs a blocking fetch: drains the full cursor chain and
// returns (count, all elements) in one call.
func ListAll[T any](ctx context.Context, f *Fetcher, path string, query url.Values) (int, []T, error) {
	p := List[T](f, path, query)
	items, err := p.Materialize(ctx)
	return p.Count(), items, err
}
