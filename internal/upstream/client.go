// Package upstream implements the endpoint-level facade over the
// paginated fetcher and the expansion cache. It mirrors the
// upstream surface one method per resource.
package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/PioneersHub/pytanis-go/internal/cache"
	"github.com/PioneersHub/pytanis-go/internal/fetcher"
	"github.com/PioneersHub/pytanis-go/internal/wire"
	"github.com/PioneersHub/pytanis-go/pkg/logger"
)

// Client wraps a Fetcher and a Cache to expose one list/detail method pair
// per upstream resource.
type Client struct {
	f     *fetcher.Fetcher
	cache *cache.Cache
	log   logger.Logger

	talksAliased bool // set once the talks->submissions fallback has fired
}

// New constructs a Client. A nil cache disables transparent expansion;
// callers then observe id-only references exactly as the wire sends them.
func New(f *fetcher.Fetcher, c *cache.Cache, log logger.Logger) *Client {
	if log == nil {
		log = logger.NoOpLogger{}
	}
	if cal, ok := log.(logger.ComponentAwareLogger); ok {
		log = cal.WithComponent("upstream")
	}
	return &Client{f: f, cache: c, log: log}
}

// Aliased reports whether the talks endpoint has fallen back to
// submissions during this Client's lifetime.
func (c *Client) Aliased() bool { return c.talksAliased }

func list[T any](ctx context.Context, c *Client, path string, params url.Values) (int, []T, error) {
	return fetcher.ListAll[T](ctx, c.f, path, params)
}

func detail[T any](ctx context.Context, c *Client, path string) (T, error) {
	var v T
	err := c.f.GetJSON(ctx, path, nil, &v)
	return v, err
}

// Events lists conference editions.
func (c *Client) Events(ctx context.Context, params url.Values) (int, []wire.Event, error) {
	return list[wire.Event](ctx, c, "/events/", params)
}

// Submissions lists proposals, with transparent track/submission-type
// expansion applied to each element.
func (c *Client) Submissions(ctx context.Context, event string, params url.Values) (int, []wire.Proposal, error) {
	count, items, err := list[wire.Proposal](ctx, c, fmt.Sprintf("/events/%s/submissions/", event), params)
	if err != nil {
		return count, items, err
	}
	if err := c.expandAll(ctx, event, count, items); err != nil {
		return count, items, err
	}
	return count, items, nil
}

// SubmissionDetail fetches one proposal by code.
func (c *Client) SubmissionDetail(ctx context.Context, event, code string) (wire.Proposal, error) {
	p, err := detail[wire.Proposal](ctx, c, fmt.Sprintf("/events/%s/submissions/%s/", event, code))
	if err != nil {
		return p, err
	}
	err = c.expandProposal(ctx, event, &p)
	return p, err
}

// Talks lists accepted/confirmed proposals. The talks endpoint is
// historically an alias for submissions filtered by state; on a 404 the
// client falls back to submissions with an equivalent filter, per
// the talks endpoint's known 404-on-some-instances behavior.
func (c *Client) Talks(ctx context.Context, event string, params url.Values) (int, []wire.Proposal, error) {
	count, items, err := list[wire.Proposal](ctx, c, fmt.Sprintf("/events/%s/talks/", event), params)
	if err == nil {
		if err := c.expandAll(ctx, event, count, items); err != nil {
			return count, items, err
		}
		return count, items, nil
	}
	if !wire.IsNotFound(err) {
		return count, items, err
	}

	c.talksAliased = true
	c.log.Warn("talks endpoint absent, falling back to submissions", "event", event)
	fallback := url.Values{}
	for k, v := range params {
		fallback[k] = v
	}
	fallback.Add("state", string(wire.StateAccepted))
	fallback.Add("state", string(wire.StateConfirmed))
	return c.Submissions(ctx, event, fallback)
}

// Speakers lists speakers.
func (c *Client) Speakers(ctx context.Context, event string, params url.Values) (int, []wire.Speaker, error) {
	items, count, err := c.speakersRaw(ctx, event, params)
	return count, items, err
}

func (c *Client) speakersRaw(ctx context.Context, event string, params url.Values) ([]wire.Speaker, int, error) {
	count, items, err := list[wire.Speaker](ctx, c, fmt.Sprintf("/events/%s/speakers/", event), params)
	if err == nil && c.cache != nil {
		for _, s := range items {
			c.cache.Put(cache.KindSpeaker, s.Code, s)
		}
	}
	return items, count, err
}

// SpeakerDetail fetches one speaker by code.
func (c *Client) SpeakerDetail(ctx context.Context, event, code string) (wire.Speaker, error) {
	return detail[wire.Speaker](ctx, c, fmt.Sprintf("/events/%s/speakers/%s/", event, code))
}

// Reviews lists reviews.
func (c *Client) Reviews(ctx context.Context, event string, params url.Values) (int, []wire.Review, error) {
	return list[wire.Review](ctx, c, fmt.Sprintf("/events/%s/reviews/", event), params)
}

// Rooms lists rooms.
func (c *Client) Rooms(ctx context.Context, event string, params url.Values) (int, []wire.Room, error) {
	return list[wire.Room](ctx, c, fmt.Sprintf("/events/%s/rooms/", event), params)
}

// Questions lists questions.
func (c *Client) Questions(ctx context.Context, event string, params url.Values) (int, []wire.Question, error) {
	return list[wire.Question](ctx, c, fmt.Sprintf("/events/%s/questions/", event), params)
}

// Answers lists answers.
func (c *Client) Answers(ctx context.Context, event string, params url.Values) (int, []wire.Answer, error) {
	return list[wire.Answer](ctx, c, fmt.Sprintf("/events/%s/answers/", event), params)
}

// Tags lists tags.
func (c *Client) Tags(ctx context.Context, event string, params url.Values) (int, []wire.Tag, error) {
	return list[wire.Tag](ctx, c, fmt.Sprintf("/events/%s/tags/", event), params)
}

// SubmissionTypes lists submission types.
func (c *Client) SubmissionTypes(ctx context.Context, event string, params url.Values) (int, []wire.SubmissionType, error) {
	count, items, err := list[wire.SubmissionType](ctx, c, fmt.Sprintf("/events/%s/submission-types/", event), params)
	if err == nil && c.cache != nil {
		values := make(map[string]interface{}, len(items))
		for _, st := range items {
			values[strconv.Itoa(st.ID)] = st
		}
		c.cache.BulkPut(cache.KindSubmissionType, values)
	}
	return count, items, err
}

// Tracks lists tracks.
func (c *Client) Tracks(ctx context.Context, event string, params url.Values) (int, []wire.Track, error) {
	count, items, err := list[wire.Track](ctx, c, fmt.Sprintf("/events/%s/tracks/", event), params)
	if err == nil && c.cache != nil {
		values := make(map[string]interface{}, len(items))
		for _, tr := range items {
			values[strconv.Itoa(tr.ID)] = tr
		}
		c.cache.BulkPut(cache.KindTrack, values)
	}
	return count, items, err
}

// expandAll applies expandProposal to every item, first bulk-listing tracks
// and submission types when the cache judges the batch large enough that
// paying for two list requests up front beats one detail GET per distinct
// id encountered during the per-element loop below.
func (c *Client) expandAll(ctx context.Context, event string, count int, items []wire.Proposal) error {
	if len(items) > 0 {
		if err := c.prepopulateIfNeeded(ctx, event, count); err != nil {
			return err
		}
	}
	for i := range items {
		if err := c.expandProposal(ctx, event, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

// prepopulateIfNeeded bulk-lists tracks and submission types for event when
// the cache's pre-population heuristic says the batch is worth it.
func (c *Client) prepopulateIfNeeded(ctx context.Context, event string, count int) error {
	if c.cache == nil || !c.cache.ShouldPrepopulate(count) {
		return nil
	}
	if _, _, err := c.Tracks(ctx, event, nil); err != nil {
		return fmt.Errorf("upstream: pre-populating tracks: %w", err)
	}
	if _, _, err := c.SubmissionTypes(ctx, event, nil); err != nil {
		return fmt.Errorf("upstream: pre-populating submission types: %w", err)
	}
	return nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (wire.User, error) {
	return detail[wire.User](ctx, c, "/me/")
}

// expandProposal reconstructs the nested view of a proposal's track,
// submission type, and speakers by consulting the cache, falling back to
// one detail fetch per miss. This is transparent to callers: the returned
// proposal always carries the nested form when expansion succeeds.
func (c *Client) expandProposal(ctx context.Context, event string, p *wire.Proposal) error {
	if c.cache == nil {
		return nil
	}

	if p.Track != nil {
		expanded, err := c.expandTrack(ctx, event, *p.Track)
		if err != nil {
			return err
		}
		p.Track = &expanded
	}

	expandedType, err := c.expandSubmissionType(ctx, event, p.SubmissionType)
	if err != nil {
		return err
	}
	p.SubmissionType = expandedType

	for i, sp := range p.Speakers {
		expandedSpeaker, err := c.expandSpeaker(ctx, event, sp)
		if err != nil {
			return err
		}
		p.Speakers[i] = expandedSpeaker
	}
	return nil
}

func (c *Client) expandTrack(ctx context.Context, event string, ref wire.Ref[wire.Track]) (wire.Ref[wire.Track], error) {
	if _, ok := ref.Full(); ok {
		return ref, nil
	}
	key := strconv.Itoa(ref.ID())
	if cached, ok := c.cache.Get(cache.KindTrack, key); ok {
		return ref.WithFull(cached.(wire.Track)), nil
	}
	track, err := detail[wire.Track](ctx, c, fmt.Sprintf("/events/%s/tracks/%d/", event, ref.ID()))
	if err != nil {
		return ref, err
	}
	c.cache.Put(cache.KindTrack, key, track)
	return ref.WithFull(track), nil
}

func (c *Client) expandSubmissionType(ctx context.Context, event string, ref wire.Ref[wire.SubmissionType]) (wire.Ref[wire.SubmissionType], error) {
	if _, ok := ref.Full(); ok {
		return ref, nil
	}
	key := strconv.Itoa(ref.ID())
	if cached, ok := c.cache.Get(cache.KindSubmissionType, key); ok {
		return ref.WithFull(cached.(wire.SubmissionType)), nil
	}
	st, err := detail[wire.SubmissionType](ctx, c, fmt.Sprintf("/events/%s/submission-types/%d/", event, ref.ID()))
	if err != nil {
		return ref, err
	}
	c.cache.Put(cache.KindSubmissionType, key, st)
	return ref.WithFull(st), nil
}

func (c *Client) expandSpeaker(ctx context.Context, event string, ref wire.CodeRef[wire.Speaker]) (wire.CodeRef[wire.Speaker], error) {
	if _, ok := ref.Full(); ok {
		return ref, nil
	}
	if cached, ok := c.cache.Get(cache.KindSpeaker, ref.Code()); ok {
		return ref.WithFull(cached.(wire.Speaker)), nil
	}
	sp, err := detail[wire.Speaker](ctx, c, fmt.Sprintf("/events/%s/speakers/%s/", event, ref.Code()))
	if err != nil {
		return ref, err
	}
	c.cache.Put(cache.KindSpeaker, ref.Code(), sp)
	return ref.WithFull(sp), nil
}
