package v1

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/core"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/errors"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/types"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/vector"
)

// ProfileLogic owns the cached user profile: reads go through the
// cache, writes to the platform invalidate it.
type ProfileLogic struct {
	ctx  context.Context
	core *core.Core
	rc   RequestContext
}

func NewProfileLogic(ctx context.Context, core *core.Core, rc RequestContext) *ProfileLogic {
	return &ProfileLogic{ctx: ctx, core: core, rc: rc}
}

// GetOrFetch returns the cached profile, fetching from the platform on
// a miss or when the cached copy has aged out. When a session is
// supplied, its knowledge index is built from the records if it is
// still missing, cache hit or not. Anonymous callers get a fixed guest
// snapshot; there is nothing to fetch for them.
func (l *ProfileLogic) GetOrFetch(session *types.Session) (*types.CacheEntry, error) {
	if l.rc.Anonymous {
		return &types.CacheEntry{
			UserID:    l.rc.UserID,
			Profile:   map[string]any{"firstName": "Guest"},
			FetchedAt: time.Now().Unix(),
		}, nil
	}

	cacheKey := l.rc.CacheKey()
	entry, err := l.core.Store().ProfileCacheStore().Get(l.ctx, cacheKey)
	if err != nil {
		return nil, errors.Trace("ProfileLogic.GetOrFetch", err)
	}
	if entry != nil && !entry.Expired(types.PROFILE_CACHE_TTL) {
		l.core.Metrics().CacheLookups.WithLabelValues("hit").Inc()
	} else {
		l.core.Metrics().CacheLookups.WithLabelValues("miss").Inc()

		entry, err = l.core.Srv().Igot().FetchUserDetails(l.ctx, l.rc.UserID)
		if err != nil {
			l.core.Metrics().UpstreamErrors.WithLabelValues("igot").Inc()
			return nil, errors.Trace("ProfileLogic.GetOrFetch", err)
		}
		entry.CredentialHash = l.rc.CredentialHash

		if err := l.core.Store().ProfileCacheStore().Set(l.ctx, cacheKey, entry); err != nil {
			return nil, errors.Trace("ProfileLogic.GetOrFetch", err)
		}
	}

	if session != nil && len(session.VectorIndex) == 0 {
		if err := l.BuildVectorIndex(session, entry); err != nil {
			return nil, errors.Trace("ProfileLogic.GetOrFetch", err)
		}
	}
	return entry, nil
}

// Summary returns the light projection, preferring the dedicated
// summary key so routine turns never deserialize the full entry.
func (l *ProfileLogic) Summary() (*types.CacheSummary, error) {
	summary, err := l.core.Store().ProfileCacheStore().GetSummary(l.ctx, l.rc.CacheKey())
	if err != nil {
		return nil, errors.Trace("ProfileLogic.Summary", err)
	}
	if summary != nil {
		return summary, nil
	}

	entry, err := l.GetOrFetch(nil)
	if err != nil {
		return nil, errors.Trace("ProfileLogic.Summary", err)
	}
	s := entry.Summary()
	return &s, nil
}

// Invalidate drops both cache projections. The next read fetches fresh
// data from the platform.
func (l *ProfileLogic) Invalidate() error {
	if err := l.core.Store().ProfileCacheStore().Delete(l.ctx, l.rc.CacheKey()); err != nil {
		return errors.Trace("ProfileLogic.Invalidate", err)
	}
	return nil
}

// Refresh invalidates and immediately re-fetches, used after a profile
// mutation has been applied upstream.
func (l *ProfileLogic) Refresh() (*types.CacheEntry, error) {
	if err := l.Invalidate(); err != nil {
		return nil, errors.Trace("ProfileLogic.Refresh", err)
	}
	entry, err := l.GetOrFetch(nil)
	if err != nil {
		return nil, errors.Trace("ProfileLogic.Refresh", err)
	}
	return entry, nil
}

// BuildVectorIndex embeds the user's enrollment knowledge into the
// session so later turns can search it. Failures degrade to fuzzy-only
// search rather than failing the turn.
func (l *ProfileLogic) BuildVectorIndex(session *types.Session, entry *types.CacheEntry) error {
	texts := make([]string, 0, len(entry.Courses)+len(entry.Events))
	sources := make([]string, 0, len(entry.Courses)+len(entry.Events))
	for _, list := range [][]types.EnrollmentRecord{entry.Courses, entry.Events} {
		for _, rec := range list {
			texts = append(texts, enrollmentText(rec))
			sources = append(sources, rec.ContentID)
		}
	}
	if len(texts) == 0 {
		return nil
	}

	vectors, err := l.core.Srv().AI().Embed(l.ctx, texts)
	if err != nil {
		slog.Warn("embedding enrollment knowledge failed, fuzzy search only",
			slog.String("session_id", session.ID),
			slog.Any("error", err),
		)
		vectors = make([][]float64, len(texts))
	}

	entries := make([]types.VectorEntry, len(texts))
	for i := range texts {
		entries[i] = types.VectorEntry{
			ID:     fmt.Sprintf("%s-%d", session.ID, i),
			Text:   texts[i],
			Source: sources[i],
			Vector: vectors[i],
		}
	}

	if err := l.core.Store().SessionStore().SetVectorIndex(l.ctx, session.AppName, session.ID, entries); err != nil {
		return errors.Trace("ProfileLogic.BuildVectorIndex", err)
	}
	session.VectorIndex = entries
	return nil
}

// Search ranks the session's knowledge against the query, cosine first
// and fuzzy as the fallback. A session with no index still gets fuzzy
// matches over the cached record names; the caller never sees an empty
// result while the fallback has something to offer.
func (l *ProfileLogic) Search(session *types.Session, query string, topK int) []vector.Match {
	idx := vector.New(session.VectorIndex)
	if idx.Len() == 0 {
		entry, err := l.GetOrFetch(nil)
		if err != nil || entry == nil {
			return nil
		}
		return vector.New(nameEntries(entry)).FuzzySearch(query, topK)
	}

	queryVecs, err := l.core.Srv().AI().Embed(l.ctx, []string{query})
	if err == nil && len(queryVecs) == 1 {
		if matches := idx.Search(queryVecs[0], topK); len(matches) > 0 {
			return matches
		}
	}
	return idx.FuzzySearch(query, topK)
}

// nameEntries wraps the enrollment record names as unembedded index
// entries, enough for the fuzzy fallback to rank.
func nameEntries(entry *types.CacheEntry) []types.VectorEntry {
	out := make([]types.VectorEntry, 0, len(entry.Courses)+len(entry.Events))
	for _, list := range [][]types.EnrollmentRecord{entry.Courses, entry.Events} {
		for _, rec := range list {
			out = append(out, types.VectorEntry{
				ID:     rec.ContentID,
				Text:   rec.ContentName,
				Source: rec.ContentID,
			})
		}
	}
	return out
}

func enrollmentText(rec types.EnrollmentRecord) string {
	status := rec.Status
	if rec.CertificateIssued {
		status += ", certificate issued"
	}
	return fmt.Sprintf("%s (%s): %s, %.0f%% complete", rec.ContentName, rec.ContentType, status, rec.CompletionPercent)
}
