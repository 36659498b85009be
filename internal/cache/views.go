package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Skotchmaster/mobileshop/pkg/logging"
)

// Paths whose view models are cached per cart session.
const (
	ViewCart     = "/cart"
	ViewCheckout = "/checkout"
)

// ViewCache holds per-session view models for rendered pages. A failing or
// disabled cache behaves as a permanent miss.
//
// Every view key carries the session's generation. Invalidate bumps it, so a
// load that started before a mutation saves under a key no reader uses again.
type ViewCache struct {
	store Store
	ttl   time.Duration
	group singleflight.Group
}

// NewViewCache returns a disabled cache when ttl is not positive.
func NewViewCache(store Store, ttl time.Duration) *ViewCache {
	return &ViewCache{store: store, ttl: ttl}
}

func (v *ViewCache) enabled() bool { return v != nil && v.store != nil && v.ttl > 0 }

func viewKey(path, session, gen string) string { return "view:" + path + ":" + session + ":" + gen }

func genKey(session string) string { return "view-gen:" + session }

// genTTL outlives any entry saved under an older generation, so an expired
// counter restarting at zero never resurrects one.
func (v *ViewCache) genTTL() time.Duration { return 2*v.ttl + time.Hour }

// generation reports the session's current generation. ok is false when the
// store cannot be read, in which case nothing may be cached.
func (v *ViewCache) generation(ctx context.Context, session string) (string, bool) {
	data, err := v.store.Get(ctx, genKey(session))
	switch {
	case errors.Is(err, ErrCacheMiss):
		return "0", true
	case err != nil:
		logging.FromContext(ctx).Warn("view_cache_generation_failed", "error", err)
		return "", false
	}
	return string(data), true
}

func (v *ViewCache) Load(ctx context.Context, path, session string, out any) bool {
	if !v.enabled() || session == "" {
		return false
	}
	gen, ok := v.generation(ctx, session)
	if !ok {
		return false
	}
	return v.loadAt(ctx, viewKey(path, session, gen), path, out)
}

func (v *ViewCache) loadAt(ctx context.Context, key, path string, out any) bool {
	data, err := v.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			logging.FromContext(ctx).Warn("view_cache_get_failed", "path", path, "error", err)
		}
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func (v *ViewCache) Save(ctx context.Context, path, session string, val any) {
	if !v.enabled() || session == "" {
		return
	}
	if gen, ok := v.generation(ctx, session); ok {
		v.saveAt(ctx, viewKey(path, session, gen), path, val)
	}
}

func (v *ViewCache) saveAt(ctx context.Context, key, path string, val any) {
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := v.store.Set(ctx, key, data, v.ttl); err != nil {
		logging.FromContext(ctx).Warn("view_cache_set_failed", "path", path, "error", err)
	}
}

// Invalidate advances the session's generation so the next render re-fetches,
// then drops the views saved under the previous one.
func (v *ViewCache) Invalidate(ctx context.Context, session string, paths ...string) {
	if v == nil || v.store == nil || session == "" || len(paths) == 0 {
		return
	}
	n, err := v.store.Incr(ctx, genKey(session), v.genTTL())
	if err != nil {
		logging.FromContext(ctx).Warn("view_cache_invalidate_failed", "error", err)
		return
	}
	prev := strconv.FormatInt(n-1, 10)
	keys := make([]string, len(paths))
	for i, p := range paths {
		keys[i] = viewKey(p, session, prev)
	}
	if err := v.store.Delete(ctx, keys...); err != nil {
		logging.FromContext(ctx).Warn("view_cache_invalidate_failed", "error", err)
	}
}

// Fetch returns the cached view for session or builds it with load. Concurrent
// misses for the same key share one load, which runs detached from the first
// caller's cancellation. Values load marks as not cacheable are returned
// without being saved.
func Fetch[T any](ctx context.Context, v *ViewCache, path, session string, load func(context.Context) (T, bool)) T {
	if !v.enabled() || session == "" {
		val, _ := load(ctx)
		return val
	}
	gen, ok := v.generation(ctx, session)
	if !ok {
		val, _ := load(ctx)
		return val
	}
	key := viewKey(path, session, gen)
	var cached T
	if v.loadAt(ctx, key, path, &cached) {
		return cached
	}
	res, _, _ := v.group.Do(key, func() (any, error) {
		loadCtx := context.WithoutCancel(ctx)
		val, ok := load(loadCtx)
		if ok {
			v.saveAt(loadCtx, key, path, val)
		}
		return val, nil
	})
	return res.(T)
}
