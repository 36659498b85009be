package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Skotchmaster/mobileshop/internal/cache"
	"github.com/Skotchmaster/mobileshop/pkg/logging"
)

type Claim int

const (
	// ClaimAcquired means this submission owns the token.
	ClaimAcquired Claim = iota
	// ClaimInFlight means an earlier submission with the token is still running.
	ClaimInFlight
	// ClaimCompleted means an earlier submission already created an order.
	ClaimCompleted
)

const (
	guardPending     = "pending"
	guardOrderPrefix = "order:"
	DefaultGuardTTL  = 15 * time.Minute
)

// Guard makes each submission token create at most one order.
type Guard struct {
	store cache.Store
	ttl   time.Duration
}

func NewGuard(store cache.Store, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = DefaultGuardTTL
	}
	return &Guard{store: store, ttl: ttl}
}

func guardKey(token string) string { return "checkout:submission:" + token }

// Begin claims token. For ClaimCompleted the returned string is the order id
// the first submission created. A failing store lets the submission through.
func (g *Guard) Begin(ctx context.Context, token string) (Claim, string) {
	l := logging.FromContext(ctx).With("svc", "checkout_guard")
	key := guardKey(token)

	for attempt := 0; attempt < 2; attempt++ {
		ok, err := g.store.SetNX(ctx, key, []byte(guardPending), g.ttl)
		if err != nil {
			l.Warn("guard_unavailable", "error", err)
			return ClaimAcquired, ""
		}
		if ok {
			return ClaimAcquired, ""
		}

		val, err := g.store.Get(ctx, key)
		if errors.Is(err, cache.ErrCacheMiss) {
			continue
		}
		if err != nil {
			l.Warn("guard_unavailable", "error", err)
			return ClaimAcquired, ""
		}
		if id, found := strings.CutPrefix(string(val), guardOrderPrefix); found {
			return ClaimCompleted, id
		}
		return ClaimInFlight, ""
	}
	return ClaimInFlight, ""
}

func (g *Guard) Complete(ctx context.Context, token, orderID string) {
	if err := g.store.Set(ctx, guardKey(token), []byte(guardOrderPrefix+orderID), g.ttl); err != nil {
		logging.FromContext(ctx).Warn("guard_complete_failed", "svc", "checkout_guard", "error", err)
	}
}

// Release frees token after a failed submission so the shopper can resubmit.
func (g *Guard) Release(ctx context.Context, token string) {
	if err := g.store.Delete(ctx, guardKey(token)); err != nil {
		logging.FromContext(ctx).Warn("guard_release_failed", "svc", "checkout_guard", "error", err)
	}
}
