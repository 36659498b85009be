package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/mobileshop/internal/apiclient"
	"github.com/Skotchmaster/mobileshop/internal/models"
)

type fakeWidget struct {
	mu        sync.Mutex
	opens     int
	active    int
	maxActive int
	lastCfg   Config
	success   func()
	failure   func(Failure)
}

func (w *fakeWidget) Open(cfg Config, onSuccess func(), onFailure func(Failure)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.opens++
	w.active++
	if w.active > w.maxActive {
		w.maxActive = w.active
	}
	w.lastCfg = cfg
	w.success = func() { w.close(); onSuccess() }
	w.failure = func(f Failure) { w.close(); onFailure(f) }
	return nil
}

func (w *fakeWidget) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active--
}

type countingLoader struct {
	calls int
	errs  []error
}

func (l *countingLoader) Load(context.Context) error {
	l.calls++
	if len(l.errs) > 0 {
		err := l.errs[0]
		l.errs = l.errs[1:]
		return err
	}
	return nil
}

func testIntent() models.PaymentIntent {
	return models.PaymentIntent{
		OrderID:        "9b2c51d0-aaaa-bbbb-cccc-1234567890ab",
		PaymentID:      "p1",
		GatewayOrderID: "order_ABC",
		Amount:         14490000,
		Currency:       "INR",
		GatewayKeyID:   "rzp_test_key",
	}
}

func TestHandshake_OpenBuildsConfig(t *testing.T) {
	w := &fakeWidget{}
	h := NewHandshake(testIntent(), "MobileShop", &countingLoader{}, w)

	st, err := h.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Open, st.Phase)
	assert.Equal(t, Config{
		Key:         "rzp_test_key",
		Amount:      14490000,
		Currency:    "INR",
		OrderID:     "order_ABC",
		Name:        "MobileShop",
		Description: "Order #9b2c51d0",
		Theme:       Theme{Color: "#2563eb"},
	}, w.lastCfg)
}

func TestHandshake_SuccessRedirectsToOrder(t *testing.T) {
	w := &fakeWidget{}
	h := NewHandshake(testIntent(), "MobileShop", &countingLoader{}, w)
	_, err := h.Open(context.Background())
	require.NoError(t, err)

	w.success()

	st := h.Status()
	assert.Equal(t, Succeeded, st.Phase)
	assert.Equal(t, "/order/9b2c51d0-aaaa-bbbb-cccc-1234567890ab", st.Redirect)

	_, err = h.Retry(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestHandshake_DismissThenRetryOpensExactlyOne(t *testing.T) {
	w := &fakeWidget{}
	loader := &countingLoader{}
	h := NewHandshake(testIntent(), "MobileShop", loader, w)
	ctx := context.Background()

	_, err := h.Open(ctx)
	require.NoError(t, err)

	_, err = h.Open(ctx)
	assert.ErrorIs(t, err, ErrWidgetOpen)
	assert.Equal(t, 1, w.opens)

	w.failure(Failure{Dismissed: true})
	st := h.Status()
	assert.Equal(t, Cancelled, st.Phase)
	assert.Equal(t, MsgCancelled, st.Message)
	assert.ErrorIs(t, st.Err, ErrPaymentCancelled)

	_, err = h.Open(ctx)
	assert.ErrorIs(t, err, ErrRetryRequired, "only an explicit retry reopens")

	st, err = h.Retry(ctx)
	require.NoError(t, err)
	assert.Equal(t, Open, st.Phase)
	assert.Equal(t, 2, w.opens)
	assert.Equal(t, 1, w.maxActive)
	assert.Equal(t, 1, loader.calls, "script loads once per page")

	_, err = h.Retry(ctx)
	assert.ErrorIs(t, err, ErrWidgetOpen)
	assert.Equal(t, 2, w.opens)
}

func TestHandshake_ConcurrentRetriesOpenOneWidget(t *testing.T) {
	w := &fakeWidget{}
	h := NewHandshake(testIntent(), "MobileShop", &countingLoader{}, w)
	_, err := h.Open(context.Background())
	require.NoError(t, err)
	w.failure(Failure{Description: "Card declined"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = h.Retry(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, w.opens)
	assert.Equal(t, 1, w.maxActive)
}

func TestHandshake_GatewayFailureMessage(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{"gateway description", "Your card was declined.", "Your card was declined."},
		{"generic", "", MsgFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &fakeWidget{}
			h := NewHandshake(testIntent(), "MobileShop", &countingLoader{}, w)
			_, err := h.Open(context.Background())
			require.NoError(t, err)

			w.failure(Failure{Description: tt.description})

			st := h.Status()
			assert.Equal(t, Failed, st.Phase)
			assert.Equal(t, tt.want, st.Message)
			var fe *FailedError
			assert.ErrorAs(t, st.Err, &fe)
		})
	}
}

func TestHandshake_StaleCallbackIgnored(t *testing.T) {
	w := &fakeWidget{}
	h := NewHandshake(testIntent(), "MobileShop", &countingLoader{}, w)
	ctx := context.Background()

	_, err := h.Open(ctx)
	require.NoError(t, err)
	oldFailure := w.failure
	oldFailure(Failure{Dismissed: true})

	_, err = h.Retry(ctx)
	require.NoError(t, err)

	oldFailure(Failure{Description: "late"})
	assert.Equal(t, Open, h.Status().Phase)
}

func TestHandshake_ScriptFailureIsConnectivityError(t *testing.T) {
	w := &fakeWidget{}
	loader := &countingLoader{errs: []error{errors.New("cdn unreachable")}}
	h := NewHandshake(testIntent(), "MobileShop", loader, w)
	ctx := context.Background()

	st, err := h.Open(ctx)
	require.Error(t, err)
	assert.Equal(t, Failed, st.Phase)
	assert.Equal(t, MsgScriptFailed, st.Message)
	assert.ErrorIs(t, st.Err, apiclient.ErrNetworkUnavailable)
	assert.Equal(t, 0, w.opens)

	st, err = h.Retry(ctx)
	require.NoError(t, err)
	assert.Equal(t, Open, st.Phase)
	assert.Equal(t, 2, loader.calls)
	assert.Equal(t, 1, w.opens)
}

func TestRelay_DeliversByGeneration(t *testing.T) {
	loader := &RelayLoader{}
	widget := &RelayWidget{}
	h := NewHandshake(testIntent(), "MobileShop", loader, widget)
	ctx := context.Background()

	_, err := h.Open(ctx)
	assert.ErrorIs(t, err, apiclient.ErrNetworkUnavailable, "open before the browser reports the script")

	loader.Report(nil)
	_, err = h.Retry(ctx)
	require.NoError(t, err)
	cfg, gen, open := widget.Current()
	require.True(t, open)
	assert.Equal(t, "order_ABC", cfg.OrderID)

	assert.ErrorIs(t, widget.Deliver(gen+1, OutcomeSuccess, ""), ErrStaleOutcome)
	require.NoError(t, widget.Deliver(gen, OutcomeDismissed, ""))
	assert.Equal(t, Cancelled, h.Status().Phase)
	assert.ErrorIs(t, widget.Deliver(gen, OutcomeSuccess, ""), ErrStaleOutcome)

	_, err = h.Retry(ctx)
	require.NoError(t, err)
	_, gen2, _ := widget.Current()
	require.NoError(t, widget.Deliver(gen2, OutcomeSuccess, ""))
	assert.Equal(t, Succeeded, h.Status().Phase)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	p := reg.Start(testIntent(), "MobileShop")
	got, ok := reg.Get(p.ID, testIntent().OrderID)
	require.True(t, ok)
	assert.Same(t, p, got)

	_, ok = reg.Get(p.ID, "other-order")
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = reg.Get(p.ID, testIntent().OrderID)
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_ReloadsKeepNewestPagesPerOrder(t *testing.T) {
	reg := NewRegistry(time.Minute)
	order := testIntent().OrderID

	var ids []string
	for i := 0; i < MaxPagesPerOrder+5; i++ {
		ids = append(ids, reg.Start(testIntent(), "MobileShop").ID)
	}
	other := testIntent()
	other.OrderID = "other-order"
	otherPage := reg.Start(other, "MobileShop")

	assert.Equal(t, MaxPagesPerOrder+1, reg.Len())
	_, ok := reg.Get(ids[0], order)
	assert.False(t, ok)
	for _, id := range ids[len(ids)-MaxPagesPerOrder:] {
		_, ok := reg.Get(id, order)
		assert.True(t, ok)
	}
	_, ok = reg.Get(otherPage.ID, "other-order")
	assert.True(t, ok)
}

func newService(t *testing.T, h http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewService(apiclient.New(srv.URL))
}

func TestPrepare_GatewayNotConfiguredSkipsPayment(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	plan := svc.Prepare(context.Background(), "o1")
	assert.Nil(t, plan.Intent)
	assert.Equal(t, "/order/o1", plan.Redirect)
	assert.ErrorIs(t, plan.Reason, ErrGatewayUnavailable)
}

func TestPrepare_OtherFailuresAlsoSkip(t *testing.T) {
	tests := []struct {
		name string
		h    http.HandlerFunc
		want error
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }, nil},
		{"unusable intent", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"order_id":"o1"}`)) }, ErrUnusableIntent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := newService(t, tt.h).Prepare(context.Background(), "o1")
			assert.Nil(t, plan.Intent)
			assert.Equal(t, "/order/o1", plan.Redirect)
			if tt.want != nil {
				assert.ErrorIs(t, plan.Reason, tt.want)
			}
			assert.NotErrorIs(t, plan.Reason, ErrGatewayUnavailable)
		})
	}
}

func TestCreateIntent_PostsOrderID(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/orders/razorpay/create/", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "o1", body["order_id"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"order_id": "o1", "payment_id": "p1", "razorpay_order_id": "order_X",
			"amount": 14490000, "currency": "INR", "razorpay_key_id": "rzp_test",
		})
	})

	intent, err := svc.CreateIntent(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, int64(14490000), intent.Amount)
	assert.Equal(t, "order_X", intent.GatewayOrderID)
}
