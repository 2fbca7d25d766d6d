package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stylehub/storefront/storefront/internal/cart"
	"github.com/stylehub/storefront/storefront/internal/checkout"
	"github.com/stylehub/storefront/storefront/internal/comments"
	"github.com/stylehub/storefront/storefront/internal/domain"
	"github.com/stylehub/storefront/storefront/internal/remote"
	"github.com/stylehub/storefront/storefront/internal/session"
	"github.com/stylehub/storefront/storefront/internal/wishlist"
)

// wishlistServer keeps entries per X-Session-ID.
func wishlistServer(t *testing.T) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	items := map[string][]domain.WishlistEntry{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /wishlist", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		list := items[r.Header.Get("X-Session-ID")]
		if list == nil {
			list = []domain.WishlistEntry{}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"items": list})
	})
	mux.HandleFunc("POST /wishlist", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ProductID string  `json:"productId"`
			Name      string  `json:"name"`
			Price     float64 `json:"price"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		mu.Lock()
		defer mu.Unlock()
		owner := r.Header.Get("X-Session-ID")
		for _, e := range items[owner] {
			if e.ProductID == body.ProductID {
				w.WriteHeader(http.StatusConflict)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{"error": "exists", "alreadyExists": true})
				return
			}
		}
		e := domain.WishlistEntry{ID: "w-" + body.ProductID, ProductID: body.ProductID, Name: body.Name, Price: body.Price, AddedAt: time.Now()}
		items[owner] = append([]domain.WishlistEntry{e}, items[owner]...)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(e)
	})
	mux.HandleFunc("DELETE /wishlist/{productId}", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		owner := r.Header.Get("X-Session-ID")
		list := items[owner]
		for i, e := range list {
			if e.ProductID == r.PathValue("productId") {
				items[owner] = append(list[:i], list[i+1:]...)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "removed"})
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type stubOrders struct {
	sessionID string
}

func (s *stubOrders) Orders(_ context.Context, sessionID string) ([]domain.Order, error) {
	s.sessionID = sessionID
	return []domain.Order{{OrderID: "ORD-1", Status: domain.OrderProcessing, PaymentMethod: domain.PaymentCard, Total: 35}}, nil
}

func (s *stubOrders) UpdateOrderStatus(_ context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	return &domain.Order{OrderID: orderID, Status: status}, nil
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	storage := session.NewMemoryStorage()
	sessions := session.NewManager(storage, nil)

	wl := remote.NewWishlistClient(wishlistServer(t).URL, remote.WithSession(sessions.GetOrCreateSessionID))

	commentsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"comments":[{"id":"c1","author":"Ann","comment":"nice","rating":5},{"id":"c2","author":"Bob","comment":"ok","rating":4}]}`))
	}))
	t.Cleanup(commentsSrv.Close)

	return &App{
		Storage:  storage,
		Sessions: sessions,
		Wishlist: wishlist.NewModel(wl, nil),
		Comments: comments.NewService(remote.NewCommentsClient(commentsSrv.URL), nil),
		Checkout: checkout.NewFlow(remote.NewCheckoutClient("http://127.0.0.1:0"), sessions, nil),
		Orders:   &stubOrders{},
		Timeout:  5 * time.Second,
	}
}

func run(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd(app)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSessionCommands(t *testing.T) {
	app := newTestApp(t)

	first, err := run(t, app, "session", "show")
	require.NoError(t, err)
	again, err := run(t, app, "session", "show")
	require.NoError(t, err)
	assert.Equal(t, first, again)

	reset, err := run(t, app, "session", "reset")
	require.NoError(t, err)
	assert.NotEqual(t, first, reset)

	out, err := run(t, app, "session", "history", "--append", "hello there")
	require.NoError(t, err)
	assert.Contains(t, out, "user: hello there")

	_, err = run(t, app, "session", "history", "--clear")
	require.NoError(t, err)
	out, err = run(t, app, "session", "history")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCartCommandsPersist(t *testing.T) {
	app := newTestApp(t)

	_, err := run(t, app, "cart", "add", "--id", "p1", "--name", "Shirt", "--price", "10", "--sizes", "S,M", "--size", "M")
	require.NoError(t, err)
	_, err = run(t, app, "cart", "add", "--id", "p1", "--name", "Shirt", "--price", "10", "--sizes", "S,M", "--size", "M")
	require.NoError(t, err)
	_, err = run(t, app, "cart", "add", "--id", "p2", "--name", "Hat", "--price", "5")
	require.NoError(t, err)

	out, err := run(t, app, "cart", "qty", "--id", "p2", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "items: 5  total: 35.00")

	_, err = run(t, app, "cart", "qty", "--id", "p2", "--", "-1")
	assert.ErrorIs(t, err, cart.ErrInvalidQuantity)

	_, err = run(t, app, "cart", "add", "--id", "p1", "--sizes", "S,M", "--size", "XL")
	assert.ErrorIs(t, err, cart.ErrInvalidOption)

	out, err = run(t, app, "cart", "remove", "--id", "p1", "--size", "M")
	require.NoError(t, err)
	assert.Contains(t, out, "items: 3  total: 15.00")

	out, err = run(t, app, "cart", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "items: 0")
}

func TestWishlistCommands(t *testing.T) {
	app := newTestApp(t)

	out, err := run(t, app, "wishlist", "add", "--id", "p1", "--name", "Shirt", "--price", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "p1: created")

	out, err = run(t, app, "wishlist", "add", "--id", "p1", "--name", "Shirt", "--price", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "p1: already_exists")
	assert.Contains(t, out, "1 item(s)")

	out, err = run(t, app, "wishlist", "toggle", "--id", "p1")
	require.NoError(t, err)
	assert.Contains(t, out, "p1: removed")
	assert.Contains(t, out, "0 item(s)")
}

func TestCommentsStatsCommand(t *testing.T) {
	app := newTestApp(t)

	out, err := run(t, app, "comments", "stats", "p1")
	require.NoError(t, err)
	assert.Contains(t, out, "comments: 2  ratings: 2  average: 4.5")

	out, err = run(t, app, "comments", "list", "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "\n"))

	_, err = run(t, app, "comments", "add", "p1", "--text", "no author")
	assert.ErrorIs(t, err, comments.ErrInvalidComment)
}

func TestCheckoutBeginEmptyCart(t *testing.T) {
	app := newTestApp(t)
	_, err := run(t, app, "checkout", "begin")
	assert.ErrorIs(t, err, checkout.ErrEmptyCart)
}

func TestOrdersCommands(t *testing.T) {
	app := newTestApp(t)

	out, err := run(t, app, "orders", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ORD-1")

	id, err := app.Sessions.GetOrCreateSessionID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id, app.Orders.(*stubOrders).sessionID)

	out, err = run(t, app, "orders", "status", "ORD-1", "Shipped")
	require.NoError(t, err)
	assert.Contains(t, out, "ORD-1 is now Shipped")
}
