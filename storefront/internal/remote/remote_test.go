package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stylehub/storefront/storefront/internal/domain"
)

func fixedSession(id string) SessionFunc {
	return func(context.Context) (string, error) { return id, nil }
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestWishlistClient_AddOutcomes(t *testing.T) {
	status := http.StatusCreated
	var gotSession string
	var gotBody addWishlistRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = r.Header.Get(sessionHeader)
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		switch status {
		case http.StatusCreated:
			writeJSON(w, status, domain.WishlistEntry{ID: "w-1", ProductID: gotBody.ProductID, Name: gotBody.Name})
		case http.StatusConflict:
			writeJSON(w, status, map[string]interface{}{"error": "already in wishlist", "alreadyExists": true})
		default:
			writeJSON(w, status, map[string]string{"error": "boom"})
		}
	}))
	defer srv.Close()

	c := NewWishlistClient(srv.URL, WithSession(fixedSession("sess-1")))
	product := domain.Product{ID: "p1", Name: "Tee", Price: 20, Image: "tee.png", Category: "tops"}

	res, err := c.Add(context.Background(), product)
	require.NoError(t, err)
	assert.Equal(t, Created, res.Outcome)
	require.NotNil(t, res.Entry)
	assert.Equal(t, "w-1", res.Entry.ID)
	assert.Equal(t, "sess-1", gotSession)
	assert.Equal(t, "p1", gotBody.ProductID)
	assert.Equal(t, "tops", gotBody.Category)

	status = http.StatusConflict
	res, err = c.Add(context.Background(), product)
	require.NoError(t, err)
	assert.Equal(t, AlreadyExists, res.Outcome)
	assert.Nil(t, res.Entry)

	status = http.StatusBadRequest
	_, err = c.Add(context.Background(), product)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadRequest))
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "boom", se.Message)
}

func TestWishlistClient_ListRemoveClear(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch {
		case r.Method == http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]interface{}{"items": []domain.WishlistEntry{{ID: "1", ProductID: "p1"}}})
		case r.URL.Path == "/wishlist/missing":
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		default:
			writeJSON(w, http.StatusOK, map[string]interface{}{"removed": 1})
		}
	}))
	defer srv.Close()

	c := NewWishlistClient(srv.URL + "/")
	ctx := context.Background()

	items, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ProductID)

	require.NoError(t, c.Remove(ctx, "p1"))
	assert.True(t, IsStatus(c.Remove(ctx, "missing"), http.StatusNotFound))
	require.NoError(t, c.Clear(ctx))

	assert.Equal(t, []string{
		"GET /wishlist",
		"DELETE /wishlist/p1",
		"DELETE /wishlist/missing",
		"DELETE /wishlist",
	}, calls)
}

func TestCommentsClient_ListTolerant(t *testing.T) {
	body := `{"comments":[{"id":"c1","productId":"p1","author":"Ann","comment":"nice","rating":4},"garbage"]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "p1", r.URL.Query().Get("productId"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewCommentsClient(srv.URL)
	comments, err := c.List(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, 4, comments[0].Rating)

	body = `{"comments":{"not":"an array"}}`
	comments, err = c.List(context.Background(), "p1")
	require.NoError(t, err)
	assert.NotNil(t, comments)
	assert.Empty(t, comments)
}

func TestCommentsClient_Add(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in CommentInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		writeJSON(w, http.StatusCreated, domain.Comment{ID: "c9", ProductID: in.ProductID, Author: in.Author, Comment: in.Comment, Rating: in.Rating})
	}))
	defer srv.Close()

	c := NewCommentsClient(srv.URL)
	got, err := c.Add(context.Background(), CommentInput{ProductID: "p1", Author: "Ann", Comment: "ok", Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, "c9", got.ID)
	assert.Equal(t, 5, got.Rating)
}

func TestCheckoutClient_ReceiveNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"message": "No checkout data found for this session",
		})
	}))
	defer srv.Close()

	c := NewCheckoutClient(srv.URL)
	_, err := c.Receive(context.Background(), "sess-1")
	require.Error(t, err)

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "No checkout data found for this session", nf.Reason)
}

func TestCheckoutClient_TransportErrorIsNotNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewCheckoutClient(url)
	_, err := c.Receive(context.Background(), "sess-1")
	require.Error(t, err)

	var nf *NotFoundError
	assert.False(t, errors.As(err, &nf))
}

func TestCheckoutClient_ConfirmFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]interface{}{"error": "receipt handle is stale", "code": "stale_receipt"})
	}))
	defer srv.Close()

	c := NewCheckoutClient(srv.URL)
	_, err := c.Confirm(context.Background(), ConfirmRequest{ReceiptHandle: "old", PaymentMethod: domain.PaymentCard})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusConflict))
}

func TestClient_OpenCircuitIsUnavailable(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream down"})
	}))
	defer srv.Close()

	c := NewWishlistClient(srv.URL, WithSession(fixedSession("sess-1")))

	for i := 0; i < 5; i++ {
		_, err := c.List(context.Background())
		assert.True(t, IsStatus(err, http.StatusBadGateway))
	}

	_, err := c.List(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 5, calls)
}

func TestClient_SessionReceivesRequestContext(t *testing.T) {
	type ctxKey struct{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"items": []domain.WishlistEntry{}})
	}))
	defer srv.Close()

	var got interface{}
	session := func(ctx context.Context) (string, error) {
		got = ctx.Value(ctxKey{})
		return "sess-1", nil
	}
	c := NewWishlistClient(srv.URL, WithSession(session))

	ctx := context.WithValue(context.Background(), ctxKey{}, "caller")
	_, err := c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "caller", got)
}
