// internal/designer/session/session_test.go
package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/designer/cartclient"
	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/designer/placement"
	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/geometry"
)

var canvas = geometry.Canvas{Width: 1000, Height: 800}

func catalog() []cartclient.Product {
	return []cartclient.Product{{
		ID:    "art-1",
		Sizes: []cartclient.SizeVariant{{WidthCM: 40, HeightCM: 60, Price: 25}},
	}}
}

// cartBackend is a minimal in-memory rendition of the cart API.
type cartBackend struct {
	adds int32
	next int32
}

func (b *cartBackend) handler() http.Handler {
	mux := http.NewServeMux()
	var lines []cartclient.CartItem

	mux.HandleFunc("POST /v1/cart/items", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.adds, 1)
		var req struct {
			ProductID string                `json:"product_id"`
			SizeIndex int                   `json:"size_index"`
			Placement *cartclient.Placement `json:"placement"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		id := atomic.AddInt32(&b.next, 1)
		line := cartclient.CartItem{
			ID:        "srv" + strconv.Itoa(int(id)),
			Product:   catalog()[0],
			SizeIndex: req.SizeIndex,
			Quantity:  1,
		}
		if req.Placement != nil {
			line.PositionX = &req.Placement.PositionX
			line.PositionY = &req.Placement.PositionY
			line.Scale = &req.Placement.Scale
			line.Rotation = req.Placement.Rotation
			line.ZIndex = req.Placement.ZIndex
		}
		lines = append(lines, line)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    cartclient.Cart{ID: "cart-1", Items: lines},
		})
	})
	mux.HandleFunc("GET /v1/cart", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    cartclient.Cart{ID: "cart-1", Items: lines},
		})
	})
	return mux
}

func TestMergeGuestPlacementsAfterLogin(t *testing.T) {
	backend := &cartBackend{}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	store := placement.New(nil)
	store.SetProducts(catalog())
	sess := New(store, nil)

	// Guest places an item: local-only, no network yet.
	_, err := store.AddItem("art-1", 0, canvas, sess.BackendAdd())
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
	assert.Equal(t, int32(0), atomic.LoadInt32(&backend.adds))

	// Login: attach the client and replay guest placements.
	sess.Attach(cartclient.New(srv.URL, "tok"))
	sess.MergeGuestPlacements()

	require.Eventually(t, func() bool {
		placed := store.Placed()
		return len(placed) == 1 && placed[0].Reconciled()
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&backend.adds))

	// A second merge finds nothing to replay.
	sess.MergeGuestPlacements()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&backend.adds))
}

func TestMergeWithZeroGuestItemsIsNoop(t *testing.T) {
	backend := &cartBackend{}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	store := placement.New(nil)
	store.SetProducts(catalog())
	sess := New(store, cartclient.New(srv.URL, "tok"))

	sess.MergeGuestPlacements()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&backend.adds))
}

func TestRefreshFromServer(t *testing.T) {
	backend := &cartBackend{}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	client := cartclient.New(srv.URL, "tok")
	_, err := client.AddOrUpdate(context.Background(), "art-1", 0, cartclient.Placement{
		PositionX: 0.25, PositionY: 0.25, Scale: 1,
	})
	require.NoError(t, err)

	store := placement.New(nil)
	sess := New(store, client)

	require.NoError(t, sess.RefreshFromServer(context.Background(), canvas))
	placed := store.Placed()
	require.Len(t, placed, 1)
	assert.True(t, placed[0].Reconciled())
	assert.Equal(t, 0.25, placed[0].PositionX)
}

func TestLogoutClearsSession(t *testing.T) {
	store := placement.New(nil)
	store.SetProducts(catalog())
	sess := New(store, nil)

	_, err := store.AddItem("art-1", 0, canvas, nil)
	require.NoError(t, err)

	sess.Logout()
	assert.Empty(t, store.Placed())
	assert.False(t, sess.Authenticated())
	assert.Nil(t, sess.BackendAdd())
	assert.Nil(t, sess.BackendDelete())
}
