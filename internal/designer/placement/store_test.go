// internal/designer/placement/store_test.go
package placement

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/designer/cartclient"
	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/geometry"
)

var testCanvas = geometry.Canvas{Width: 1000, Height: 800}

func testProducts() []cartclient.Product {
	return []cartclient.Product{
		{
			ID:    "art-1",
			Title: "Sunset Over Water",
			Sizes: []cartclient.SizeVariant{
				{WidthCM: 40, HeightCM: 60, Price: 25},
				{WidthCM: 80, HeightCM: 120, Price: 60},
			},
		},
		{
			ID:    "art-2",
			Title: "City Lines",
			Sizes: []cartclient.SizeVariant{
				{WidthCM: 50, HeightCM: 50, Price: 30},
			},
		},
	}
}

// memMirror is an in-memory Mirror capturing the last saved list.
type memMirror struct {
	mu      sync.Mutex
	saved   []PlacedItem
	cleared bool
}

func (m *memMirror) Save(items []PlacedItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = items
	m.cleared = false
}

func (m *memMirror) Load() []PlacedItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved
}

func (m *memMirror) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = nil
	m.cleared = true
}

func newTestStore(mirror Mirror, opts ...Option) *Store {
	s := New(mirror, opts...)
	s.SetProducts(testProducts())
	return s
}

func (s *Store) pendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func serverCart(lines ...cartclient.CartItem) *cartclient.Cart {
	return &cartclient.Cart{ID: "cart-1", Items: lines}
}

func serverLine(id, productID string, sizeIndex int) cartclient.CartItem {
	var product cartclient.Product
	for _, p := range testProducts() {
		if p.ID == productID {
			product = p
		}
	}
	return cartclient.CartItem{ID: id, Product: product, SizeIndex: sizeIndex, Quantity: 1}
}

func TestAddItemCenteredAtBaseSize(t *testing.T) {
	s := newTestStore(nil)

	// 40x60cm on a 1000x800 canvas: ratio 2, so 80x120px centered.
	item, err := s.AddItem("art-1", 0, testCanvas, nil)
	require.NoError(t, err)

	assert.Equal(t, 80.0, item.Width)
	assert.Equal(t, 120.0, item.Height)
	assert.Equal(t, 460.0, item.X)
	assert.Equal(t, 340.0, item.Y)
	assert.Equal(t, 0.5, item.PositionX)
	assert.Equal(t, 0.5, item.PositionY)
	assert.Equal(t, 1.0, item.Scale)
	assert.Equal(t, 0, item.ZIndex)

	assert.False(t, item.Reconciled())
	assert.NotEmpty(t, item.ItemIDTemp)
	assert.Equal(t, item.ItemIDTemp, item.ID)

	second, err := s.AddItem("art-2", 0, testCanvas, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, second.ZIndex)
	assert.NotEqual(t, item.ID, second.ID)
}

func TestAddItemRejectsUnknownProductAndEmptyCanvas(t *testing.T) {
	s := newTestStore(nil)

	_, err := s.AddItem("nope", 0, testCanvas, nil)
	assert.Error(t, err)

	_, err = s.AddItem("art-1", 7, testCanvas, nil)
	assert.Error(t, err)

	_, err = s.AddItem("art-1", 0, geometry.Canvas{}, nil)
	assert.ErrorIs(t, err, geometry.ErrEmptyCanvas)

	assert.Empty(t, s.Placed())
}

func TestAddThenDeleteLeavesCleanState(t *testing.T) {
	mirror := &memMirror{}
	s := newTestStore(mirror)

	item, err := s.AddItem("art-1", 0, testCanvas, nil)
	require.NoError(t, err)

	s.DeleteItem(item.ID, nil)

	assert.Empty(t, s.Placed())
	assert.Equal(t, 0, s.pendingTimers())
	assert.Empty(t, mirror.Load())
}

func TestAddItemPromotesOnBackendSuccess(t *testing.T) {
	s := newTestStore(nil)

	add := func(ctx context.Context, productID string, sizeIndex int, p cartclient.Placement) (*cartclient.Cart, error) {
		return serverCart(serverLine("srv1", productID, sizeIndex)), nil
	}

	_, err := s.AddItem("art-1", 0, testCanvas, add)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		placed := s.Placed()
		return len(placed) == 1 && placed[0].Reconciled()
	}, time.Second, 5*time.Millisecond)

	got := s.Placed()[0]
	assert.Equal(t, "srv1", got.ItemID)
	assert.Equal(t, "srv1-0", got.ID)
	assert.Empty(t, got.ItemIDTemp)
}

func TestAddItemStaysGuestOnBackendFailure(t *testing.T) {
	s := newTestStore(nil)

	add := func(ctx context.Context, productID string, sizeIndex int, p cartclient.Placement) (*cartclient.Cart, error) {
		return nil, &cartclient.TransportError{Op: "add", Err: context.DeadlineExceeded}
	}

	item, err := s.AddItem("art-1", 0, testCanvas, add)
	require.NoError(t, err)

	// The item stays usable locally in guest state.
	time.Sleep(50 * time.Millisecond)
	placed := s.Placed()
	require.Len(t, placed, 1)
	assert.False(t, placed[0].Reconciled())
	assert.Equal(t, item.ItemIDTemp, placed[0].ItemIDTemp)
}

func TestOutOfOrderResponsesPromoteByIdentity(t *testing.T) {
	s := newTestStore(nil)

	releaseFirst := make(chan struct{})
	secondDone := make(chan struct{})

	add := func(ctx context.Context, productID string, sizeIndex int, p cartclient.Placement) (*cartclient.Cart, error) {
		if productID == "art-1" {
			// First request resolves last.
			<-releaseFirst
			return serverCart(
				serverLine("srv2", "art-2", 0),
				serverLine("srv1", "art-1", 0),
			), nil
		}
		defer close(secondDone)
		return serverCart(serverLine("srv2", "art-2", 0)), nil
	}

	_, err := s.AddItem("art-1", 0, testCanvas, add)
	require.NoError(t, err)
	_, err = s.AddItem("art-2", 0, testCanvas, add)
	require.NoError(t, err)

	<-secondDone
	require.Eventually(t, func() bool {
		for _, item := range s.Placed() {
			if item.ProductID == "art-2" && item.ItemID == "srv2" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	close(releaseFirst)
	require.Eventually(t, func() bool {
		for _, item := range s.Placed() {
			if item.ProductID == "art-1" && item.ItemID == "srv1" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	// Each item got the id matching its own product, not arrival order.
	for _, item := range s.Placed() {
		switch item.ProductID {
		case "art-1":
			assert.Equal(t, "srv1-0", item.ID)
		case "art-2":
			assert.Equal(t, "srv2-0", item.ID)
		}
		assert.Empty(t, item.ItemIDTemp)
	}
}

func TestLateResponseForDeletedItemIsNoop(t *testing.T) {
	s := newTestStore(nil)

	release := make(chan struct{})
	add := func(ctx context.Context, productID string, sizeIndex int, p cartclient.Placement) (*cartclient.Cart, error) {
		<-release
		return serverCart(serverLine("srv1", productID, sizeIndex)), nil
	}

	item, err := s.AddItem("art-1", 0, testCanvas, add)
	require.NoError(t, err)

	s.DeleteItem(item.ID, nil)
	close(release)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, s.Placed())
}

func TestMoveItemRederivesFractionsAndScale(t *testing.T) {
	s := newTestStore(nil)
	item, err := s.AddItem("art-1", 0, testCanvas, nil)
	require.NoError(t, err)

	s.MoveItem(item.ID, 0, 0, 80, 120, testCanvas, nil)

	got := s.Placed()[0]
	assert.Equal(t, 0.0, got.X)
	assert.InDelta(t, 0.04, got.PositionX, 1e-9)
	assert.InDelta(t, 0.075, got.PositionY, 1e-9)
	assert.Equal(t, 1.0, got.Scale)

	// Doubling the pixel width doubles the scale multiplier.
	s.MoveItem(item.ID, 0, 0, 160, 240, testCanvas, nil)
	assert.Equal(t, 2.0, s.Placed()[0].Scale)
}

func TestMoveUnknownIDIsSilentNoop(t *testing.T) {
	s := newTestStore(nil)
	s.MoveItem("ghost", 1, 2, 3, 4, testCanvas, nil)
	assert.Empty(t, s.Placed())
}

func reconciledStore(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()
	s := newTestStore(nil, opts...)
	s.SyncWithCart(serverCart(serverLine("srv1", "art-1", 0)), testCanvas)
	placed := s.Placed()
	require.Len(t, placed, 1)
	require.True(t, placed[0].Reconciled())
	return s, placed[0].ID
}

func TestDebounceCoalescesMoves(t *testing.T) {
	s, id := reconciledStore(t, WithDebounce(30*time.Millisecond))

	var calls int32
	var lastPlacement cartclient.Placement
	var mu sync.Mutex
	update := func(ctx context.Context, itemID string, p cartclient.Placement) (*cartclient.Cart, error) {
		atomic.AddInt32(&calls, 1)
		mu.Lock()
		lastPlacement = p
		mu.Unlock()
		return serverCart(), nil
	}

	for i := 0; i < 10; i++ {
		s.MoveItem(id, float64(i*10), 0, 80, 120, testCanvas, update)
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 1
	}, time.Second, 5*time.Millisecond)

	// Quiesce well past the window: still exactly one call, carrying
	// the final position only.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	mu.Lock()
	defer mu.Unlock()
	assert.InDelta(t, (90.0+40)/1000, lastPlacement.PositionX, 1e-9)
}

func TestIndependentDebouncePerItem(t *testing.T) {
	s := newTestStore(nil, WithDebounce(30*time.Millisecond))
	s.SyncWithCart(serverCart(
		serverLine("srv1", "art-1", 0),
		serverLine("srv2", "art-2", 0),
	), testCanvas)

	var mu sync.Mutex
	seen := make(map[string]int)
	update := func(ctx context.Context, itemID string, p cartclient.Placement) (*cartclient.Cart, error) {
		mu.Lock()
		seen[itemID]++
		mu.Unlock()
		return serverCart(), nil
	}

	s.MoveItem("srv1-0", 10, 10, 80, 120, testCanvas, update)
	s.MoveItem("srv2-0", 20, 20, 100, 100, testCanvas, update)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen["srv1"] == 1 && seen["srv2"] == 1
	}, time.Second, 5*time.Millisecond)
}

func TestDeleteCancelsPendingDebounce(t *testing.T) {
	s, id := reconciledStore(t, WithDebounce(30*time.Millisecond))

	var calls int32
	update := func(ctx context.Context, itemID string, p cartclient.Placement) (*cartclient.Cart, error) {
		atomic.AddInt32(&calls, 1)
		return serverCart(), nil
	}

	s.MoveItem(id, 10, 10, 80, 120, testCanvas, update)
	s.DeleteItem(id, nil)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assert.Equal(t, 0, s.pendingTimers())
}

func TestDeleteFiresBackendRemoveForReconciledItem(t *testing.T) {
	s, id := reconciledStore(t)

	removed := make(chan string, 1)
	del := func(ctx context.Context, itemID string) error {
		removed <- itemID
		return nil
	}

	s.DeleteItem(id, del)
	assert.Empty(t, s.Placed())

	select {
	case got := <-removed:
		assert.Equal(t, "srv1", got)
	case <-time.After(time.Second):
		t.Fatal("backend delete never fired")
	}
}

func TestDeleteItemUniversal(t *testing.T) {
	s, _ := reconciledStore(t)
	guest, err := s.AddItem("art-2", 0, testCanvas, nil)
	require.NoError(t, err)

	// Match by server item id (cart page only knows this one).
	s.DeleteItemUniversal("srv1", nil)
	require.Len(t, s.Placed(), 1)

	// Match by temporary id.
	s.DeleteItemUniversal(guest.ItemIDTemp, nil)
	assert.Empty(t, s.Placed())
}

func TestDeleteItemUniversalUnknownIdentifier(t *testing.T) {
	s, _ := reconciledStore(t)

	var calls int32
	del := func(ctx context.Context, itemID string) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}

	s.DeleteItemUniversal("never-existed", del)

	require.Len(t, s.Placed(), 1)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestEditItemSize(t *testing.T) {
	s, id := reconciledStore(t)

	changed := make(chan int, 1)
	edit := func(ctx context.Context, itemID string, newSizeIndex int) (*cartclient.Cart, error) {
		changed <- newSizeIndex
		return serverCart(), nil
	}

	s.EditItemSize(id, 1, geometry.Size{Width: 80, Height: 120}, testCanvas, edit)

	got := s.Placed()[0]
	assert.Equal(t, 1, got.SizeIndex)
	assert.Equal(t, 160.0, got.Width)
	assert.Equal(t, 240.0, got.Height)
	assert.Equal(t, 1.0, got.Scale)
	assert.Equal(t, "srv1-1", got.ID)
	// Still centered where it was.
	assert.Equal(t, 0.5, got.PositionX)
	assert.Equal(t, 420.0, got.X)

	select {
	case idx := <-changed:
		assert.Equal(t, 1, idx)
	case <-time.After(time.Second):
		t.Fatal("backend size change never fired")
	}
}

func TestSyncWithCartDefaultsMissingPlacement(t *testing.T) {
	s := newTestStore(nil)

	line := serverLine("srv1", "art-1", 0) // no stored placement
	s.SyncWithCart(serverCart(line), testCanvas)

	got := s.Placed()[0]
	assert.Equal(t, 0.5, got.PositionX)
	assert.Equal(t, 0.5, got.PositionY)
	assert.Equal(t, 1.0, got.Scale)
	assert.Equal(t, 80.0, got.Width)
	assert.Equal(t, 460.0, got.X)
	assert.Equal(t, "srv1-0", got.ID)
	assert.True(t, got.Reconciled())
}

func TestSyncWithCartReplacesLocalList(t *testing.T) {
	s := newTestStore(nil)
	_, err := s.AddItem("art-1", 0, testCanvas, nil)
	require.NoError(t, err)

	fx, fy, scale := 0.25, 0.75, 2.0
	line := serverLine("srv9", "art-2", 0)
	line.PositionX, line.PositionY, line.Scale = &fx, &fy, &scale
	line.ZIndex = 5

	s.SyncWithCart(serverCart(line), testCanvas)

	placed := s.Placed()
	require.Len(t, placed, 1)
	got := placed[0]
	assert.Equal(t, "srv9-0", got.ID)
	assert.Equal(t, 0.25, got.PositionX)
	// 50cm * ratio 2 * scale 2 = 200px.
	assert.Equal(t, 200.0, got.Width)
	assert.Equal(t, 5, got.ZIndex)

	// The next add stacks above the synced lines.
	next, err := s.AddItem("art-1", 0, testCanvas, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, next.ZIndex)
}

func TestMergeGuestItemsPromotesEachIndependently(t *testing.T) {
	s := newTestStore(nil)
	_, err := s.AddItem("art-1", 0, testCanvas, nil)
	require.NoError(t, err)
	_, err = s.AddItem("art-2", 0, testCanvas, nil)
	require.NoError(t, err)

	var calls int32
	add := func(ctx context.Context, productID string, sizeIndex int, p cartclient.Placement) (*cartclient.Cart, error) {
		atomic.AddInt32(&calls, 1)
		if productID == "art-2" {
			return nil, &cartclient.TransportError{Op: "add", Err: context.DeadlineExceeded}
		}
		return serverCart(serverLine("srv1", productID, sizeIndex)), nil
	}

	s.MergeGuestItems(add)

	// One succeeds and is promoted; the failure leaves the other guest.
	require.Eventually(t, func() bool {
		for _, item := range s.Placed() {
			if item.ProductID == "art-1" && item.Reconciled() {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	for _, item := range s.Placed() {
		if item.ProductID == "art-2" {
			assert.False(t, item.Reconciled())
		}
	}
}

func TestMergeGuestItemsIdempotentWhenAllReconciled(t *testing.T) {
	s, _ := reconciledStore(t)
	before := s.Placed()

	var calls int32
	add := func(ctx context.Context, productID string, sizeIndex int, p cartclient.Placement) (*cartclient.Cart, error) {
		atomic.AddInt32(&calls, 1)
		return serverCart(), nil
	}

	s.MergeGuestItems(add)
	s.MergeGuestItems(add)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assert.Equal(t, before, s.Placed())
}

func TestRestoreFromSnapshot(t *testing.T) {
	mirror := &memMirror{}
	mirror.Save([]PlacedItem{
		{
			ID: "srv1-0", ItemID: "srv1", ProductID: "art-1", SizeIndex: 0,
			PositionX: 0.5, PositionY: 0.5, Scale: 1, ZIndex: 2,
			Width: 40, Height: 60, // stale pixels from a smaller canvas
		},
		{
			ID: "temp-x", ItemIDTemp: "temp-x", ProductID: "gone", SizeIndex: 0,
			PositionX: 0.25, PositionY: 0.25, Scale: 1,
			Width: 50, Height: 50,
		},
	})

	s := newTestStore(mirror)
	s.RestoreFromSnapshot(testCanvas)

	placed := s.Placed()
	require.Len(t, placed, 2)

	resolved := placed[0]
	assert.False(t, resolved.Unresolved)
	assert.Equal(t, 80.0, resolved.Width)
	assert.Equal(t, 460.0, resolved.X)

	// The discontinued product keeps its stale pixel size but is
	// flagged, and its position still follows the stored fractions.
	stale := placed[1]
	assert.True(t, stale.Unresolved)
	assert.Equal(t, 50.0, stale.Width)
	assert.Equal(t, 0.25*1000-25, stale.X)

	// Z ordering continues above the restored maximum.
	next, err := s.AddItem("art-1", 0, testCanvas, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, next.ZIndex)
}

func TestRelayoutKeepsFractionsFixed(t *testing.T) {
	s := newTestStore(nil)
	item, err := s.AddItem("art-1", 0, testCanvas, nil)
	require.NoError(t, err)

	doubled := geometry.Canvas{Width: 2000, Height: 1600}
	s.Relayout(doubled)

	got := s.Placed()[0]
	assert.Equal(t, item.PositionX, got.PositionX)
	assert.Equal(t, 160.0, got.Width)
	assert.Equal(t, 920.0, got.X)
}

func TestClearPlaced(t *testing.T) {
	mirror := &memMirror{}
	s := newTestStore(mirror, WithDebounce(time.Hour))
	s.SyncWithCart(serverCart(serverLine("srv1", "art-1", 0)), testCanvas)

	noop := func(ctx context.Context, itemID string, p cartclient.Placement) (*cartclient.Cart, error) {
		return serverCart(), nil
	}
	s.MoveItem("srv1-0", 1, 1, 80, 120, testCanvas, noop)
	require.Equal(t, 1, s.pendingTimers())

	s.ClearPlaced()

	assert.Empty(t, s.Placed())
	assert.Equal(t, 0, s.pendingTimers())
	assert.Empty(t, mirror.Load())
}
