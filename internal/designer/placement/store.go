// internal/designer/placement/store.go

// Package placement owns the authoritative in-memory list of artwork
// instances placed on the wall canvas. Every operation mutates the list
// synchronously so the UI can re-render immediately, mirrors the list
// to local persistence, and when the session is authenticated it
// reconciles with the backend cart asynchronously and best-effort.
// Backend failures never roll back local state.
package placement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/designer/cartclient"
	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/geometry"
)

// DefaultDebounce is how long a dragged item must stay still before its
// new placement is written to the backend. Rapid move events within the
// window collapse into a single call carrying the final position.
const DefaultDebounce = 300 * time.Millisecond

const tempIDPrefix = "temp-"

type Store struct {
	mu       sync.Mutex
	items    []*PlacedItem
	products map[string]cartclient.Product
	mirror   Mirror
	debounce time.Duration
	// timers is keyed by server item id: only reconciled items get
	// debounced backend updates, and the server id is the one identity
	// that never changes under promotion or size edits.
	timers map[string]*time.Timer
	nextZ  int
	log    *logrus.Entry
}

type Option func(*Store)

// WithDebounce overrides the move coalescing interval.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) { s.debounce = d }
}

// New builds a store mirroring to the given slot. mirror may be nil for
// a purely in-memory session.
func New(mirror Mirror, opts ...Option) *Store {
	s := &Store{
		products: make(map[string]cartclient.Product),
		mirror:   mirror,
		debounce: DefaultDebounce,
		timers:   make(map[string]*time.Timer),
		log:      logrus.WithField("component", "placement"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetProducts registers the product catalog the store derives base
// physical sizes from. Must be called before RestoreFromSnapshot.
func (s *Store) SetProducts(products []cartclient.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		s.products[p.ID] = p
	}
}

// Placed returns a copy of the current list in insertion order.
func (s *Store) Placed() []PlacedItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PlacedItem, len(s.items))
	for i, item := range s.items {
		out[i] = *item
	}
	return out
}

// AddItem places a product on the wall, centered, at its base physical
// size. The item is usable immediately under a temporary id; if
// backendAdd is supplied the cart line is created asynchronously and
// the item promoted to its server identity on success.
func (s *Store) AddItem(productID string, sizeIndex int, canvas geometry.Canvas, backendAdd BackendAdd) (PlacedItem, error) {
	s.mu.Lock()

	variant, err := s.variantLocked(productID, sizeIndex)
	if err != nil {
		s.mu.Unlock()
		return PlacedItem{}, err
	}
	if canvas.Empty() {
		s.mu.Unlock()
		return PlacedItem{}, geometry.ErrEmptyCanvas
	}

	size := geometry.PhysicalToPixels(geometry.Size{Width: variant.WidthCM, Height: variant.HeightCM}, canvas.Width)
	x := (canvas.Width - size.Width) / 2
	y := (canvas.Height - size.Height) / 2
	fx, fy, err := geometry.PixelCenterToFraction(x, y, size.Width, size.Height, canvas)
	if err != nil {
		s.mu.Unlock()
		return PlacedItem{}, err
	}

	tempID := tempIDPrefix + uuid.NewString()
	item := &PlacedItem{
		ID:         tempID,
		ItemIDTemp: tempID,
		ProductID:  productID,
		SizeIndex:  sizeIndex,
		X:          x,
		Y:          y,
		Width:      size.Width,
		Height:     size.Height,
		PositionX:  fx,
		PositionY:  fy,
		Scale:      1,
		ZIndex:     s.nextZ,
	}
	s.nextZ++
	s.items = append(s.items, item)
	s.persistLocked()

	out := *item
	pl := placementOf(item)
	s.mu.Unlock()

	if backendAdd != nil {
		go s.reconcileAdd(tempID, productID, sizeIndex, pl, backendAdd)
	}
	return out, nil
}

// MoveItem applies a drag frame: pixel position/size update, fraction
// re-derivation, snapshot mirror. Cheap enough to call per frame.
// Unknown ids are a silent no-op (a delete racing a stale render is
// expected, not an error). For reconciled items the backend update is
// debounced per item.
func (s *Store) MoveItem(id string, x, y, w, h float64, canvas geometry.Canvas, backendUpdate BackendUpdate) {
	s.mu.Lock()
	item := s.findLocalLocked(id)
	if item == nil {
		s.mu.Unlock()
		return
	}

	item.X, item.Y, item.Width, item.Height = x, y, w, h
	if fx, fy, err := geometry.PixelCenterToFraction(x, y, w, h, canvas); err == nil {
		item.PositionX, item.PositionY = fx, fy
	}
	if variant, err := s.variantLocked(item.ProductID, item.SizeIndex); err == nil {
		base := geometry.PhysicalToPixels(geometry.Size{Width: variant.WidthCM, Height: variant.HeightCM}, canvas.Width)
		if base.Width > 0 {
			item.Scale = w / base.Width
		}
	}
	s.persistLocked()

	serverID := item.ItemID
	s.mu.Unlock()

	if serverID != "" && backendUpdate != nil {
		s.scheduleUpdate(serverID, backendUpdate)
	}
}

// DeleteItem removes the item with the given local id. Removal is
// optimistic: memory and snapshot first, backend delete fired after.
// A failed backend delete is logged, never rolled back.
func (s *Store) DeleteItem(id string, backendDelete BackendDelete) {
	s.deleteMatching(func(item *PlacedItem) bool {
		return item.ID == id
	}, backendDelete)
}

// DeleteItemUniversal resolves the identifier against local id, server
// item id, or temporary id, so removal requests originating from the
// cart page (which only knows server ids) land on the right placement.
func (s *Store) DeleteItemUniversal(identifier string, backendDelete BackendDelete) {
	s.deleteMatching(func(item *PlacedItem) bool {
		return item.ID == identifier || item.ItemID == identifier ||
			(item.ItemIDTemp != "" && item.ItemIDTemp == identifier)
	}, backendDelete)
}

func (s *Store) deleteMatching(match func(*PlacedItem) bool, backendDelete BackendDelete) {
	s.mu.Lock()

	idx := -1
	for i, item := range s.items {
		if match(item) {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}

	item := s.items[idx]
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	if item.ItemID != "" {
		if t, ok := s.timers[item.ItemID]; ok {
			t.Stop()
			delete(s.timers, item.ItemID)
		}
	}
	s.persistLocked()

	serverID := item.ItemID
	s.mu.Unlock()

	if serverID != "" && backendDelete != nil {
		go func() {
			if err := backendDelete(context.Background(), serverID); err != nil {
				s.log.WithError(err).WithField("item_id", serverID).
					Warn("Backend delete failed; local removal stands")
			}
		}()
	}
}

// EditItemSize swaps the item to a different size variant. newSize is
// the variant's physical size in cm; scale resets to 1 and the item
// keeps its center position.
func (s *Store) EditItemSize(id string, newSizeIndex int, newSize geometry.Size, canvas geometry.Canvas, backendEditSize BackendEditSize) {
	s.mu.Lock()
	item := s.findLocalLocked(id)
	if item == nil {
		s.mu.Unlock()
		return
	}

	base := geometry.PhysicalToPixels(newSize, canvas.Width)
	item.Width, item.Height = base.Width, base.Height
	item.Scale = 1
	item.SizeIndex = newSizeIndex
	item.X, item.Y = geometry.FractionToPixelTopLeft(item.PositionX, item.PositionY, base.Width, base.Height, canvas)
	if item.ItemID != "" {
		item.ID = fmt.Sprintf("%s-%d", item.ItemID, newSizeIndex)
	}
	s.persistLocked()

	serverID := item.ItemID
	s.mu.Unlock()

	if serverID != "" && backendEditSize != nil {
		go func() {
			if _, err := backendEditSize(context.Background(), serverID, newSizeIndex); err != nil {
				s.log.WithError(err).WithField("item_id", serverID).
					Warn("Backend size change failed; local size stands")
			}
		}()
	}
}

// SyncWithCart replaces the whole list with the server cart's lines:
// server wins. Lines without stored placement default to the canvas
// center at scale 1. Products populated on the lines are registered
// into the catalog as a side effect.
func (s *Store) SyncWithCart(cart *cartclient.Cart, canvas geometry.Canvas) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	maxZ := -1
	for _, line := range cart.Items {
		if line.Product.ID != "" {
			s.products[line.Product.ID] = line.Product
		}

		fx, fy, scale := 0.5, 0.5, 1.0
		if line.PositionX != nil {
			fx = *line.PositionX
		}
		if line.PositionY != nil {
			fy = *line.PositionY
		}
		if line.Scale != nil {
			scale = *line.Scale
		}

		item := &PlacedItem{
			ID:        fmt.Sprintf("%s-%d", line.ID, line.SizeIndex),
			ItemID:    line.ID,
			ProductID: line.Product.ID,
			SizeIndex: line.SizeIndex,
			PositionX: fx,
			PositionY: fy,
			Scale:     scale,
			Rotation:  line.Rotation,
			ZIndex:    line.ZIndex,
		}

		if line.SizeIndex >= 0 && line.SizeIndex < len(line.Product.Sizes) && !canvas.Empty() {
			variant := line.Product.Sizes[line.SizeIndex]
			base := geometry.PhysicalToPixels(geometry.Size{Width: variant.WidthCM, Height: variant.HeightCM}, canvas.Width)
			item.Width = base.Width * scale
			item.Height = base.Height * scale
			item.X, item.Y = geometry.FractionToPixelTopLeft(fx, fy, item.Width, item.Height, canvas)
		} else {
			item.Unresolved = true
		}

		if item.ZIndex > maxZ {
			maxZ = item.ZIndex
		}
		s.items = append(s.items, item)
	}
	s.nextZ = maxZ + 1
	s.persistLocked()
}

// RestoreFromSnapshot rebuilds the list from the local mirror, written
// at the end of the previous session. Pixel geometry is re-derived from
// the durable fields against the current canvas; items whose product or
// size variant is no longer in the catalog keep their stored pixel size
// and are flagged Unresolved for the UI to decide on.
func (s *Store) RestoreFromSnapshot(canvas geometry.Canvas) {
	if s.mirror == nil {
		return
	}
	loaded := s.mirror.Load()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	maxZ := -1
	for _, it := range loaded {
		item := it

		variant, err := s.variantLocked(item.ProductID, item.SizeIndex)
		if err == nil && !canvas.Empty() {
			base := geometry.PhysicalToPixels(geometry.Size{Width: variant.WidthCM, Height: variant.HeightCM}, canvas.Width)
			item.Width = base.Width * item.Scale
			item.Height = base.Height * item.Scale
			item.X, item.Y = geometry.FractionToPixelTopLeft(item.PositionX, item.PositionY, item.Width, item.Height, canvas)
			item.Unresolved = false
		} else {
			item.Unresolved = true
			if !canvas.Empty() {
				item.X, item.Y = geometry.FractionToPixelTopLeft(item.PositionX, item.PositionY, item.Width, item.Height, canvas)
			}
		}

		if item.ZIndex > maxZ {
			maxZ = item.ZIndex
		}
		s.items = append(s.items, &item)
	}
	s.nextZ = maxZ + 1
}

// MergeGuestItems replays every unreconciled placement through the
// authenticated backend add, promoting each on its own success. Failures
// are isolated per item; calling this with no guest items is a no-op.
func (s *Store) MergeGuestItems(backendAdd BackendAdd) {
	if backendAdd == nil {
		return
	}

	type guest struct {
		tempID    string
		productID string
		sizeIndex int
		pl        cartclient.Placement
	}

	s.mu.Lock()
	var guests []guest
	for _, item := range s.items {
		if item.ItemID == "" && item.ItemIDTemp != "" {
			guests = append(guests, guest{
				tempID:    item.ItemIDTemp,
				productID: item.ProductID,
				sizeIndex: item.SizeIndex,
				pl:        placementOf(item),
			})
		}
	}
	s.mu.Unlock()

	for _, g := range guests {
		go s.reconcileAdd(g.tempID, g.productID, g.sizeIndex, g.pl, backendAdd)
	}
}

// Relayout re-derives pixel geometry from the durable fields after the
// canvas changes size. The fractional fields never change here.
func (s *Store) Relayout(canvas geometry.Canvas) {
	if canvas.Empty() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		variant, err := s.variantLocked(item.ProductID, item.SizeIndex)
		if err == nil {
			base := geometry.PhysicalToPixels(geometry.Size{Width: variant.WidthCM, Height: variant.HeightCM}, canvas.Width)
			item.Width = base.Width * item.Scale
			item.Height = base.Height * item.Scale
		}
		item.X, item.Y = geometry.FractionToPixelTopLeft(item.PositionX, item.PositionY, item.Width, item.Height, canvas)
	}
}

// ClearPlaced empties the list and the local mirror. Backend state is
// untouched; after checkout the server cart is cleared separately.
func (s *Store) ClearPlaced() {
	s.mu.Lock()
	s.items = nil
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.nextZ = 0
	s.mu.Unlock()

	if s.mirror != nil {
		s.mirror.Clear()
	}
}

func (s *Store) reconcileAdd(tempID, productID string, sizeIndex int, pl cartclient.Placement, backendAdd BackendAdd) {
	cart, err := backendAdd(context.Background(), productID, sizeIndex, pl)
	if err != nil {
		s.log.WithError(err).WithField("product_id", productID).
			Warn("Backend add failed; placement stays local-only")
		return
	}
	s.promote(tempID, cart)
}

// promote swaps a guest item to its server identity by matching the
// returned cart against the temporary id's product and size. The
// transition is monotonic and idempotent: a duplicate or out-of-order
// response finds no item with the temp id and does nothing, and a
// response for a locally deleted item likewise matches nothing.
func (s *Store) promote(tempID string, cart *cartclient.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var item *PlacedItem
	for _, candidate := range s.items {
		if candidate.ItemIDTemp == tempID {
			item = candidate
			break
		}
	}
	if item == nil {
		return
	}

	claimed := make(map[string]bool, len(s.items))
	for _, other := range s.items {
		if other.ItemID != "" {
			claimed[other.ItemID] = true
		}
	}

	for _, line := range cart.Items {
		if claimed[line.ID] {
			continue
		}
		if line.Product.ID != item.ProductID || line.SizeIndex != item.SizeIndex {
			continue
		}
		item.ItemID = line.ID
		item.ID = fmt.Sprintf("%s-%d", line.ID, line.SizeIndex)
		item.ItemIDTemp = ""
		s.persistLocked()
		return
	}

	s.log.WithFields(logrus.Fields{
		"temp_id":    tempID,
		"product_id": item.ProductID,
	}).Warn("Cart response has no matching line; placement stays local-only")
}

func (s *Store) scheduleUpdate(serverID string, backendUpdate BackendUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[serverID]; ok {
		t.Stop()
	}
	s.timers[serverID] = time.AfterFunc(s.debounce, func() {
		s.flushMove(serverID, backendUpdate)
	})
}

func (s *Store) flushMove(serverID string, backendUpdate BackendUpdate) {
	s.mu.Lock()
	delete(s.timers, serverID)

	var item *PlacedItem
	for _, candidate := range s.items {
		if candidate.ItemID == serverID {
			item = candidate
			break
		}
	}
	if item == nil {
		// Deleted while the timer was pending.
		s.mu.Unlock()
		return
	}
	pl := placementOf(item)
	s.mu.Unlock()

	if _, err := backendUpdate(context.Background(), serverID, pl); err != nil {
		s.log.WithError(err).WithField("item_id", serverID).
			Warn("Backend placement update failed; local position stands")
	}
}

func (s *Store) findLocalLocked(id string) *PlacedItem {
	for _, item := range s.items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

func (s *Store) variantLocked(productID string, sizeIndex int) (cartclient.SizeVariant, error) {
	product, ok := s.products[productID]
	if !ok {
		return cartclient.SizeVariant{}, fmt.Errorf("placement: unknown product %q", productID)
	}
	if sizeIndex < 0 || sizeIndex >= len(product.Sizes) {
		return cartclient.SizeVariant{}, fmt.Errorf("placement: product %q has no size %d", productID, sizeIndex)
	}
	return product.Sizes[sizeIndex], nil
}

func (s *Store) persistLocked() {
	if s.mirror == nil {
		return
	}
	out := make([]PlacedItem, len(s.items))
	for i, item := range s.items {
		out[i] = *item
	}
	s.mirror.Save(out)
}

func placementOf(item *PlacedItem) cartclient.Placement {
	return cartclient.Placement{
		PositionX: item.PositionX,
		PositionY: item.PositionY,
		Scale:     item.Scale,
		Rotation:  item.Rotation,
		ZIndex:    item.ZIndex,
	}
}
