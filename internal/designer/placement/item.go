// internal/designer/placement/item.go
package placement

import (
	"context"

	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/designer/cartclient"
)

// PlacedItem is one artwork instance on the wall canvas.
//
// Identity has two dimensions. ID is the local handle the UI renders
// by: a "temp-" prefixed value while the item only exists locally, or
// "{serverItemID}-{sizeIndex}" once the backend has persisted the line.
// ItemID/ItemIDTemp track reconciliation: exactly one of them is set at
// any time, and the only transition is guest (ItemIDTemp set) to
// reconciled (ItemID set) on a matching backend response. There is no
// reverse transition.
//
// X/Y/Width/Height are pixel-space for the current canvas and are
// always re-derivable from PositionX/PositionY/Scale plus the canvas
// dimensions; the fractional fields are the durable truth.
type PlacedItem struct {
	ID         string  `json:"id"`
	ItemID     string  `json:"item_id,omitempty"`
	ItemIDTemp string  `json:"item_id_temp,omitempty"`
	ProductID  string  `json:"product_id"`
	SizeIndex  int     `json:"size_index"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	PositionX  float64 `json:"position_x"`
	PositionY  float64 `json:"position_y"`
	Scale      float64 `json:"scale"`
	Rotation   float64 `json:"rotation"`
	ZIndex     int     `json:"z_index"`

	// Unresolved marks an item restored from a snapshot whose product
	// or size variant could not be found in the catalog. Its pixel size
	// may be stale; position is still re-derived from the fractions.
	Unresolved bool `json:"-"`
}

// Reconciled reports whether this item is backed by a server cart line.
func (i *PlacedItem) Reconciled() bool {
	return i.ItemID != ""
}

// Backend effect signatures. The store receives these as optional
// values: nil means the session is unauthenticated and the mutation is
// local-only. All of them are invoked asynchronously and best-effort.
type (
	BackendAdd      func(ctx context.Context, productID string, sizeIndex int, p cartclient.Placement) (*cartclient.Cart, error)
	BackendUpdate   func(ctx context.Context, itemID string, p cartclient.Placement) (*cartclient.Cart, error)
	BackendDelete   func(ctx context.Context, itemID string) error
	BackendEditSize func(ctx context.Context, itemID string, newSizeIndex int) (*cartclient.Cart, error)
)

// Mirror is the local persistence slot the store writes after every
// mutation. Implementations must swallow their own failures; the store
// never checks them.
type Mirror interface {
	Save(items []PlacedItem)
	Load() []PlacedItem
	Clear()
}
