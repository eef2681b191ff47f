// internal/designer/session/session.go

// Package session ties one designer session together: a placement
// store, its snapshot mirror, and, once the user authenticates, a
// cart client. A session is constructed explicitly at start and torn
// down at logout; nothing here is process-global.
package session

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/designer/cartclient"
	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/designer/placement"
	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/geometry"
)

type Session struct {
	store  *placement.Store
	client *cartclient.Client
	log    *logrus.Entry
}

// New builds a guest session around the given store. client may be nil
// until Attach is called after authentication.
func New(store *placement.Store, client *cartclient.Client) *Session {
	return &Session{
		store:  store,
		client: client,
		log:    logrus.WithField("component", "designer-session"),
	}
}

func (s *Session) Store() *placement.Store { return s.store }

func (s *Session) Authenticated() bool { return s.client != nil }

// Attach binds the authenticated cart client to the session.
func (s *Session) Attach(client *cartclient.Client) {
	s.client = client
}

// MergeGuestPlacements replays placements made before login into the
// user's server cart. Invoked once right after authentication; with no
// guest items it is a no-op, and per-item failures are final until the
// user next interacts with the affected item.
func (s *Session) MergeGuestPlacements() {
	if s.client == nil {
		s.log.Warn("Merge requested without an authenticated cart client")
		return
	}
	s.store.MergeGuestItems(s.BackendAdd())
}

// RefreshFromServer fetches the cart and makes local state match it
// exactly (server wins). Used on login and cart-page refresh.
func (s *Session) RefreshFromServer(ctx context.Context, canvas geometry.Canvas) error {
	if s.client == nil {
		return nil
	}
	cart, err := s.client.Fetch(ctx)
	if err != nil {
		return err
	}
	s.store.SyncWithCart(cart, canvas)
	return nil
}

// Logout tears the session down: in-memory list and snapshot are
// cleared, the client detached. Server-side cart state is untouched.
func (s *Session) Logout() {
	s.store.ClearPlaced()
	s.client = nil
}

// Backend effect adapters the UI passes into store operations. Each
// returns nil while the session is unauthenticated, which keeps the
// corresponding mutation local-only.

func (s *Session) BackendAdd() placement.BackendAdd {
	if s.client == nil {
		return nil
	}
	client := s.client
	return func(ctx context.Context, productID string, sizeIndex int, p cartclient.Placement) (*cartclient.Cart, error) {
		return client.AddOrUpdate(ctx, productID, sizeIndex, p)
	}
}

func (s *Session) BackendUpdate() placement.BackendUpdate {
	if s.client == nil {
		return nil
	}
	client := s.client
	return func(ctx context.Context, itemID string, p cartclient.Placement) (*cartclient.Cart, error) {
		return client.UpdatePlacement(ctx, itemID, p)
	}
}

func (s *Session) BackendDelete() placement.BackendDelete {
	if s.client == nil {
		return nil
	}
	client := s.client
	return func(ctx context.Context, itemID string) error {
		return client.Remove(ctx, itemID)
	}
}

func (s *Session) BackendEditSize() placement.BackendEditSize {
	if s.client == nil {
		return nil
	}
	client := s.client
	return func(ctx context.Context, itemID string, newSizeIndex int) (*cartclient.Cart, error) {
		return client.ChangeSize(ctx, itemID, newSizeIndex)
	}
}
