// internal/services/cart_service_test.go
package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/models"
)

func setupCartServiceTest(t *testing.T) (*CartService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "open sqlite")

	err = db.AutoMigrate(&models.User{}, &models.Product{}, &models.Cart{}, &models.CartItem{})
	require.NoError(t, err, "migrate")

	return NewCartService(db), db
}

func createTestUser(t *testing.T, db *gorm.DB, userType models.UserType) *models.User {
	t.Helper()
	user := &models.User{
		Username: "user-" + uuid.NewString()[:8],
		Email:    uuid.NewString()[:8] + "@example.com",
		UserType: userType,
		Status:   models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("Str0ngPass!word"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestProduct(t *testing.T, db *gorm.DB, sellerID uuid.UUID, status models.ProductStatus) *models.Product {
	t.Helper()
	product := &models.Product{
		SellerID: sellerID,
		Title:    "Sunset Print",
		Category: "photography",
		Sizes: models.SizeVariantList{
			{WidthCM: 40, HeightCM: 60, Price: 39.00},
			{WidthCM: 80, HeightCM: 120, Price: 89.00},
		},
		Status: status,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestGetOrCreateCartCreatesEmptyCartOnce(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	user := createTestUser(t, db, models.UserTypeCustomer)

	cart, err := svc.GetOrCreateCart(user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	again, err := svc.GetOrCreateCart(user.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)
}

func TestAddItemAlwaysCreatesNewLine(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	seller := createTestUser(t, db, models.UserTypeSeller)
	buyer := createTestUser(t, db, models.UserTypeCustomer)
	product := createTestProduct(t, db, seller.ID, models.ProductStatusActive)

	req := &AddCartItemRequest{ProductID: product.ID, SizeIndex: 0}

	first, err := svc.AddItem(buyer.ID, req)
	require.NoError(t, err)
	second, err := svc.AddItem(buyer.ID, req)
	require.NoError(t, err)

	// same product and size still produce two independent lines
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, first.Quantity)
	assert.Equal(t, 1, second.Quantity)

	cart, err := svc.GetOrCreateCart(buyer.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
}

func TestAddItemStoresPlacement(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	seller := createTestUser(t, db, models.UserTypeSeller)
	buyer := createTestUser(t, db, models.UserTypeCustomer)
	product := createTestProduct(t, db, seller.ID, models.ProductStatusActive)

	item, err := svc.AddItem(buyer.ID, &AddCartItemRequest{
		ProductID: product.ID,
		SizeIndex: 1,
		Placement: &PlacementParams{PositionX: 0.25, PositionY: 0.75, Scale: 1.5, Rotation: 10, ZIndex: 3},
	})
	require.NoError(t, err)

	require.NotNil(t, item.PositionX)
	assert.InDelta(t, 0.25, *item.PositionX, 1e-9)
	require.NotNil(t, item.PositionY)
	assert.InDelta(t, 0.75, *item.PositionY, 1e-9)
	require.NotNil(t, item.Scale)
	assert.InDelta(t, 1.5, *item.Scale, 1e-9)
	assert.Equal(t, 3, item.ZIndex)
}

func TestAddItemWithoutPlacementLeavesColumnsNull(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	seller := createTestUser(t, db, models.UserTypeSeller)
	buyer := createTestUser(t, db, models.UserTypeCustomer)
	product := createTestProduct(t, db, seller.ID, models.ProductStatusActive)

	item, err := svc.AddItem(buyer.ID, &AddCartItemRequest{ProductID: product.ID, SizeIndex: 0})
	require.NoError(t, err)

	assert.Nil(t, item.PositionX)
	assert.Nil(t, item.PositionY)
	assert.Nil(t, item.Scale)
}

func TestAddItemRejectsBadInput(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	seller := createTestUser(t, db, models.UserTypeSeller)
	buyer := createTestUser(t, db, models.UserTypeCustomer)
	active := createTestProduct(t, db, seller.ID, models.ProductStatusActive)
	draft := createTestProduct(t, db, seller.ID, models.ProductStatusDraft)

	_, err := svc.AddItem(buyer.ID, &AddCartItemRequest{ProductID: uuid.New(), SizeIndex: 0})
	assert.ErrorContains(t, err, "product not found")

	_, err = svc.AddItem(buyer.ID, &AddCartItemRequest{ProductID: draft.ID, SizeIndex: 0})
	assert.ErrorContains(t, err, "not available")

	_, err = svc.AddItem(buyer.ID, &AddCartItemRequest{ProductID: active.ID, SizeIndex: 5})
	assert.ErrorContains(t, err, "invalid size index")
}

func TestUpdatePlacementOverwritesFields(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	seller := createTestUser(t, db, models.UserTypeSeller)
	buyer := createTestUser(t, db, models.UserTypeCustomer)
	product := createTestProduct(t, db, seller.ID, models.ProductStatusActive)

	item, err := svc.AddItem(buyer.ID, &AddCartItemRequest{ProductID: product.ID, SizeIndex: 0})
	require.NoError(t, err)

	updated, err := svc.UpdatePlacement(buyer.ID, item.ID, &PlacementParams{
		PositionX: 0.4, PositionY: 0.6, Scale: 2, Rotation: -15, ZIndex: 7,
	})
	require.NoError(t, err)

	require.NotNil(t, updated.PositionX)
	assert.InDelta(t, 0.4, *updated.PositionX, 1e-9)
	require.NotNil(t, updated.Scale)
	assert.InDelta(t, 2.0, *updated.Scale, 1e-9)
	assert.InDelta(t, -15.0, updated.Rotation, 1e-9)
	assert.Equal(t, 7, updated.ZIndex)
}

func TestUpdatePlacementUnknownItem(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	buyer := createTestUser(t, db, models.UserTypeCustomer)

	_, err := svc.UpdatePlacement(buyer.ID, uuid.New(), &PlacementParams{PositionX: 0.5, PositionY: 0.5, Scale: 1})
	assert.ErrorContains(t, err, "cart item not found")
}

func TestUpdatePlacementRejectsForeignItem(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	seller := createTestUser(t, db, models.UserTypeSeller)
	owner := createTestUser(t, db, models.UserTypeCustomer)
	other := createTestUser(t, db, models.UserTypeCustomer)
	product := createTestProduct(t, db, seller.ID, models.ProductStatusActive)

	item, err := svc.AddItem(owner.ID, &AddCartItemRequest{ProductID: product.ID, SizeIndex: 0})
	require.NoError(t, err)

	_, err = svc.UpdatePlacement(other.ID, item.ID, &PlacementParams{PositionX: 0.5, PositionY: 0.5, Scale: 1})
	assert.ErrorContains(t, err, "cart item not found")
}

func TestChangeSizeResetsScaleAndKeepsPosition(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	seller := createTestUser(t, db, models.UserTypeSeller)
	buyer := createTestUser(t, db, models.UserTypeCustomer)
	product := createTestProduct(t, db, seller.ID, models.ProductStatusActive)

	item, err := svc.AddItem(buyer.ID, &AddCartItemRequest{
		ProductID: product.ID,
		SizeIndex: 0,
		Placement: &PlacementParams{PositionX: 0.3, PositionY: 0.7, Scale: 2.5},
	})
	require.NoError(t, err)

	changed, err := svc.ChangeSize(buyer.ID, item.ID, &ChangeSizeRequest{SizeIndex: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, changed.SizeIndex)
	require.NotNil(t, changed.Scale)
	assert.InDelta(t, 1.0, *changed.Scale, 1e-9)
	require.NotNil(t, changed.PositionX)
	assert.InDelta(t, 0.3, *changed.PositionX, 1e-9)
}

func TestChangeSizeRejectsInvalidIndex(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	seller := createTestUser(t, db, models.UserTypeSeller)
	buyer := createTestUser(t, db, models.UserTypeCustomer)
	product := createTestProduct(t, db, seller.ID, models.ProductStatusActive)

	item, err := svc.AddItem(buyer.ID, &AddCartItemRequest{ProductID: product.ID, SizeIndex: 0})
	require.NoError(t, err)

	_, err = svc.ChangeSize(buyer.ID, item.ID, &ChangeSizeRequest{SizeIndex: 9})
	assert.ErrorContains(t, err, "invalid size index")
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	seller := createTestUser(t, db, models.UserTypeSeller)
	buyer := createTestUser(t, db, models.UserTypeCustomer)
	product := createTestProduct(t, db, seller.ID, models.ProductStatusActive)

	item, err := svc.AddItem(buyer.ID, &AddCartItemRequest{ProductID: product.ID, SizeIndex: 0})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveItem(buyer.ID, item.ID))
	// removing an already removed item is still a success
	require.NoError(t, svc.RemoveItem(buyer.ID, item.ID))
	require.NoError(t, svc.RemoveItem(buyer.ID, uuid.New()))

	cart, err := svc.GetOrCreateCart(buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestClearCartRemovesAllLines(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	seller := createTestUser(t, db, models.UserTypeSeller)
	buyer := createTestUser(t, db, models.UserTypeCustomer)
	product := createTestProduct(t, db, seller.ID, models.ProductStatusActive)

	for i := 0; i < 3; i++ {
		_, err := svc.AddItem(buyer.ID, &AddCartItemRequest{ProductID: product.ID, SizeIndex: i % 2})
		require.NoError(t, err)
	}

	require.NoError(t, svc.ClearCart(buyer.ID))

	cart, err := svc.GetOrCreateCart(buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartTotalSumsVariantPrices(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	seller := createTestUser(t, db, models.UserTypeSeller)
	buyer := createTestUser(t, db, models.UserTypeCustomer)
	product := createTestProduct(t, db, seller.ID, models.ProductStatusActive)

	_, err := svc.AddItem(buyer.ID, &AddCartItemRequest{ProductID: product.ID, SizeIndex: 0})
	require.NoError(t, err)
	_, err = svc.AddItem(buyer.ID, &AddCartItemRequest{ProductID: product.ID, SizeIndex: 1})
	require.NoError(t, err)

	cart, err := svc.GetOrCreateCart(buyer.ID)
	require.NoError(t, err)

	assert.InDelta(t, 39.00+89.00, svc.CartTotal(cart), 1e-9)
}
