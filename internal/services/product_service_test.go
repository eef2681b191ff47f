// internal/services/product_service_test.go
package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/models"
	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/utils"
)

func setupProductServiceTest(t *testing.T) (*ProductService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "open sqlite")

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}), "migrate")

	return NewProductService(db), db
}

func validCreateRequest() *CreateProductRequest {
	return &CreateProductRequest{
		Title:    "Golden Hour Print",
		Category: "photography",
		Sizes: []SizeVariantRequest{
			{WidthCM: 40, HeightCM: 60, Price: 39.00},
			{WidthCM: 80, HeightCM: 120, Price: 89.00},
		},
	}
}

func TestCreateProductRequiresSellerAccount(t *testing.T) {
	svc, db := setupProductServiceTest(t)
	customer := createTestUser(t, db, models.UserTypeCustomer)

	_, err := svc.CreateProduct(customer.ID, validCreateRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only sellers")
}

func TestCreateProductStartsAsDraft(t *testing.T) {
	svc, db := setupProductServiceTest(t)
	seller := createTestUser(t, db, models.UserTypeSeller)

	product, err := svc.CreateProduct(seller.ID, validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusDraft, product.Status)
	assert.Len(t, product.Sizes, 2)
	assert.Equal(t, seller.ID, product.SellerID)
}

func TestCreateProductValidatesSizeVariants(t *testing.T) {
	svc, db := setupProductServiceTest(t)
	seller := createTestUser(t, db, models.UserTypeSeller)

	req := validCreateRequest()
	req.Sizes = nil
	_, err := svc.CreateProduct(seller.ID, req)
	require.Error(t, err, "at least one size required")

	req = validCreateRequest()
	req.Sizes[0].WidthCM = 0
	_, err = svc.CreateProduct(seller.ID, req)
	require.Error(t, err, "zero width rejected")

	req = validCreateRequest()
	req.Sizes[1].Price = -5
	_, err = svc.CreateProduct(seller.ID, req)
	require.Error(t, err, "negative price rejected")
}

func TestGetProductHidesDraftsFromOthers(t *testing.T) {
	svc, db := setupProductServiceTest(t)
	seller := createTestUser(t, db, models.UserTypeSeller)
	stranger := createTestUser(t, db, models.UserTypeCustomer)
	draft := createTestProduct(t, db, seller.ID, models.ProductStatusDraft)

	_, err := svc.GetProduct(draft.ID, nil)
	require.Error(t, err, "anonymous viewer")

	_, err = svc.GetProduct(draft.ID, &stranger.ID)
	require.Error(t, err, "other user")

	found, err := svc.GetProduct(draft.ID, &seller.ID)
	require.NoError(t, err, "owner sees own draft")
	assert.Equal(t, draft.ID, found.ID)
}

func TestUpdateProductEnforcesOwnership(t *testing.T) {
	svc, db := setupProductServiceTest(t)
	seller := createTestUser(t, db, models.UserTypeSeller)
	other := createTestUser(t, db, models.UserTypeSeller)
	product := createTestProduct(t, db, seller.ID, models.ProductStatusDraft)

	_, err := svc.UpdateProduct(product.ID, other.ID, &UpdateProductRequest{Title: "Stolen Title"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")

	updated, err := svc.UpdateProduct(product.ID, seller.ID, &UpdateProductRequest{
		Title:  "Sunset Print II",
		Status: models.ProductStatusActive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Sunset Print II", updated.Title)
	assert.Equal(t, models.ProductStatusActive, updated.Status)

	_, err = svc.UpdateProduct(product.ID, seller.ID, &UpdateProductRequest{Status: "bogus"})
	require.Error(t, err)
}

func TestDeleteProductArchivesInsteadOfRemoving(t *testing.T) {
	svc, db := setupProductServiceTest(t)
	seller := createTestUser(t, db, models.UserTypeSeller)
	product := createTestProduct(t, db, seller.ID, models.ProductStatusActive)

	require.NoError(t, svc.DeleteProduct(product.ID, seller.ID))

	var stored models.Product
	require.NoError(t, db.First(&stored, product.ID).Error)
	assert.Equal(t, models.ProductStatusArchived, stored.Status)
}

func TestSearchProductsDefaultsToActive(t *testing.T) {
	svc, db := setupProductServiceTest(t)
	seller := createTestUser(t, db, models.UserTypeSeller)
	createTestProduct(t, db, seller.ID, models.ProductStatusActive)
	createTestProduct(t, db, seller.ID, models.ProductStatusDraft)
	createTestProduct(t, db, seller.ID, models.ProductStatusArchived)

	result, err := svc.SearchProducts(&ProductSearchParams{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 20, Order: "desc"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)
}

func TestSearchProductsMatchesTitle(t *testing.T) {
	svc, db := setupProductServiceTest(t)
	seller := createTestUser(t, db, models.UserTypeSeller)

	match := createTestProduct(t, db, seller.ID, models.ProductStatusActive)
	other := createTestProduct(t, db, seller.ID, models.ProductStatusActive)
	require.NoError(t, db.Model(other).Update("title", "Mountain Sketch").Error)

	result, err := svc.SearchProducts(&ProductSearchParams{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 20, Order: "desc", Search: "sunset"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), result.Total)

	products, ok := result.Data.([]models.Product)
	require.True(t, ok)
	assert.Equal(t, match.ID, products[0].ID)
}

func TestGetPopularProductsOrdersBySales(t *testing.T) {
	svc, db := setupProductServiceTest(t)
	seller := createTestUser(t, db, models.UserTypeSeller)

	slow := createTestProduct(t, db, seller.ID, models.ProductStatusActive)
	hot := createTestProduct(t, db, seller.ID, models.ProductStatusActive)
	require.NoError(t, db.Model(hot).Update("sales_count", 12).Error)
	createTestProduct(t, db, seller.ID, models.ProductStatusDraft)

	products, err := svc.GetPopularProducts(10)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, hot.ID, products[0].ID)
	assert.Equal(t, slow.ID, products[1].ID)
}
