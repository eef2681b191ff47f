// internal/services/product_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/models"
	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/utils"
)

type ProductService struct {
	db *gorm.DB
}

type SizeVariantRequest struct {
	WidthCM  float64 `json:"width_cm" validate:"required,gt=0"`
	HeightCM float64 `json:"height_cm" validate:"required,gt=0"`
	Price    float64 `json:"price" validate:"required,min=0.01"`
}

type CreateProductRequest struct {
	Title       string               `json:"title" validate:"required,min=3,max=255"`
	Description string               `json:"description" validate:"omitempty,max=5000"`
	Category    string               `json:"category" validate:"required"`
	ImageURL    string               `json:"image_url,omitempty"`
	Sizes       []SizeVariantRequest `json:"sizes" validate:"required,min=1,dive"`
	Tags        []string             `json:"tags,omitempty"`
}

type UpdateProductRequest struct {
	Title       string               `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Description string               `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category    string               `json:"category,omitempty"`
	ImageURL    string               `json:"image_url,omitempty"`
	Sizes       []SizeVariantRequest `json:"sizes,omitempty" validate:"omitempty,min=1,dive"`
	Tags        []string             `json:"tags,omitempty"`
	Status      models.ProductStatus `json:"status,omitempty"`
}

type ProductSearchParams struct {
	utils.PaginationParams
	SellerID *uuid.UUID            `json:"seller_id,omitempty"`
	Status   *models.ProductStatus `json:"status,omitempty"`
	Category string                `json:"category,omitempty"`
	PriceMin *float64              `json:"price_min,omitempty"`
	PriceMax *float64              `json:"price_max,omitempty"`
	Tags     []string              `json:"tags,omitempty"`
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

func (s *ProductService) CreateProduct(sellerID uuid.UUID, req *CreateProductRequest) (*models.Product, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// Verify seller exists and is active
	var seller models.User
	if err := s.db.First(&seller, sellerID).Error; err != nil {
		return nil, fmt.Errorf("seller not found: %w", err)
	}

	if seller.Status != models.UserStatusActive {
		return nil, errors.New("seller account is not active")
	}

	if seller.UserType != models.UserTypeSeller && seller.UserType != models.UserTypeAdmin {
		return nil, errors.New("only sellers can create products")
	}

	sizes, err := buildSizeVariants(req.Sizes)
	if err != nil {
		return nil, err
	}

	// Create product
	product := &models.Product{
		SellerID:    sellerID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		Sizes:       sizes,
		Tags:        req.Tags,
		Status:      models.ProductStatusDraft,
	}

	// Save product
	if err := s.db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	// Load relationships
	s.db.Preload("Seller").First(product, product.ID)

	return product, nil
}

func (s *ProductService) GetProduct(id uuid.UUID, userID *uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.Preload("Seller").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	// Drafts and archived products are only visible to their seller
	if product.Status != models.ProductStatusActive {
		if userID == nil || *userID != product.SellerID {
			return nil, errors.New("product not found")
		}
	}

	// Count the view asynchronously, lost increments are fine
	go func() {
		s.db.Model(&models.Product{}).Where("id = ?", id).
			UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	}()

	return &product, nil
}

func (s *ProductService) UpdateProduct(id, sellerID uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var product models.Product
	if err := s.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if product.SellerID != sellerID {
		return nil, errors.New("unauthorized to update this product")
	}

	if req.Title != "" {
		product.Title = req.Title
	}
	if req.Description != "" {
		product.Description = req.Description
	}
	if req.Category != "" {
		product.Category = req.Category
	}
	if req.ImageURL != "" {
		product.ImageURL = req.ImageURL
	}
	if len(req.Sizes) > 0 {
		sizes, err := buildSizeVariants(req.Sizes)
		if err != nil {
			return nil, err
		}
		product.Sizes = sizes
	}
	if req.Tags != nil {
		product.Tags = req.Tags
	}
	if req.Status != "" {
		if req.Status != models.ProductStatusDraft &&
			req.Status != models.ProductStatusActive &&
			req.Status != models.ProductStatusArchived {
			return nil, errors.New("invalid product status")
		}
		product.Status = req.Status
	}

	if err := s.db.Save(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.db.Preload("Seller").First(&product, product.ID)
	return &product, nil
}

func (s *ProductService) DeleteProduct(id, sellerID uuid.UUID) error {
	var product models.Product
	if err := s.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("product not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	if product.SellerID != sellerID {
		return errors.New("unauthorized to delete this product")
	}

	// Archive instead of hard delete so existing order history keeps
	// its product references.
	product.Status = models.ProductStatusArchived
	if err := s.db.Save(&product).Error; err != nil {
		return fmt.Errorf("failed to archive product: %w", err)
	}

	return nil
}

func (s *ProductService) SearchProducts(params *ProductSearchParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.Product{}).Preload("Seller")

	// Default to active products for public searches
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	} else {
		query = query.Where("status = ?", models.ProductStatusActive)
	}

	if params.SellerID != nil {
		query = query.Where("seller_id = ?", *params.SellerID)
	}

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	if params.Search != "" {
		search := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", search, search)
	}

	// Price filters apply to the cheapest variant of each product
	if params.PriceMin != nil {
		query = query.Where("(SELECT MIN((v->>'price')::numeric) FROM jsonb_array_elements(sizes) v) >= ?", *params.PriceMin)
	}
	if params.PriceMax != nil {
		query = query.Where("(SELECT MIN((v->>'price')::numeric) FROM jsonb_array_elements(sizes) v) <= ?", *params.PriceMax)
	}

	if len(params.Tags) > 0 {
		query = query.Where("tags && ?", params.Tags)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	query = utils.ApplySort(query, params.PaginationParams, []string{"created_at", "title", "view_count", "sales_count"})
	query = utils.ApplyPagination(query, params.PaginationParams)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	result := utils.CreatePaginationResult(products, total, params.PaginationParams)
	return &result, nil
}

func (s *ProductService) ListSellerProducts(sellerID uuid.UUID, params *utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.Product{}).Where("seller_id = ?", sellerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	query = utils.ApplySort(query, *params, []string{"created_at", "title", "status"})
	query = utils.ApplyPagination(query, *params)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	result := utils.CreatePaginationResult(products, total, *params)
	return &result, nil
}

func (s *ProductService) GetPopularProducts(limit int) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.Where("status = ?", models.ProductStatusActive).
		Order("sales_count DESC, view_count DESC").
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch popular products: %w", err)
	}

	return products, nil
}

func (s *ProductService) GetFeaturedProducts(limit int) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.Where("status = ?", models.ProductStatusActive).
		Where("? = ANY(tags)", "featured").
		Order("created_at DESC").
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch featured products: %w", err)
	}

	return products, nil
}

func buildSizeVariants(reqs []SizeVariantRequest) (models.SizeVariantList, error) {
	sizes := make(models.SizeVariantList, 0, len(reqs))
	for _, r := range reqs {
		if r.WidthCM <= 0 || r.HeightCM <= 0 {
			return nil, errors.New("size dimensions must be positive")
		}
		if r.Price <= 0 {
			return nil, errors.New("size price must be positive")
		}
		sizes = append(sizes, models.SizeVariant{
			WidthCM:  r.WidthCM,
			HeightCM: r.HeightCM,
			Price:    r.Price,
		})
	}
	return sizes, nil
}
