// internal/services/admin_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/models"
	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/utils"
)

type AdminService struct {
	db       *gorm.DB
	payments *PaymentService
}

type AdminDashboardStats struct {
	TotalUsers        int64   `json:"total_users"`
	ActiveUsers       int64   `json:"active_users"`
	NewUsersThisMonth int64   `json:"new_users_this_month"`
	TotalProducts     int64   `json:"total_products"`
	ActiveProducts    int64   `json:"active_products"`
	TotalOrders       int64   `json:"total_orders"`
	PaidOrders        int64   `json:"paid_orders"`
	TotalRevenue      float64 `json:"total_revenue"`
	MonthlyRevenue    float64 `json:"monthly_revenue"`
}

type AdminUserFilter struct {
	utils.PaginationParams
	UserType      *models.UserType   `json:"user_type,omitempty"`
	Status        *models.UserStatus `json:"status,omitempty"`
	CreatedAfter  *time.Time         `json:"created_after,omitempty"`
	CreatedBefore *time.Time         `json:"created_before,omitempty"`
}

type AdminOrderFilter struct {
	utils.PaginationParams
	UserID        *uuid.UUID          `json:"user_id,omitempty"`
	Status        *models.OrderStatus `json:"status,omitempty"`
	CreatedAfter  *time.Time          `json:"created_after,omitempty"`
	CreatedBefore *time.Time          `json:"created_before,omitempty"`
}

func NewAdminService(db *gorm.DB, payments *PaymentService) *AdminService {
	return &AdminService{
		db:       db,
		payments: payments,
	}
}

func (s *AdminService) GetDashboardStats() (*AdminDashboardStats, error) {
	stats := &AdminDashboardStats{}
	monthStart := time.Now().AddDate(0, 0, -30)

	if err := s.db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	s.db.Model(&models.User{}).Where("status = ?", models.UserStatusActive).Count(&stats.ActiveUsers)
	s.db.Model(&models.User{}).Where("created_at >= ?", monthStart).Count(&stats.NewUsersThisMonth)

	s.db.Model(&models.Product{}).Count(&stats.TotalProducts)
	s.db.Model(&models.Product{}).Where("status = ?", models.ProductStatusActive).Count(&stats.ActiveProducts)

	s.db.Model(&models.Order{}).Count(&stats.TotalOrders)
	s.db.Model(&models.Order{}).Where("status = ?", models.OrderStatusPaid).Count(&stats.PaidOrders)

	s.db.Model(&models.Order{}).Where("status IN ?", []models.OrderStatus{
		models.OrderStatusPaid, models.OrderStatusShipped, models.OrderStatusDelivered,
	}).Select("COALESCE(SUM(total), 0)").Scan(&stats.TotalRevenue)

	s.db.Model(&models.Order{}).Where("status IN ? AND paid_at >= ?", []models.OrderStatus{
		models.OrderStatusPaid, models.OrderStatusShipped, models.OrderStatusDelivered,
	}, monthStart).Select("COALESCE(SUM(total), 0)").Scan(&stats.MonthlyRevenue)

	return stats, nil
}

func (s *AdminService) GetUsers(filter AdminUserFilter) ([]models.User, int64, error) {
	query := s.db.Model(&models.User{})

	if filter.UserType != nil {
		query = query.Where("user_type = ?", *filter.UserType)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("username ILIKE ? OR email ILIKE ?", search, search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query = utils.ApplySort(query, filter.PaginationParams, []string{"created_at", "username", "email"})
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, total, nil
}

func (s *AdminService) UpdateUserStatus(userID uuid.UUID, status models.UserStatus, adminID uuid.UUID, reason string) error {
	if status != models.UserStatusActive && status != models.UserStatusSuspended && status != models.UserStatusBanned {
		return errors.New("invalid user status")
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("user not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	oldStatus := user.Status
	user.Status = status

	if err := s.db.Save(&user).Error; err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}

	s.createAuditLog(adminID, "user_status_update", "users", &userID, map[string]interface{}{
		"old_status": string(oldStatus),
		"new_status": string(status),
		"reason":     reason,
	})

	return nil
}

func (s *AdminService) GetOrders(filter AdminOrderFilter) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{}).Preload("Items").Preload("User")

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query = utils.ApplySort(query, filter.PaginationParams, []string{"created_at", "total", "status"})
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, total, nil
}

// UpdateOrderStatus moves a paid order along the fulfilment chain.
// Refunds go through ProcessRefund so money and state stay together.
func (s *AdminService) UpdateOrderStatus(orderID uuid.UUID, status models.OrderStatus, adminID uuid.UUID) error {
	allowed := map[models.OrderStatus][]models.OrderStatus{
		models.OrderStatusPaid:    {models.OrderStatusShipped},
		models.OrderStatusShipped: {models.OrderStatusDelivered},
	}

	var order models.Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("order not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	valid := false
	for _, next := range allowed[order.Status] {
		if next == status {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("cannot move order from %s to %s", order.Status, status)
	}

	oldStatus := order.Status
	order.Status = status

	if err := s.db.Save(&order).Error; err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	s.createAuditLog(adminID, "order_status_update", "orders", &orderID, map[string]interface{}{
		"old_status": string(oldStatus),
		"new_status": string(status),
	})

	return nil
}

func (s *AdminService) ProcessRefund(orderID uuid.UUID, adminID uuid.UUID, reason string) error {
	if err := s.payments.RefundOrder(orderID, reason); err != nil {
		return err
	}

	s.createAuditLog(adminID, "order_refund", "orders", &orderID, map[string]interface{}{
		"reason": reason,
	})

	return nil
}

func (s *AdminService) GetSettings() (map[string]models.AdminSettings, error) {
	var settings []models.AdminSettings
	if err := s.db.Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	result := make(map[string]models.AdminSettings, len(settings))
	for _, setting := range settings {
		result[setting.Key] = setting
	}

	return result, nil
}

func (s *AdminService) UpdateSetting(key string, value map[string]interface{}, adminID uuid.UUID) error {
	var setting models.AdminSettings
	err := s.db.Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		setting = models.AdminSettings{Key: key, Value: models.JSONB(value)}
		if err := s.db.Create(&setting).Error; err != nil {
			return fmt.Errorf("failed to create setting: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("database error: %w", err)
	} else {
		setting.Value = models.JSONB(value)
		if err := s.db.Save(&setting).Error; err != nil {
			return fmt.Errorf("failed to update setting: %w", err)
		}
	}

	s.createAuditLog(adminID, "setting_update", "admin_settings", &setting.ID, value)
	return nil
}

func (s *AdminService) createAuditLog(userID uuid.UUID, action, resourceType string, resourceID *uuid.UUID, values map[string]interface{}) {
	auditLog := &models.AuditLog{
		UserID:       &userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		NewValues:    models.JSONB(values),
	}
	s.db.Create(auditLog)
}
