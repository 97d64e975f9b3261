package repositories

import (
	"errors"
	"fmt"

	"gigpay/internal/models"

	"gorm.io/gorm"
)

type paymentMethodRepository struct {
	db *gorm.DB
}

func NewPaymentMethodRepository(db *gorm.DB) PaymentMethodRepository {
	return &paymentMethodRepository{db: db}
}

func (r *paymentMethodRepository) Create(pm *models.PaymentMethod) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if pm.IsDefault {
			err := tx.Model(&models.PaymentMethod{}).
				Where("user_id = ? AND is_default = true", pm.UserID).
				Update("is_default", false).Error
			if err != nil {
				return fmt.Errorf("failed to clear default payment method: %w", err)
			}
		}
		if err := tx.Create(pm).Error; err != nil {
			return fmt.Errorf("failed to create payment method: %w", err)
		}
		return nil
	})
}

func (r *paymentMethodRepository) GetByID(id uint) (*models.PaymentMethod, error) {
	var pm models.PaymentMethod
	if err := r.db.First(&pm, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentMethodNotFound
		}
		return nil, fmt.Errorf("failed to get payment method: %w", err)
	}
	return &pm, nil
}

func (r *paymentMethodRepository) ListByUser(userID uint) ([]models.PaymentMethod, error) {
	var pms []models.PaymentMethod
	err := r.db.Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&pms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	return pms, nil
}

// SetDefault flips the default flag to the given method, clearing any
// previous default in the same transaction.
func (r *paymentMethodRepository) SetDefault(userID, id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var pm models.PaymentMethod
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&pm).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentMethodNotFound
			}
			return fmt.Errorf("failed to get payment method: %w", err)
		}

		err := tx.Model(&models.PaymentMethod{}).
			Where("user_id = ? AND is_default = true AND id <> ?", userID, id).
			Update("is_default", false).Error
		if err != nil {
			return fmt.Errorf("failed to clear default payment method: %w", err)
		}

		return tx.Model(&pm).Update("is_default", true).Error
	})
}
