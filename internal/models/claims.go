package models

import "github.com/golang-jwt/jwt/v5"

// Application permissions
const (
	PermissionReadAdmin  = "admin:read"
	PermissionWriteAdmin = "admin:write"

	PermissionBalanceRead       = "balance:read"
	PermissionTransactionRead   = "transaction:read"
	PermissionWithdrawalWrite   = "withdrawal:write"
	PermissionPaymentMethodRead = "paymentmethod:read"
	PermissionPaymentMethodRW   = "paymentmethod:write"
)

// UserClaims are minted by the external identity service; this engine
// only validates and reads them.
type UserClaims struct {
	jwt.RegisteredClaims
	UserID      uint     `json:"user_id"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission checks if the claims include a specific permission
func (c *UserClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}
