package models

// LoginRequest authenticates an admin or a customer
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

// RegisterCustomerRequest creates a customer account
type RegisterCustomerRequest struct {
	Name     string `json:"nombre" form:"nombre" binding:"required,max=120"`
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
	Phone    string `json:"telefono" form:"telefono"`
}

// UpdateCustomerRequest is a partial profile update; empty values are ignored
type UpdateCustomerRequest struct {
	Name     string `json:"nombre"`
	Email    string `json:"email"`
	Phone    string `json:"telefono"`
	Password string `json:"password"`
}

// SetCustomerActiveRequest toggles a customer account
type SetCustomerActiveRequest struct {
	Active *bool `json:"activo" binding:"required"`
}

// UpdateAdminRequest is a partial admin profile update
type UpdateAdminRequest struct {
	Name  string `json:"nombre"`
	Email string `json:"email"`
}

// ChangePasswordRequest replaces the admin password after verifying the current one
type ChangePasswordRequest struct {
	Current string `json:"actual" binding:"required"`
	New     string `json:"nueva" binding:"required"`
}

// AddressRequest creates or updates a shipping address
type AddressRequest struct {
	Name       string `json:"nombre" binding:"required"`
	Street     string `json:"calle" binding:"required"`
	City       string `json:"localidad" binding:"required"`
	PostalCode string `json:"codigoPostal"`
	IsDefault  bool   `json:"esPredeterminada"`
}

// RecoveryRequestPayload starts a password recovery
type RecoveryRequestPayload struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest completes a password recovery
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}
