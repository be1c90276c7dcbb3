package services

import "github.com/tesseract-hub/storefront-service/internal/models"

// Viewer is the authenticated principal reading a resource owned by a customer
type Viewer struct {
	Type models.PrincipalType
	ID   uint
}

// AdminViewer returns a viewer for an administrator
func AdminViewer(id uint) Viewer {
	return Viewer{Type: models.PrincipalAdmin, ID: id}
}

// CustomerViewer returns a viewer for a customer
func CustomerViewer(id uint) Viewer {
	return Viewer{Type: models.PrincipalCustomer, ID: id}
}

func (v Viewer) IsAdmin() bool {
	return v.Type == models.PrincipalAdmin
}

// CanSee reports whether the viewer may read a resource of the given customer
func (v Viewer) CanSee(ownerID *uint) bool {
	if v.IsAdmin() {
		return true
	}
	return ownerID != nil && *ownerID == v.ID
}
