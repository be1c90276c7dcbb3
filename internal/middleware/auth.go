package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/config"
	"github.com/tesseract-hub/storefront-service/internal/models"
	"github.com/tesseract-hub/storefront-service/internal/services"
)

// Context keys set by SessionLoader
const (
	SessionIDKey     = "session_id"
	PrincipalTypeKey = "principal_type"
	CustomerIDKey    = "cliente_id"
	AdminIDKey       = "administrador_id"
)

const sessionIDValue = "sid"

// SessionCookies reads and writes the signed cookie that carries the server-side session id
type SessionCookies struct {
	store *sessions.CookieStore
	name  string
}

// NewSessionCookies creates the cookie store; the cookie lives as long as the server-side session
func NewSessionCookies(cfg config.SessionConfig) *SessionCookies {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionCookies{store: store, name: cfg.CookieName}
}

// Read returns the session id stored in the cookie, or "" when absent or tampered with
func (sc *SessionCookies) Read(r *http.Request) string {
	session, err := sc.store.Get(r, sc.name)
	if err != nil {
		return ""
	}
	id, _ := session.Values[sessionIDValue].(string)
	return id
}

// Write stores the session id in a fresh cookie
func (sc *SessionCookies) Write(c *gin.Context, sessionID string) error {
	session, _ := sc.store.New(c.Request, sc.name)
	session.Values[sessionIDValue] = sessionID
	return session.Save(c.Request, c.Writer)
}

// Clear expires the cookie
func (sc *SessionCookies) Clear(c *gin.Context) error {
	session, _ := sc.store.New(c.Request, sc.name)
	session.Options.MaxAge = -1
	return session.Save(c.Request, c.Writer)
}

// SessionLoader resolves the cookie into a session and sets the principal on the context.
// Requests without a valid session continue anonymously.
func SessionLoader(cookies *SessionCookies, sessionSvc services.SessionService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := cookies.Read(c.Request)
		if sessionID == "" {
			c.Next()
			return
		}

		session, err := sessionSvc.Resolve(c.Request.Context(), sessionID)
		if err != nil {
			if !errors.Is(err, services.ErrNotFound) {
				logger.WithError(err).Warn("Failed to resolve session")
			}
			c.Next()
			return
		}

		c.Set(SessionIDKey, session.ID)
		c.Set(PrincipalTypeKey, session.PrincipalType)
		switch session.PrincipalType {
		case models.PrincipalCustomer:
			c.Set(CustomerIDKey, session.PrincipalID)
		case models.PrincipalAdmin:
			c.Set(AdminIDKey, session.PrincipalID)
		}
		c.Next()
	}
}

// CustomerLookup loads a customer account
type CustomerLookup interface {
	Get(ctx context.Context, id uint) (*models.Customer, error)
}

// RequireCustomer requires an active customer session
func RequireCustomer(customers CustomerLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID, ok := GetCustomerID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Debes iniciar sesión como cliente",
				"code":  "AUTH_REQUIRED",
			})
			return
		}

		customer, err := customers.Get(c.Request.Context(), customerID)
		if err != nil || !customer.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "La cuenta no está activa",
				"code":  "CUSTOMER_INACTIVE",
			})
			return
		}
		c.Next()
	}
}

// RequireAdmin requires an administrator session
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetAdminID(c); ok {
			c.Next()
			return
		}
		if _, ok := GetCustomerID(c); ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Se requieren permisos de administrador",
				"code":  "ADMIN_REQUIRED",
			})
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Debes iniciar sesión",
			"code":  "AUTH_REQUIRED",
		})
	}
}

// RequireSession requires any authenticated principal
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetViewer(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Debes iniciar sesión",
				"code":  "AUTH_REQUIRED",
			})
			return
		}
		c.Next()
	}
}

// GetCustomerID returns the customer behind the session
func GetCustomerID(c *gin.Context) (uint, bool) {
	id, ok := c.Get(CustomerIDKey)
	if !ok {
		return 0, false
	}
	customerID, ok := id.(uint)
	return customerID, ok
}

// GetAdminID returns the administrator behind the session
func GetAdminID(c *gin.Context) (uint, bool) {
	id, ok := c.Get(AdminIDKey)
	if !ok {
		return 0, false
	}
	adminID, ok := id.(uint)
	return adminID, ok
}

// GetSessionID returns the current session id
func GetSessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}

// GetViewer returns who is making the request, for owner-or-admin reads
func GetViewer(c *gin.Context) (services.Viewer, bool) {
	if id, ok := GetAdminID(c); ok {
		return services.AdminViewer(id), true
	}
	if id, ok := GetCustomerID(c); ok {
		return services.CustomerViewer(id), true
	}
	return services.Viewer{}, false
}
