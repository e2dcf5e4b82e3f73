// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// EndpointSecurityConfig maps "METHOD route-template" to the required security level.
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Service surface - Public
	"GET /":         SecurityPublic,
	"GET /health":   SecurityPublic,
	"GET /metrics":  SecurityPublic,
	"GET /uploads/": SecurityPublic,

	// Auth - Public
	"POST /api/auth/register": SecurityPublic,
	"POST /api/auth/login":    SecurityPublic,

	// Auth - Access Protected
	"GET /api/auth/me": SecurityAccess,

	// Users - Access Protected
	"GET /api/users/{id}": SecurityAccess,
	"PUT /api/users/{id}": SecurityAccess,

	// Categories - Public
	"GET /api/categories": SecurityPublic,

	// Items - Public browsing
	"GET /api/items":      SecurityPublic,
	"GET /api/items/{id}": SecurityPublic,

	// Items - Access Protected
	"GET /api/items/my":           SecurityAccess,
	"POST /api/items":             SecurityAccess,
	"PUT /api/items/{id}":         SecurityAccess,
	"DELETE /api/items/{id}":      SecurityAccess,
	"POST /api/items/{id}/images": SecurityAccess,

	// Rentals - All Access Protected
	"GET /api/rentals":               SecurityAccess,
	"POST /api/rentals":              SecurityAccess,
	"GET /api/rentals/{id}":          SecurityAccess,
	"PUT /api/rentals/{id}/confirm":  SecurityAccess,
	"PUT /api/rentals/{id}/complete": SecurityAccess,

	// Messages - All Access Protected
	"GET /api/messages/rental/{id}": SecurityAccess,
	"POST /api/messages":            SecurityAccess,
	"PUT /api/messages/{id}/read":   SecurityAccess,

	// Notifications - All Access Protected
	"GET /api/notifications":           SecurityAccess,
	"PUT /api/notifications/{id}/read": SecurityAccess,
}

// GetSecurityLevel returns the security level for a method and route template
func GetSecurityLevel(method, routeTemplate string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method+" "+routeTemplate]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
