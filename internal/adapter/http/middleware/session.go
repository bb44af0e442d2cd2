package middleware

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"dgbcommerce-api/internal/core/ports"
	"dgbcommerce-api/pkg/apperror"
	"dgbcommerce-api/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Posture is the access requirement of a route. The zero value requires a session.
type Posture int

const (
	RequiresSession Posture = iota
	Public
)

func (p Posture) String() string {
	if p == Public {
		return "public"
	}
	return "requires_session"
}

// RouteTable declares the posture of every route, keyed by method and gin path pattern.
type RouteTable map[string]Posture

// NewRouteTable returns an empty table.
func NewRouteTable() RouteTable {
	return make(RouteTable)
}

func routeKey(method, path string) string {
	return method + " " + path
}

// Public declares a route reachable without a session.
func (t RouteTable) Public(method, path string) RouteTable {
	t[routeKey(method, path)] = Public
	return t
}

// Protect declares a route that needs a valid session token.
func (t RouteTable) Protect(method, path string) RouteTable {
	t[routeKey(method, path)] = RequiresSession
	return t
}

// Lookup returns the declared posture. Undeclared routes, including paths gin
// could not match, require a session.
func (t RouteTable) Lookup(method, path string) Posture {
	if path == "" {
		return RequiresSession
	}
	return t[routeKey(method, path)]
}

// Verify fails when a registered route has no declared posture.
func (t RouteTable) Verify(routes gin.RoutesInfo) error {
	var missing []string
	for _, r := range routes {
		if _, ok := t[routeKey(r.Method, r.Path)]; !ok {
			missing = append(missing, routeKey(r.Method, r.Path))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("routes without a declared posture: %s", strings.Join(missing, ", "))
}

type merchantIDKey struct{}

// WithMerchantID returns a copy of ctx carrying the authenticated merchant id.
func WithMerchantID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, merchantIDKey{}, id)
}

// MerchantIDFromContext returns the merchant id placed on the request context by SessionGate.
func MerchantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(merchantIDKey{}).(uuid.UUID)
	return id, ok
}

// SessionGate enforces the route table before any handler runs. Rejections
// always look the same to the client; the verification reason goes to the
// debug log.
func SessionGate(table RouteTable, tokenSvc ports.TokenService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if table.Lookup(c.Request.Method, c.FullPath()) == Public {
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			log.Debug().Str("path", c.Request.URL.Path).Msg("session token missing")
			response.Abort(c, apperror.ErrUnauthorized())
			return
		}

		merchantID, err := tokenSvc.Verify(token)
		if err != nil {
			log.Debug().Err(err).
				Str("path", c.Request.URL.Path).
				Str("reason", rejectReason(err)).
				Msg("session token rejected")
			response.Abort(c, apperror.ErrUnauthorized())
			return
		}

		c.Set(CtxMerchantID, merchantID)
		c.Request = c.Request.WithContext(WithMerchantID(c.Request.Context(), merchantID))
		c.Next()
	}
}

// MerchantID returns the merchant id SessionGate stored on the gin context.
func MerchantID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(CtxMerchantID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ports.ErrTokenExpired):
		return "expired"
	case errors.Is(err, ports.ErrTokenBadSignature):
		return "bad_signature"
	case errors.Is(err, ports.ErrTokenMalformed):
		return "malformed"
	default:
		return "unknown"
	}
}
