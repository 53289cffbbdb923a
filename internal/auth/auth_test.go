package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
)

func TestAuthorize(t *testing.T) {
	customer := &entity.Identity{UserID: "u-1", Role: entity.RoleCustomer}
	admin := &entity.Identity{UserID: "a-1", Role: entity.RoleAdmin}

	cases := []struct {
		name string
		id   *entity.Identity
		cap  Capability
		want error
	}{
		{"anonymous", nil, CapShop, entity.ErrUnauthenticated},
		{"empty user", &entity.Identity{}, CapShop, entity.ErrUnauthenticated},
		{"customer shops", customer, CapShop, nil},
		{"customer cannot manage orders", customer, CapManageOrders, entity.ErrForbidden},
		{"customer cannot manage coupons", customer, CapManageCoupons, entity.ErrForbidden},
		{"admin manages orders", admin, CapManageOrders, nil},
		{"admin manages catalog", admin, CapManageCatalog, nil},
		{"unknown role", &entity.Identity{UserID: "x", Role: "GUEST"}, CapShop, entity.ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.id, tc.cap)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	v := NewTokenVerifier("test-secret", "salon-shop")
	tok, err := v.Issue(entity.Identity{UserID: "u-42", Email: "lan@example.com", Name: "Lan", Role: entity.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-42", id.UserID)
	assert.Equal(t, "lan@example.com", id.Email)
	assert.Equal(t, entity.RoleAdmin, id.Role)
}

func TestVerifyRejects(t *testing.T) {
	v := NewTokenVerifier("test-secret", "salon-shop")

	other := NewTokenVerifier("other-secret", "salon-shop")
	forged, err := other.Issue(entity.Identity{UserID: "u-1"}, time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(forged)
	assert.ErrorIs(t, err, entity.ErrUnauthenticated)

	expired, err := v.Issue(entity.Identity{UserID: "u-1"}, -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(expired)
	assert.ErrorIs(t, err, entity.ErrUnauthenticated)

	_, err = v.Verify("not-a-token")
	assert.ErrorIs(t, err, entity.ErrUnauthenticated)
}

func TestVerifyDefaultsUnknownRoleToCustomer(t *testing.T) {
	v := NewTokenVerifier("s", "")
	tok, err := v.Issue(entity.Identity{UserID: "u-1", Role: "SUPERUSER"}, time.Hour)
	require.NoError(t, err)
	id, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleCustomer, id.Role)
}

func TestMiddleware(t *testing.T) {
	v := NewTokenVerifier("test-secret", "")
	var seen *entity.Identity
	h := Middleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("anonymous passes through", func(t *testing.T) {
		seen = nil
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Nil(t, seen)
	})

	t.Run("valid token attaches identity", func(t *testing.T) {
		tok, err := v.Issue(entity.Identity{UserID: "u-7"}, time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "u-7", seen.UserID)
	})

	t.Run("malformed header is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
