package auth

import (
	"slices"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
)

// Capability is an action the policy can allow or deny.
type Capability string

const (
	CapShop           Capability = "shop"             // cart, checkout, own orders, rewards
	CapManageOrders   Capability = "orders:manage"    // any order, status changes
	CapManageCoupons  Capability = "coupons:manage"   // create and list coupons
	CapManageCatalog  Capability = "catalog:manage"   // create products
	CapViewAllRewards Capability = "rewards:view_all" // inspect other users' ledgers
	CapCancelAnyOrder Capability = "orders:cancel_any"
)

var rolePolicy = map[entity.Role][]Capability{
	entity.RoleCustomer: {CapShop},
	entity.RoleAdmin: {
		CapShop, CapManageOrders, CapManageCoupons, CapManageCatalog,
		CapViewAllRewards, CapCancelAnyOrder,
	},
}

// Authorize is the single authorization decision point. A nil or anonymous
// identity yields entity.ErrUnauthenticated; a known identity lacking the
// capability yields entity.ErrForbidden.
func Authorize(id *entity.Identity, c Capability) error {
	if id == nil || id.UserID == "" {
		return entity.ErrUnauthenticated
	}
	if slices.Contains(rolePolicy[id.Role], c) {
		return nil
	}
	return entity.ErrForbidden
}
