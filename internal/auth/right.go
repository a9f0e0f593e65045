package auth

import "slices"

// Right is the smallest unit of authorization. Rights are never persisted;
// they are compiled into the binary and aggregated into roles.
type Right string

// General rights.
const (
	RightLogin      Right = "LOGIN"
	RightPing       Right = "PING"
	RightTestAPI    Right = "TEST_API"
	RightViewRoutes Right = "VIEW_ROUTES"
)

// User rights.
const (
	RightUpdateProfile          Right = "UPDATE_PROFILE"
	RightViewProfile            Right = "VIEW_PROFILE"
	RightChangePassword         Right = "CHANGE_PASSWORD"
	RightBooking                Right = "BOOKING"
	RightViewBooking            Right = "VIEW_BOOKING"
	RightUpdateBooking          Right = "UPDATE_BOOKING"
	RightUpdateBookingPassenger Right = "UPDATE_BOOKING_PASSENGER"
)

// Admin rights.
const (
	RightManageUsers   Right = "MANAGE_USERS"
	RightManageRoutes  Right = "MANAGE_ROUTES"
	RightManageFlights Right = "MANAGE_FLIGHTS"
	RightManageAirline Right = "MANAGE_AIRLINE"
	RightManageAirport Right = "MANAGE_AIRPORT"
	RightManageBooking Right = "MANAGE_BOOKING"
	RightManageStaff   Right = "MANAGE_STAFF"
)

// Super admin rights.
const (
	RightManageRoles   Right = "MANAGE_ROLES"
	RightViewAllData   Right = "VIEW_ALL_DATA"
	RightDeleteAnyUser Right = "DELETE_ANY_USER"
	RightFullAccess    Right = "FULL_ACCESS"
)

var (
	generalTier = []Right{RightLogin, RightPing, RightTestAPI, RightViewRoutes}
	userTier    = []Right{
		RightUpdateProfile, RightViewProfile, RightChangePassword, RightBooking,
		RightViewBooking, RightUpdateBooking, RightUpdateBookingPassenger,
	}
	adminTier = []Right{
		RightManageUsers, RightManageRoutes, RightManageFlights, RightManageAirline,
		RightManageAirport, RightManageBooking, RightManageStaff,
	}
	superAdminTier = []Right{RightManageRoles, RightViewAllData, RightDeleteAnyUser, RightFullAccess}

	userRights       = unionRights(generalTier, userTier)
	adminRights      = unionRights(userRights, adminTier)
	superAdminRights = unionRights(adminRights, superAdminTier)

	catalog = rightSet(superAdminRights)
)

// UserRights returns general and user tier rights.
func UserRights() []Right { return slices.Clone(userRights) }

// AdminRights returns UserRights plus the admin tier.
func AdminRights() []Right { return slices.Clone(adminRights) }

// SuperAdminRights returns AdminRights plus the super admin tier.
func SuperAdminRights() []Right { return slices.Clone(superAdminRights) }

// RightExists reports whether the tag is part of the compiled catalog.
func RightExists(tag string) bool {
	_, ok := catalog[Right(tag)]
	return ok
}

// HasPermission checks a plain right list, e.g. one attached to a principal.
func HasPermission(rights []Right, right Right) bool {
	return slices.Contains(rights, right)
}

// unionRights concatenates tiers in order, dropping duplicates.
func unionRights(tiers ...[]Right) []Right {
	seen := make(map[Right]struct{})
	var out []Right
	for _, tier := range tiers {
		for _, r := range tier {
			if _, dup := seen[r]; dup {
				continue
			}
			seen[r] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

func rightSet(rights []Right) map[Right]struct{} {
	set := make(map[Right]struct{}, len(rights))
	for _, r := range rights {
		set[r] = struct{}{}
	}
	return set
}
