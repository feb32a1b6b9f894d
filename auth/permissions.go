package auth

// Permissions required by the drinks endpoints
const (
	PermissionGetDrinksDetail = "get:drinks-detail"
	PermissionPostDrinks      = "post:drinks"
	PermissionPatchDrinks     = "patch:drinks"
	PermissionDeleteDrinks    = "delete:drinks"
)

// Authorize checks that claims grant the required permission.
// It returns ErrPermissionsMissing when the token carried no permissions
// claim and ErrPermissionDenied when required is not in the set.
func Authorize(required string, claims *Claims) error {
	if claims == nil || claims.Permissions == nil {
		return ErrPermissionsMissing
	}

	if !claims.HasPermission(required) {
		return ErrPermissionDenied
	}

	return nil
}
