package foodrecipe

import (
	"fmt"

	"github.com/eko2okna/food-recipe-app/interfaces"
)

// UserResourceAccessFunc decides whether the caller may mutate item.
type UserResourceAccessFunc[M interfaces.Model] func(claims *Claims, item M) error

// AuthorizeOwner allows access only to the item's author. Administrators get no override.
func AuthorizeOwner(item interfaces.Model, userID uint) error {
	if item.GetAuthorID() != userID {
		return fmt.Errorf("%w: user %d is not the author of item %d", ErrAccessDenied, userID, item.GetID())
	}
	return nil
}

func OwnerOnly[M interfaces.Model](claims *Claims, item M) error {
	return AuthorizeOwner(item, claims.UserID)
}
