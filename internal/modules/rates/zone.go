package rates

import (
	"context"
	"strings"

	"courier-broker/internal/models"
)

// ZoneResolver classifies an (origin, destination) pincode pair into a
// shipping zone using the pincode lookup collaborator.
type ZoneResolver struct {
	repo RepositoryInterface
}

func NewZoneResolver(repo RepositoryInterface) *ZoneResolver {
	return &ZoneResolver{repo: repo}
}

// Resolve returns the zone for a route. Either lookup missing degrades to
// RestOfIndia rather than failing the quote.
//
// Classification precedence, first match wins:
//  1. destination state in the special-zone set
//  2. same district and state
//  3. same state
//  4. both cities in the metro set
//  5. rest of India
//
// The ordering is deliberate, not commutative: a special-zone destination
// dominates even when origin and destination are the same metro.
func (z *ZoneResolver) Resolve(ctx context.Context, route models.Route) models.Zone {
	origin, err := z.repo.LookupPincode(ctx, route.PickupPincode)
	if err != nil {
		return models.ZoneRestOfIndia
	}
	dest, err := z.repo.LookupPincode(ctx, route.DeliveryPincode)
	if err != nil {
		return models.ZoneRestOfIndia
	}

	destState := strings.ToUpper(dest.State)
	if models.SpecialZoneStates[destState] {
		return models.ZoneSpecial
	}

	originState := strings.ToUpper(origin.State)
	if originState == destState {
		if strings.EqualFold(origin.District, dest.District) {
			return models.ZoneWithinCity
		}
		return models.ZoneWithinState
	}

	if models.MetroCities[strings.ToUpper(origin.City)] && models.MetroCities[strings.ToUpper(dest.City)] {
		return models.ZoneMetroToMetro
	}

	return models.ZoneRestOfIndia
}
