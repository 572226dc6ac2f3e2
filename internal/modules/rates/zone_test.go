package rates

import (
	"context"
	"testing"

	"courier-broker/internal/models"
)

func newZoneFakeRepo() *fakeRepo {
	fr := newFakeRepo()
	fr.pincodes["110001"] = &models.PincodeRecord{Pincode: "110001", City: "New Delhi", District: "Central Delhi", State: "Delhi"}
	fr.pincodes["110032"] = &models.PincodeRecord{Pincode: "110032", City: "Delhi", District: "Central Delhi", State: "Delhi"}
	fr.pincodes["110092"] = &models.PincodeRecord{Pincode: "110092", City: "Delhi", District: "East Delhi", State: "Delhi"}
	fr.pincodes["400001"] = &models.PincodeRecord{Pincode: "400001", City: "Mumbai", District: "Mumbai", State: "Maharashtra"}
	fr.pincodes["600001"] = &models.PincodeRecord{Pincode: "600001", City: "Chennai", District: "Chennai", State: "Tamil Nadu"}
	fr.pincodes["190001"] = &models.PincodeRecord{Pincode: "190001", City: "Srinagar", District: "Srinagar", State: "Jammu and Kashmir"}
	fr.pincodes["321001"] = &models.PincodeRecord{Pincode: "321001", City: "Bharatpur", District: "Bharatpur", State: "Rajasthan"}
	return fr
}

func TestZoneResolverPrecedence(t *testing.T) {
	z := NewZoneResolver(newZoneFakeRepo())
	ctx := context.Background()

	cases := []struct {
		name   string
		pickup string
		deliv  string
		want   models.Zone
	}{
		{"same district", "110001", "110032", models.ZoneWithinCity},
		{"same state, different district", "110001", "110092", models.ZoneWithinState},
		{"metro to metro", "400001", "600001", models.ZoneMetroToMetro},
		{"plain interstate", "321001", "400001", models.ZoneRestOfIndia},
		{"special destination", "110001", "190001", models.ZoneSpecial},
		// Special destination dominates even a metro origin pair; the
		// ordering is not commutative.
		{"special origin, metro destination", "190001", "400001", models.ZoneRestOfIndia},
	}
	for _, tc := range cases {
		got := z.Resolve(ctx, models.Route{PickupPincode: tc.pickup, DeliveryPincode: tc.deliv})
		if got != tc.want {
			t.Errorf("%s: Resolve(%s -> %s) = %s; want %s", tc.name, tc.pickup, tc.deliv, got, tc.want)
		}
	}
}

func TestZoneResolverUnknownPincode(t *testing.T) {
	z := NewZoneResolver(newZoneFakeRepo())
	ctx := context.Background()

	route := models.Route{PickupPincode: "999999", DeliveryPincode: "110001"}
	if got := z.Resolve(ctx, route); got != models.ZoneRestOfIndia {
		t.Errorf("unknown pickup: Resolve = %s; want REST_OF_INDIA", got)
	}
	route = models.Route{PickupPincode: "110001", DeliveryPincode: "999999"}
	if got := z.Resolve(ctx, route); got != models.ZoneRestOfIndia {
		t.Errorf("unknown delivery: Resolve = %s; want REST_OF_INDIA", got)
	}
}

func TestZoneResolverDeterministic(t *testing.T) {
	z := NewZoneResolver(newZoneFakeRepo())
	ctx := context.Background()
	route := models.Route{PickupPincode: "400001", DeliveryPincode: "600001"}

	first := z.Resolve(ctx, route)
	for i := 0; i < 5; i++ {
		if got := z.Resolve(ctx, route); got != first {
			t.Fatalf("Resolve flapped: %s then %s", first, got)
		}
	}
}
