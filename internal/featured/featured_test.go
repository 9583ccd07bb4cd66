package featured

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/listings-api/internal/listing"
	"github.com/yourorg/listings-api/renet"
)

// fakeSource answers by (disposal, orderBy, size) so each slot gets its own list.
type fakeSource struct {
	byKey map[string][]listing.Listing
	fail  map[string]bool
	calls atomic.Int32
}

func key(disposal, orderBy string, size int) string {
	return fmt.Sprintf("%s/%s/%d", disposal, orderBy, size)
}

func (f *fakeSource) Listings(ctx context.Context, q renet.ListingsQuery) (renet.Batch, error) {
	f.calls.Add(1)
	k := key(q.DisposalMethod, q.OrderBy, q.PageSize)
	if f.fail[k] {
		return renet.Batch{}, &renet.UpstreamError{Status: 500}
	}
	return renet.Batch{Listings: f.byKey[k]}, nil
}

func home(id string, mods ...func(*listing.Listing)) listing.Listing {
	l := listing.Listing{ListingID: id, ID: id, Type: listing.TypeResidential, Heading: "Home " + id}
	for _, m := range mods {
		m(&l)
	}
	return l
}

func land(size string) func(*listing.Listing) {
	return func(l *listing.Listing) {
		l.BedBathCarLand = []listing.Feature{{Key: listing.FeatureLandSize, Value: size}}
	}
}

func described(d string) func(*listing.Listing) {
	return func(l *listing.Listing) { l.Description = d }
}

func fullSource() *fakeSource {
	return &fakeSource{byKey: map[string][]listing.Listing{
		key("forSale", "price", 1):       {home("top")},
		key("forRent", "price", 1):       {home("rent")},
		key("forSale", "dateListed", 1):  {home("new")},
		key("forSale", "dateListed", 10): {home("new"), home("small", land("300")), home("big", land("820"))},
		key("forSale", "price", 10):      {home("top"), home("plain"), home("beach", described("Steps to the BEACH"))},
		key("forSale", "price", 2):       {home("top"), home("premium")},
		key("forSale", "dateListed", 12): {home("recent1"), home("recent2")},
	}}
}

func ids(fs []Featured) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.ListingID + ":" + f.FeaturedType
	}
	return out
}

func TestSelectPriorityAndDedup(t *testing.T) {
	src := fullSource()
	got := New(src, Options{}).Select(context.Background())

	assert.Equal(t, []string{
		"top:Highest Price For Sale",
		"rent:Premium Rental",
		"new:Newest Listing",
		"big:Spacious Property",
		"beach:Premium Location",
		"premium:Premium Home",
	}, ids(got))
	assert.Equal(t, int32(7), src.calls.Load())
}

func TestSelectIsDeterministic(t *testing.T) {
	e := New(fullSource(), Options{})
	first := e.Select(context.Background())
	for i := 0; i < 5; i++ {
		assert.Equal(t, ids(first), ids(e.Select(context.Background())))
	}
}

func TestSelectToleratesFailures(t *testing.T) {
	src := fullSource()
	src.fail = map[string]bool{
		key("forRent", "price", 1):      true,
		key("forSale", "price", 10):     true,
		key("forSale", "dateListed", 1): true,
	}
	got := New(src, Options{}).Select(context.Background())

	assert.Equal(t, []string{
		"top:Highest Price For Sale",
		"big:Spacious Property",
		"premium:Premium Home",
		"recent1:Recent Listing",
		"recent2:Recent Listing",
	}, ids(got))
}

func TestSelectDropsCommercial(t *testing.T) {
	src := &fakeSource{byKey: map[string][]listing.Listing{
		key("forSale", "price", 1): {{ListingID: "shop", ID: "shop", Type: listing.TypeCommercial}},
		key("forSale", "price", 2): {home("ok"), home("office", described("Great office fitout"))},
	}}
	got := New(src, Options{}).Select(context.Background())
	assert.Equal(t, []string{"ok:Premium Home"}, ids(got))
}

func TestSelectAllFailedIsEmpty(t *testing.T) {
	src := &fakeSource{}
	src.fail = map[string]bool{}
	for _, s := range DefaultSlots() {
		src.fail[key(string(s.Target.Disposal()), s.OrderBy, s.Size)] = true
	}
	src.fail[key("forSale", "dateListed", 12)] = true

	got := New(src, Options{}).Select(context.Background())
	assert.Empty(t, got)
}

func TestAcceptors(t *testing.T) {
	assert.True(t, Spacious(home("a", land("501"))))
	assert.False(t, Spacious(home("b", land("500"))))
	assert.False(t, Spacious(home("c")))
	assert.True(t, PremiumLocation(home("d", described("River frontage"))))
	assert.False(t, PremiumLocation(home("e", described("Quiet street"))))
}

func TestTargetIsConfigurable(t *testing.T) {
	got := New(fullSource(), Options{Target: 2}).Select(context.Background())
	require.Len(t, got, 2)
	assert.Equal(t, "top", got[0].ListingID)
	assert.Equal(t, "rent", got[1].ListingID)
}
