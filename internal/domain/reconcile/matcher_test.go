package reconcile

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearsync/backend/internal/domain/catalog"
	"github.com/gearsync/backend/internal/domain/listing"
)

type stubCatalog struct {
	items []catalog.Item
}

func (s *stubCatalog) FindByID(_ context.Context, id uuid.UUID) (*catalog.Item, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i], nil
		}
	}
	return nil, catalog.ErrItemNotFound
}

func (s *stubCatalog) FindBySKU(_ context.Context, sku string) (*catalog.Item, error) {
	for i := range s.items {
		if s.items[i].SKUEquals(sku) {
			return &s.items[i], nil
		}
	}
	return nil, catalog.ErrItemNotFound
}

func (s *stubCatalog) SearchByBrandModel(_ context.Context, brand, modelFragment string) ([]catalog.Item, error) {
	var out []catalog.Item
	for _, item := range s.items {
		if strings.EqualFold(item.Brand, brand) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *stubCatalog) SearchByKeywords(_ context.Context, keywords []string) ([]catalog.Item, error) {
	var out []catalog.Item
	for _, item := range s.items {
		haystack := strings.ToLower(item.Brand + " " + item.Model + " " + item.Description)
		for _, kw := range keywords {
			if strings.Contains(haystack, strings.ToLower(kw)) {
				out = append(out, item)
				break
			}
		}
	}
	return out, nil
}

type stubLinks struct {
	byItem map[uuid.UUID][]listing.PlatformLink
}

func (s *stubLinks) FindByID(_ context.Context, _ uuid.UUID) (*listing.PlatformLink, error) {
	return nil, listing.ErrLinkNotFound
}

func (s *stubLinks) FindByItem(_ context.Context, itemID uuid.UUID) ([]listing.PlatformLink, error) {
	return s.byItem[itemID], nil
}

func (s *stubLinks) FindByItemAndPlatform(_ context.Context, _ uuid.UUID, _ listing.Platform) (*listing.PlatformLink, error) {
	return nil, listing.ErrLinkNotFound
}

func (s *stubLinks) FindByNativeID(_ context.Context, _ listing.Platform, _ string) (*listing.PlatformLink, error) {
	return nil, listing.ErrLinkNotFound
}

func (s *stubLinks) FindUnresolved(_ context.Context, _ listing.Platform) ([]listing.PlatformLink, error) {
	return nil, nil
}

func (s *stubLinks) NativeIDsForPlatform(_ context.Context, _ listing.Platform) ([]string, error) {
	return nil, nil
}

func mustItem(t *testing.T, sku, brand, model string, price float64) catalog.Item {
	t.Helper()
	item, err := catalog.NewItem(sku, brand, model)
	require.NoError(t, err)
	require.NoError(t, item.SetPrice(decimal.NewFromFloat(price)))
	return *item
}

func newTestMatcher(t *testing.T, items []catalog.Item, links *stubLinks) *Matcher {
	t.Helper()
	if links == nil {
		links = &stubLinks{}
	}
	m, err := NewMatcher(&stubCatalog{items: items}, links, DefaultMatcherWeights())
	require.NoError(t, err)
	return m
}

func TestMatcherWeightsValidate(t *testing.T) {
	w := DefaultMatcherWeights()
	require.NoError(t, w.Validate())

	w.WeakBand = 0.9
	assert.Error(t, w.Validate())

	w = DefaultMatcherWeights()
	w.Cap = 1.0
	assert.Error(t, w.Validate())

	w = DefaultMatcherWeights()
	w.AcceptThreshold = 0
	assert.Error(t, w.Validate())
}

func TestMatcherExactKey(t *testing.T) {
	item := mustItem(t, "VG-1001", "Gibson", "Les Paul Standard", 2500)
	links := &stubLinks{byItem: map[uuid.UUID][]listing.PlatformLink{}}
	link, err := listing.NewPlatformLink(item.ID, listing.PlatformEbay, "eb-88")
	require.NoError(t, err)
	links.byItem[item.ID] = []listing.PlatformLink{*link}

	m := newTestMatcher(t, []catalog.Item{item}, links)

	suggestion, err := m.Suggest(context.Background(), listing.PlatformReverb, map[string]any{
		"seller_sku": "vg-1001",
		"make":       "Gibsn", // misspelled on purpose; the key wins anyway
	})
	require.NoError(t, err)
	require.NotNil(t, suggestion)
	assert.Equal(t, 1.0, suggestion.Confidence)
	assert.True(t, suggestion.IsExact())
	assert.Equal(t, item.ID, suggestion.Item.ID)
	assert.Contains(t, suggestion.Justification, "vg-1001")
	assert.Equal(t, []listing.Platform{listing.PlatformEbay}, suggestion.LinkedPlatforms)
}

func TestMatcherAttributeScoring(t *testing.T) {
	t.Run("strong brand, partial model and matching price land mid-band", func(t *testing.T) {
		item := mustItem(t, "VG-1001", "Gibson", "Les Paul Standard", 2500)
		m := newTestMatcher(t, []catalog.Item{item}, nil)

		suggestion, err := m.Suggest(context.Background(), listing.PlatformEbay, map[string]any{
			"brand": "Gibson",
			"model": "Les Paul",
			"price": 2500.0,
		})
		require.NoError(t, err)
		require.NotNil(t, suggestion)
		assert.Equal(t, item.ID, suggestion.Item.ID)
		assert.InDelta(t, 0.65, suggestion.Confidence, 0.001)
		assert.False(t, suggestion.IsExact())
		assert.Contains(t, suggestion.Justification, "brand")
		assert.Contains(t, suggestion.Justification, "price within 10%")
	})

	t.Run("fuzzy score never reaches certainty", func(t *testing.T) {
		item := mustItem(t, "VG-1001", "Gibson", "Les Paul Standard", 2500)
		year := 1959
		item.Year = &year
		item.Description = "Sunburst, all original parts"
		m := newTestMatcher(t, []catalog.Item{item}, nil)

		suggestion, err := m.Suggest(context.Background(), listing.PlatformEbay, map[string]any{
			"brand":       "Gibson",
			"model":       "Les Paul Standard",
			"title":       "Gibson Les Paul Standard",
			"year":        1959,
			"price":       2500.0,
			"description": "Sunburst, all original parts",
		})
		require.NoError(t, err)
		require.NotNil(t, suggestion)
		assert.Equal(t, DefaultMatcherWeights().Cap, suggestion.Confidence)
	})

	t.Run("weak candidates are withheld", func(t *testing.T) {
		item := mustItem(t, "VG-2002", "Gibson", "SG Special", 900)
		m := newTestMatcher(t, []catalog.Item{item}, nil)

		suggestion, err := m.Suggest(context.Background(), listing.PlatformEbay, map[string]any{
			"brand": "Gibson",
			"model": "Firebird",
			"price": 4200.0,
		})
		require.NoError(t, err)
		assert.Nil(t, suggestion)
	})

	t.Run("falls back to title keywords without a brand field", func(t *testing.T) {
		item := mustItem(t, "VG-3003", "Fender", "Jazzmaster", 1800)
		m := newTestMatcher(t, []catalog.Item{item}, nil)

		suggestion, err := m.Suggest(context.Background(), listing.PlatformEbay, map[string]any{
			"title": "Fender Jazzmaster",
			"model": "Jazzmaster",
			"price": 1800.0,
		})
		require.NoError(t, err)
		require.NotNil(t, suggestion)
		assert.Equal(t, item.ID, suggestion.Item.ID)
	})

	t.Run("empty payload yields nothing", func(t *testing.T) {
		item := mustItem(t, "VG-1001", "Gibson", "Les Paul Standard", 2500)
		m := newTestMatcher(t, []catalog.Item{item}, nil)

		suggestion, err := m.Suggest(context.Background(), listing.PlatformEbay, map[string]any{})
		require.NoError(t, err)
		assert.Nil(t, suggestion)
	})

	t.Run("picks the best of several candidates", func(t *testing.T) {
		standard := mustItem(t, "VG-1001", "Gibson", "Les Paul Standard", 2500)
		junior := mustItem(t, "VG-1002", "Gibson", "Les Paul Junior", 1400)
		m := newTestMatcher(t, []catalog.Item{junior, standard}, nil)

		suggestion, err := m.Suggest(context.Background(), listing.PlatformEbay, map[string]any{
			"brand": "Gibson",
			"model": "Les Paul Standard",
			"price": 2450.0,
		})
		require.NoError(t, err)
		require.NotNil(t, suggestion)
		assert.Equal(t, standard.ID, suggestion.Item.ID)
	})
}
