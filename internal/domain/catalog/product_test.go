package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func validFeedData() FeedData {
	return FeedData{
		NameEl: "Καφετιέρα",
		NameEn: "Coffee maker",
		Price:  decimal.RequireFromString("49.90"),
		Stock:  5,
		Brand:  strPtr("Acme"),
		Images: []string{"/products/abc.jpg"},
	}
}

func TestNewFeedProduct(t *testing.T) {
	feedID := uuid.New()

	t.Run("creates active feed-owned product", func(t *testing.T) {
		product, err := NewFeedProduct(feedID, "A-100", "SF-A-100", "coffee-maker", validFeedData())
		require.NoError(t, err)

		assert.Equal(t, "SF-A-100", product.SKU)
		assert.Equal(t, "coffee-maker", product.Slug)
		assert.Equal(t, ProductStatusActive, product.Status)
		require.NotNil(t, product.SupplierFeedID)
		assert.Equal(t, feedID, *product.SupplierFeedID)
		require.NotNil(t, product.SupplierSKU)
		assert.Equal(t, "A-100", *product.SupplierSKU)
		assert.Equal(t, []string{"/products/abc.jpg"}, product.Images)
		assert.True(t, product.IsFeedOwned())
		assert.Equal(t, 1, product.GetVersion())
	})

	t.Run("starts with an empty image list", func(t *testing.T) {
		data := validFeedData()
		data.Images = nil
		product, err := NewFeedProduct(feedID, "A-100", "SF-A-100", "coffee-maker", data)
		require.NoError(t, err)
		assert.NotNil(t, product.Images)
		assert.Empty(t, product.Images)
	})

	t.Run("fails with empty supplier sku", func(t *testing.T) {
		_, err := NewFeedProduct(feedID, " ", "SF-", "slug", validFeedData())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Supplier SKU")
	})

	t.Run("fails with empty slug", func(t *testing.T) {
		_, err := NewFeedProduct(feedID, "A-100", "SF-A-100", "", validFeedData())
		require.Error(t, err)
	})

	t.Run("fails with negative price", func(t *testing.T) {
		data := validFeedData()
		data.Price = decimal.NewFromInt(-1)
		_, err := NewFeedProduct(feedID, "A-100", "SF-A-100", "slug", data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "price")
	})
}

func TestProduct_ApplyFeedData(t *testing.T) {
	feedID := uuid.New()

	t.Run("updates in place and reactivates", func(t *testing.T) {
		product, err := NewFeedProduct(feedID, "A-100", "SF-A-100", "coffee-maker", validFeedData())
		require.NoError(t, err)
		product.Deactivate()
		originalID := product.ID

		data := validFeedData()
		data.NameEn = "Espresso maker"
		data.Price = decimal.RequireFromString("59.00")
		data.Stock = 0
		require.NoError(t, product.ApplyFeedData(data))

		assert.Equal(t, originalID, product.ID)
		assert.Equal(t, "SF-A-100", product.SKU)
		assert.Equal(t, "coffee-maker", product.Slug)
		assert.Equal(t, "Espresso maker", product.NameEn)
		assert.True(t, product.Price.Equal(decimal.RequireFromString("59")))
		assert.Equal(t, 0, product.Stock)
		assert.True(t, product.IsActive())
	})

	t.Run("keeps images when none resolved", func(t *testing.T) {
		product, err := NewFeedProduct(feedID, "A-100", "SF-A-100", "coffee-maker", validFeedData())
		require.NoError(t, err)

		data := validFeedData()
		data.Images = nil
		require.NoError(t, product.ApplyFeedData(data))
		assert.Equal(t, []string{"/products/abc.jpg"}, product.Images)
	})

	t.Run("clears optional fields the record no longer has", func(t *testing.T) {
		product, err := NewFeedProduct(feedID, "A-100", "SF-A-100", "coffee-maker", validFeedData())
		require.NoError(t, err)

		data := validFeedData()
		data.Brand = nil
		require.NoError(t, product.ApplyFeedData(data))
		assert.Nil(t, product.Brand)
	})
}

func TestProduct_DeactivateAndDetach(t *testing.T) {
	product, err := NewFeedProduct(uuid.New(), "A-100", "SF-A-100", "coffee-maker", validFeedData())
	require.NoError(t, err)

	product.Deactivate()
	assert.False(t, product.IsActive())
	version := product.GetVersion()

	product.Deactivate()
	assert.Equal(t, version, product.GetVersion(), "deactivating twice is a no-op")

	product.DetachFromFeed()
	assert.Nil(t, product.SupplierFeedID)
	assert.Nil(t, product.SupplierSKU)
	assert.False(t, product.IsFeedOwned())
}

func TestProduct_HasRemoteImages(t *testing.T) {
	product := &Product{Images: []string{"/products/a.jpg"}}
	assert.False(t, product.HasRemoteImages())

	product.Images = append(product.Images, "https://cdn.example.com/b.png")
	assert.True(t, product.HasRemoteImages())
}
