package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func floatPtr(v float64) *float64 { return &v }

func TestStorefrontWhereDefaults(t *testing.T) {
	where, args := storefrontWhere(&StorefrontFilter{})

	assert.Equal(t, "WHERE p.is_active = true AND c.is_active = true", where)
	assert.Empty(t, args)
}

func TestStorefrontWherePriceRangeInclusive(t *testing.T) {
	filter := &StorefrontFilter{
		MinPrice: floatPtr(100),
		MaxPrice: floatPtr(500),
		Sort:     "price-asc",
	}

	where, args := storefrontWhere(filter)

	assert.Equal(t,
		"WHERE p.is_active = true AND c.is_active = true"+
			" AND p.base_price >= $1 AND p.base_price <= $2",
		where)
	assert.Equal(t, []interface{}{100.0, 500.0}, args)
	assert.Equal(t, "p.base_price ASC, p.id ASC", sortClause(filter.Sort))
}

func TestStorefrontWhereNumbersArgsInFilterOrder(t *testing.T) {
	filter := &StorefrontFilter{
		CompanyIDs: []int{3, 7},
		Categories: []string{"cement", "paint"},
		MinPrice:   floatPtr(50),
		Search:     "interior",
	}

	where, args := storefrontWhere(filter)

	assert.Contains(t, where, "p.company_id = ANY($1)")
	assert.Contains(t, where, "p.category = ANY($2)")
	assert.Contains(t, where, "p.base_price >= $3")
	assert.Contains(t, where, "(p.name ILIKE $4 OR p.description ILIKE $4)")
	assert.Len(t, args, 4)
	assert.Equal(t, 50.0, args[2])
	assert.Equal(t, "%interior%", args[3])
}

func TestSortClause(t *testing.T) {
	assert.Equal(t, "p.base_price ASC, p.id ASC", sortClause("price-asc"))
	assert.Equal(t, "p.base_price DESC, p.id ASC", sortClause("price-desc"))
	assert.Equal(t, "p.name ASC, p.id ASC", sortClause("name-asc"))
	assert.Equal(t, "p.created_at DESC, p.id DESC", sortClause(""))
	assert.Equal(t, "p.created_at DESC, p.id DESC", sortClause("bogus"))
}
