package catalog

import (
	"net/url"
	"testing"

	"makeeasy/repo"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestParseListQueryFilters(t *testing.T) {
	values := url.Values{
		"category":   {"/furniture"},
		"city":       {"Pune"},
		"available":  {"true"},
		"price[gte]": {"100"},
		"price[lt]":  {"900"},
		"password":   {"x"},
		"search":     {"  sofa "},
	}

	q := ParseListQuery(values, productFilters)

	assert.Equal(t, "/furniture", q.Filter["category"])
	assert.Equal(t, "Pune", q.Filter["cityPricing.city"])
	assert.Equal(t, true, q.Filter["available"])
	assert.Equal(t, bson.M{"$gte": 100.0, "$lt": 900.0}, q.Filter["price"])
	assert.NotContains(t, q.Filter, "password")
	assert.Equal(t, "sofa", q.Search)
}

func TestParseListQueryIn(t *testing.T) {
	q := ParseListQuery(url.Values{"price[in]": {"100,200"}}, serviceFilters)
	assert.Equal(t, bson.M{"$in": []interface{}{100.0, 200.0}}, q.Filter["price"])
}

func TestParseListQueryKeepsTextFieldsAsStrings(t *testing.T) {
	q := ParseListQuery(url.Values{
		"location":      {"411001"},
		"category[in]":  {"1,true"},
		"featured":      {"false"},
		"price[lte]":    {"cheap"},
		"available[in]": {"true,0"},
	}, productFilters)

	assert.Equal(t, "411001", q.Filter["location"])
	assert.Equal(t, bson.M{"$in": []interface{}{"1", "true"}}, q.Filter["category"])
	assert.Equal(t, false, q.Filter["featured"])
	assert.Equal(t, bson.M{"$lte": "cheap"}, q.Filter["price"])
	assert.Equal(t, bson.M{"$in": []interface{}{true, false}}, q.Filter["available"])
}

func TestParseListQueryPaging(t *testing.T) {
	q := ParseListQuery(url.Values{}, productFilters)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, repo.NewestFirst, q.Sort)

	q = ParseListQuery(url.Values{"page": {"3"}, "limit": {"500"}}, productFilters)
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 100, q.Limit)

	q = ParseListQuery(url.Values{"page": {"-1"}, "limit": {"abc"}}, productFilters)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 10, q.Limit)
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "price", Value: 1}, {Key: "createdAt", Value: -1}}, parseSort("price,-createdAt"))
	assert.Equal(t, repo.NewestFirst, parseSort("$where"))
}

func TestPagination(t *testing.T) {
	q := ListQuery{Page: 2, Limit: 10}
	p := q.Pagination(35)
	assert.Equal(t, map[string]int{"page": 3, "limit": 10}, p["next"])
	assert.Equal(t, map[string]int{"page": 1, "limit": 10}, p["prev"])

	q = ListQuery{Page: 1, Limit: 10}
	assert.Empty(t, q.Pagination(10))
}

func TestFilterAddsSearch(t *testing.T) {
	q := ListQuery{Filter: bson.M{"featured": true}, Search: "bed"}
	f := q.filter(productSearchFields)
	assert.Equal(t, true, f["featured"])
	or, ok := f["$or"].(bson.A)
	assert.True(t, ok)
	assert.Len(t, or, 2)
	assert.NotContains(t, q.Filter, "$or")
}
