package catalog

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"makeeasy/repo"

	"go.mongodb.org/mongo-driver/bson"
)

var (
	// query parameter -> document field
	productFilters = map[string]string{
		"category":  "category",
		"location":  "location",
		"city":      "cityPricing.city",
		"available": "available",
		"featured":  "featured",
		"price":     "price",
	}
	serviceFilters = map[string]string{
		"available": "available",
		"featured":  "featured",
		"price":     "price",
	}

	// document fields compared as numbers or booleans; the rest stay strings
	fieldKinds = map[string]fieldKind{
		"available": boolField,
		"featured":  boolField,
		"price":     numberField,
	}

	productSearchFields = []string{"title", "description"}
	serviceSearchFields = []string{"title", "description"}

	rangeParam = regexp.MustCompile(`^([A-Za-z]+)\[(gt|gte|lt|lte|in)\]$`)
	sortField  = regexp.MustCompile(`^-?[A-Za-z][A-Za-z.]*$`)
)

type fieldKind int

const (
	stringField fieldKind = iota
	numberField
	boolField
)

// ListQuery is a parsed storefront list request: field filters with
// optional range operators, free-text search, sort and paging.
type ListQuery struct {
	Filter bson.M
	Search string
	Sort   bson.D
	Page   int
	Limit  int
}

// ParseListQuery reads a list request. Only parameters named in allowed
// become filters; price[gte]=100 style operators are supported.
func ParseListQuery(values url.Values, allowed map[string]string) ListQuery {
	q := ListQuery{Filter: bson.M{}, Page: 1, Limit: 10}

	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		name, op := key, ""
		if m := rangeParam.FindStringSubmatch(key); m != nil {
			name, op = m[1], m[2]
		}
		field, ok := allowed[name]
		if !ok {
			continue
		}
		if op == "" {
			q.Filter[field] = convert(field, vals[0])
			continue
		}
		cond, _ := q.Filter[field].(bson.M)
		if cond == nil {
			cond = bson.M{}
		}
		if op == "in" {
			var in []interface{}
			for _, v := range strings.Split(vals[0], ",") {
				in = append(in, convert(field, v))
			}
			cond["$in"] = in
		} else {
			cond["$"+op] = convert(field, vals[0])
		}
		q.Filter[field] = cond
	}

	q.Search = strings.TrimSpace(values.Get("search"))
	q.Sort = parseSort(values.Get("sort"))
	if p, err := strconv.Atoi(values.Get("page")); err == nil && p > 0 {
		q.Page = p
	}
	if l, err := strconv.Atoi(values.Get("limit")); err == nil && l > 0 {
		q.Limit = l
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return q
}

// parseSort turns "price,-createdAt" into a sort document, newest first by default.
func parseSort(raw string) bson.D {
	var out bson.D
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if !sortField.MatchString(f) {
			continue
		}
		if strings.HasPrefix(f, "-") {
			out = append(out, bson.E{Key: f[1:], Value: -1})
		} else {
			out = append(out, bson.E{Key: f, Value: 1})
		}
	}
	if len(out) == 0 {
		return repo.NewestFirst
	}
	return out
}

func convert(field, s string) interface{} {
	s = strings.TrimSpace(s)
	switch fieldKinds[field] {
	case numberField:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case boolField:
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return s
}

func (q ListQuery) filter(searchFields []string) bson.M {
	f := bson.M{}
	for k, v := range q.Filter {
		f[k] = v
	}
	if q.Search != "" {
		re := repo.SearchRegex(q.Search)
		or := make(bson.A, 0, len(searchFields))
		for _, field := range searchFields {
			or = append(or, bson.M{field: re})
		}
		f["$or"] = or
	}
	return f
}

func (q ListQuery) options() repo.ListOptions {
	return repo.ListOptions{Page: q.Page, Limit: q.Limit, Sort: q.Sort}
}

// Pagination links the neighbouring pages of a list response.
func (q ListQuery) Pagination(total int64) map[string]interface{} {
	out := map[string]interface{}{}
	if int64(q.Page*q.Limit) < total {
		out["next"] = map[string]int{"page": q.Page + 1, "limit": q.Limit}
	}
	if q.Page > 1 {
		out["prev"] = map[string]int{"page": q.Page - 1, "limit": q.Limit}
	}
	return out
}
