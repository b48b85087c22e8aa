package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestListOptionsPagesOnlyWithLimit(t *testing.T) {
	opts := ListOptions{Page: 3, Limit: 10, Sort: NewestFirst}.find()
	if assert.NotNil(t, opts.Skip) && assert.NotNil(t, opts.Limit) {
		assert.Equal(t, int64(20), *opts.Skip)
		assert.Equal(t, int64(10), *opts.Limit)
	}
	assert.Equal(t, NewestFirst, opts.Sort)

	all := ListOptions{Sort: bson.D{{Key: "displayOrder", Value: 1}}}.find()
	assert.Nil(t, all.Skip)
	assert.Nil(t, all.Limit)
	assert.Equal(t, bson.D{{Key: "displayOrder", Value: 1}}, all.Sort)
}
