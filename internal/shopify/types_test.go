package shopify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTags(t *testing.T) {
	assert.Nil(t, ParseTags(""))
	assert.Nil(t, ParseTags("   "))
	assert.Equal(t, []string{"a"}, ParseTags("a"))
	assert.Equal(t, []string{"a", "b", "c"}, ParseTags("a, b, c"))
	assert.Equal(t, []string{"a", "b"}, ParseTags(" a ,, b ,"))
}

func TestJoinTagsRoundTrip(t *testing.T) {
	tags := []string{"loyal", "wholesale", "VIP-Customer"}
	assert.Equal(t, tags, ParseTags(JoinTags(tags)))
}

func TestHasTagExactMatch(t *testing.T) {
	tags := []string{"vip-customer", "VIP-Customer "}
	assert.False(t, HasTag(tags, "VIP-Customer"))
	assert.True(t, HasTag([]string{"a", "VIP-Customer"}, "VIP-Customer"))
}

func TestOrderCustomerID(t *testing.T) {
	_, ok := Order{}.CustomerID()
	assert.False(t, ok)

	_, ok = Order{Customer: &OrderCustomer{}}.CustomerID()
	assert.False(t, ok)

	id, ok := Order{Customer: &OrderCustomer{ID: 7}}.CustomerID()
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)
}
