package respcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_Key_IsStable(t *testing.T) {
	c := &Cache{prefix: "fretebot:"}

	a := c.Key([]byte(`{"origem":"29190014","destino":"01000000","peso":0.5}`))
	b := c.Key([]byte(`{"origem":"29190014","destino":"01000000","peso":0.5}`))
	other := c.Key([]byte(`{"origem":"29190014","destino":"01000000","peso":1}`))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, other)
	assert.Contains(t, a, "fretebot:quote:")
}

func TestNew_NilClientDisablesCache(t *testing.T) {
	c := New(nil, "fretebot:", time.Minute, nil)
	assert.Nil(t, c)
}

func TestCache_NilIsSafe(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	_, ok := c.Get(ctx, "fretebot:quote:deadbeef")
	assert.False(t, ok)

	// Set on a nil cache is a no-op, not a panic
	c.Set(ctx, "fretebot:quote:deadbeef", []byte(`{}`))
}
