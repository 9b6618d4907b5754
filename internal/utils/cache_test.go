package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheGetSet(t *testing.T) {
	c := NewCache(time.Minute)
	defer c.Stop()

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	c.SetWithTTL("short", "x", -time.Second)
	_, ok = c.Get("short")
	assert.False(t, ok, "expired entries are not returned")

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestCacheDeletePrefix(t *testing.T) {
	c := NewCache(time.Minute)
	defer c.Stop()

	c.Set("admin:a", true)
	c.Set("admin:b", false)
	c.Set("other", true)

	c.DeletePrefix("admin:")
	assert.Equal(t, 1, c.Size())

	c.Clear()
	assert.Equal(t, 0, c.Size())

	c.Stop()
	c.Stop()
}

func TestPermissionCache(t *testing.T) {
	pc := NewPermissionCache(time.Minute)
	defer pc.Close()

	_, ok := pc.GetAdminStatus("a@example.com")
	assert.False(t, ok)

	pc.SetAdminStatus("A@Example.com", true)
	isAdmin, ok := pc.GetAdminStatus("a@example.com")
	assert.True(t, ok)
	assert.True(t, isAdmin)

	pc.InvalidateUser("a@example.com")
	_, ok = pc.GetAdminStatus("a@example.com")
	assert.False(t, ok)

	pc.SetAdminStatus("b@example.com", false)
	pc.Clear()
	_, ok = pc.GetAdminStatus("b@example.com")
	assert.False(t, ok)
}
