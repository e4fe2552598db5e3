package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRefreshSession_Expired(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := &RefreshSession{CreatedAt: created, ExpiresIn: 60}

	assert.Equal(t, created.Add(time.Minute), s.ExpiresAt())
	assert.False(t, s.Expired(created))
	assert.False(t, s.Expired(created.Add(59*time.Second)))
	assert.True(t, s.Expired(created.Add(60*time.Second)), "boundary is exclusive")
	assert.True(t, s.Expired(created.Add(time.Hour)))
}

func TestUserUpdate_Empty(t *testing.T) {
	assert.True(t, UserUpdate{}.Empty())

	name := "Ada"
	assert.False(t, UserUpdate{FullName: &name}.Empty())

	off := false
	assert.False(t, UserUpdate{IsActive: &off}.Empty())
}
