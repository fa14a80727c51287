package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecheck-backend/internal/catalog"
	"sitecheck-backend/internal/inspection"
	"sitecheck-backend/internal/models"
)

func newController(t *testing.T) *inspection.Controller {
	t.Helper()
	profile, ok := catalog.ProfileFor(models.KindGreasing)
	require.True(t, ok)
	return inspection.NewController(profile, nil, models.Identity{UserID: "u1", CompanyID: "c1"})
}

func TestOpenGetClose(t *testing.T) {
	m := NewManager(time.Minute)
	s := m.Open("u1", newController(t))
	assert.Equal(t, 1, m.Count())

	got, err := m.Get(s.ID, "u1")
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = m.Get(s.ID, "u2")
	assert.ErrorIs(t, err, ErrSessionNotFound, "other users cannot see the session")

	assert.ErrorIs(t, m.Close(s.ID, "u2"), ErrSessionNotFound)
	require.NoError(t, m.Close(s.ID, "u1"))

	_, err = m.Get(s.ID, "u1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Zero(t, m.Count())
}

func TestSessionsExpire(t *testing.T) {
	m := NewManager(20 * time.Millisecond)
	s := m.Open("u1", newController(t))

	time.Sleep(50 * time.Millisecond)
	_, err := m.Get(s.ID, "u1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDoSeesController(t *testing.T) {
	m := NewManager(time.Minute)
	s := m.Open("u1", newController(t))

	err := s.Do(func(c *inspection.Controller) error {
		c.SelectDay(models.Friday)
		return c.SetCheckStatus("slew_ring", models.StatusPass)
	})
	require.NoError(t, err)

	var active models.DayCode
	_ = s.Do(func(c *inspection.Controller) error {
		active = c.ActiveDay()
		return nil
	})
	assert.Equal(t, models.Friday, active)
}

func TestExclusiveRejectsOverlap(t *testing.T) {
	m := NewManager(time.Minute)
	s := m.Open("u1", newController(t))

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.Exclusive(func(*inspection.Controller) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	err := s.Exclusive(func(*inspection.Controller) error { return nil })
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.NoError(t, s.Exclusive(func(*inspection.Controller) error { return nil }))
}
