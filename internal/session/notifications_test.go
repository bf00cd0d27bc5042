package session

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/mysa/internal/domain"
	"github.com/MrSnakeDoc/mysa/internal/scheduler"
)

func TestNotificationsRingOverwritesOldest(t *testing.T) {
	n := NewNotifications(3)
	for i := 1; i <= 5; i++ {
		n.Add(Notification{Message: fmt.Sprintf("m%d", i)})
	}

	list := n.List(0)
	require.Len(t, list, 3)
	assert.Equal(t, "m3", list[0].Message)
	assert.Equal(t, "m5", list[2].Message)
	assert.Equal(t, uint64(5), list[2].Seq)
	assert.False(t, list[0].At.IsZero())
}

func TestNotificationsSince(t *testing.T) {
	n := NewNotifications(10)
	n.Add(Notification{Message: "a"})
	n.Add(Notification{Message: "b"})
	n.Add(Notification{Message: "c"})

	list := n.List(2)
	require.Len(t, list, 1)
	assert.Equal(t, "c", list[0].Message)

	assert.Empty(t, n.List(3))
}

func TestNotificationsDefaultSize(t *testing.T) {
	n := NewNotifications(0)
	for i := 0; i < DefaultNotificationBuffer+5; i++ {
		n.Add(Notification{Message: "x"})
	}
	assert.Len(t, n.List(0), DefaultNotificationBuffer)
}

func TestNotificationsOnFailure(t *testing.T) {
	n := NewNotifications(2)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	entry := domain.NewEntry(domain.FilePath("/gone"), 1)

	n.OnFailure(scheduler.Failure{
		ChainID: "chain-1",
		Entry:   entry,
		Firing:  3,
		At:      at,
		Err:     &domain.OpenError{Ref: entry.Ref, Err: errors.New("file does not exist")},
	})

	list := n.List(0)
	require.Len(t, list, 1)
	assert.Equal(t, "chain-1", list[0].ChainID)
	assert.Equal(t, entry.ID, list[0].EntryID)
	assert.Equal(t, 3, list[0].Firing)
	assert.Equal(t, at, list[0].At)
	assert.Contains(t, list[0].Message, "/gone")
}
