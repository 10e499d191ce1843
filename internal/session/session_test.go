package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PizzaHomicide/kasumi/internal/domain"
)

func TestChangeFeedKeepsLatestWhenFull(t *testing.T) {
	feed := newChangeFeed()

	// Publish well past the buffer capacity without anyone draining
	for i := 0; i < 20; i++ {
		feed.publish(&domain.User{ID: fmt.Sprintf("user-%d", i)})
	}

	var last domain.User
	received := 0
	for {
		select {
		case user := <-feed.Changes():
			last = user
			received++
			continue
		default:
		}
		break
	}

	assert.NotZero(t, received)
	assert.Equal(t, "user-19", last.ID, "The newest snapshot must survive a full buffer")
}

func TestChangeFeedDeliversLogoutAsZeroUser(t *testing.T) {
	feed := newChangeFeed()

	feed.publish(&domain.User{ID: "u1"})
	feed.publish(nil)

	first := <-feed.Changes()
	assert.Equal(t, "u1", first.ID)

	second := <-feed.Changes()
	assert.Empty(t, second.ID)
}
