package scheduler

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalystd/internal/models"
)

func TestTickSkipsWhenPreviousCycleStillRunning(t *testing.T) {
	c := &Cycle{}
	atomic.StoreInt32(&c.running, 1)

	c.tick(context.Background())

	assert.Equal(t, int32(1), c.running, "tick must not clear running when it skipped")
	assert.Equal(t, 0, c.cyclesRun, "a skipped tick must not count as a cycle")
}

type emptyReplayer struct{}

func (emptyReplayer) Next() (models.NewsItem, bool) { return models.NewsItem{}, false }

func TestRunReplayedReturnsImmediatelyWhenQueueIsEmpty(t *testing.T) {
	c := &Cycle{Replayer: emptyReplayer{}}
	err := c.RunReplayed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, c.cyclesRun)
}
