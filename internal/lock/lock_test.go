package lock

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sop-infra/sopctl/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_LocalExcludesSameKey(t *testing.T) {
	l := NewLocal()

	unlock, err := l.Lock(context.Background(), "main")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = l.Lock(ctx, "main")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := l.Lock(context.Background(), "lab")
	require.NoError(t, err)
	other()

	unlock()
	unlock()

	again, err := l.Lock(context.Background(), "main")
	require.NoError(t, err)
	again()
}

func Test_LocalWaitsForRelease(t *testing.T) {
	l := NewLocal()

	unlock, err := l.Lock(context.Background(), "main")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		second, err := l.Lock(context.Background(), "main")
		if err == nil {
			second()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("lock acquired twice")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	<-acquired
}

func Test_NewWithoutEndpoints(t *testing.T) {
	locker, closeFn, err := New(config.Lock{}, logrus.NewEntry(logrus.New()))
	require.NoError(t, err)

	assert.IsType(t, &Local{}, locker)
	assert.NoError(t, closeFn())
}
