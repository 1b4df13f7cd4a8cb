package cronrunner

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvery(t *testing.T) {
	assert.Equal(t, "@every 30s", Every(30*time.Second))
	assert.Equal(t, "@every 1s", Every(10*time.Millisecond))
}

func TestRunnerRunsJobWithBaseContext(t *testing.T) {
	type key struct{}
	base := context.WithValue(context.Background(), key{}, "base")
	r := New(nil, base)

	var runs atomic.Int32
	seen := make(chan any, 1)
	_, err := r.Add(Every(time.Second), func(ctx context.Context) {
		if runs.Add(1) == 1 {
			seen <- ctx.Value(key{})
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	r.Start()
	defer r.Stop()

	select {
	case v := <-seen:
		assert.Equal(t, "base", v)
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestRunnerRejectsBadSpec(t *testing.T) {
	r := New(nil, nil)
	_, err := r.Add("not a spec", func(context.Context) {})
	assert.Error(t, err)
}
