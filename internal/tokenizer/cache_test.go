package tokenizer

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/go-tokwalk/internal/registry"
)

func TestCache_SlowBuildDoesNotBlockOtherEncodings(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	c := NewCacheWith(func(name string) (Encoder, error) {
		if name == registry.Cl100kBase {
			close(started)
			<-release
		}
		return byteEncoder{name: name}, nil
	})

	slow := make(chan error, 1)
	go func() {
		_, err := c.Get(registry.Cl100kBase)
		slow <- err
	}()
	<-started

	fast := make(chan error, 1)
	go func() {
		_, err := c.Get(registry.R50kBase)
		fast <- err
	}()

	select {
	case err := <-fast:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("r50k_base build waited behind cl100k_base")
	}

	close(release)
	require.NoError(t, <-slow)
}

func TestCache_ConcurrentGetsShareOneBuild(t *testing.T) {
	var builds int32
	release := make(chan struct{})

	c := NewCacheWith(func(name string) (Encoder, error) {
		atomic.AddInt32(&builds, 1)
		<-release
		return byteEncoder{name: name}, nil
	})

	const callers = 8
	results := make([]Encoder, callers)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := c.Get(registry.O200kBase)
			assert.NoError(t, err)
			results[i] = e
		}()
	}

	// Give the callers time to pile up on the in-flight build.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&builds))
	for _, e := range results {
		assert.Equal(t, results[0], e)
	}
}

func TestCache_FailedBuildIsRetried(t *testing.T) {
	calls := 0
	boom := errors.New("download failed")

	c := NewCacheWith(func(name string) (Encoder, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return byteEncoder{name: name}, nil
	})

	_, err := c.Get(registry.P50kBase)
	require.ErrorIs(t, err, boom)

	e, err := c.Get(registry.P50kBase)
	require.NoError(t, err)
	assert.Equal(t, registry.P50kBase, e.Name())
	assert.Equal(t, 2, calls)
}
