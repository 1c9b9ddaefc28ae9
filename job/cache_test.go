package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJobCacheInsertAndGet(t *testing.T) {
	c := newJobCache(time.Hour, time.Hour, nil)
	c.Insert("fp1", Job{Fingerprint: "fp1", PublicID: "pub1", State: StateQueued})

	j, ok := c.Get("fp1")
	require.True(t, ok)
	require.Equal(t, "pub1", j.PublicID)

	_, ok = c.Get("missing")
	require.False(t, ok)
}

func TestJobCacheUpdateMergesIntoExistingEntry(t *testing.T) {
	c := newJobCache(time.Hour, time.Hour, nil)
	c.Insert("fp1", Job{Fingerprint: "fp1", State: StateQueued})

	updated, ok := c.Update("fp1", func(j *Job) {
		j.State = StateDownloading
		j.OutputSize = 42
	})
	require.True(t, ok)
	require.Equal(t, StateDownloading, updated.State)
	require.EqualValues(t, 42, updated.OutputSize)

	j, _ := c.Get("fp1")
	require.Equal(t, StateDownloading, j.State)
	require.EqualValues(t, 42, j.OutputSize)
}

func TestJobCacheUpdateOnMissingKeyIsNoop(t *testing.T) {
	c := newJobCache(time.Hour, time.Hour, nil)
	_, ok := c.Update("nope", func(j *Job) { j.State = StateError })
	require.False(t, ok)
}

func TestJobCacheFindByPublicID(t *testing.T) {
	c := newJobCache(time.Hour, time.Hour, nil)
	c.Insert("fp1", Job{Fingerprint: "fp1", PublicID: "pub-a"})
	c.Insert("fp2", Job{Fingerprint: "fp2", PublicID: "pub-b"})

	fp, j, ok := c.FindByPublicID("pub-b")
	require.True(t, ok)
	require.Equal(t, "fp2", fp)
	require.Equal(t, "pub-b", j.PublicID)

	_, _, ok = c.FindByPublicID("pub-missing")
	require.False(t, ok)
}

func TestJobCacheFindByPublicIDOrFingerprintPrefersDirectHit(t *testing.T) {
	c := newJobCache(time.Hour, time.Hour, nil)
	c.Insert("fp1", Job{Fingerprint: "fp1", PublicID: "pub-a"})

	j, ok := c.FindByPublicIDOrFingerprint("fp1")
	require.True(t, ok)
	require.Equal(t, "pub-a", j.PublicID)

	j, ok = c.FindByPublicIDOrFingerprint("pub-a")
	require.True(t, ok)
	require.Equal(t, "fp1", j.Fingerprint)
}

func TestJobCacheLen(t *testing.T) {
	c := newJobCache(time.Hour, time.Hour, nil)
	require.Equal(t, 0, c.Len())
	c.Insert("fp1", Job{Fingerprint: "fp1"})
	c.Insert("fp2", Job{Fingerprint: "fp2"})
	require.Equal(t, 2, c.Len())
}

func TestJobCacheEvictionFiresOnEvictedCallback(t *testing.T) {
	evicted := make(chan string, 1)
	c := newJobCache(20*time.Millisecond, 10*time.Millisecond, func(fingerprint string, j Job) {
		evicted <- fingerprint
	})
	c.Insert("fp1", Job{Fingerprint: "fp1", TempDir: "/tmp/doesnotmatter"})

	select {
	case fp := <-evicted:
		require.Equal(t, "fp1", fp)
	case <-time.After(2 * time.Second):
		t.Fatal("expected eviction callback to fire")
	}
	_, ok := c.Get("fp1")
	require.False(t, ok)
}

func TestJobCachePurgeForcesExpiredSweep(t *testing.T) {
	evicted := make(chan string, 1)
	c := newJobCache(time.Millisecond, time.Hour, func(fingerprint string, j Job) {
		evicted <- fingerprint
	})
	c.Insert("fp1", Job{Fingerprint: "fp1"})
	time.Sleep(5 * time.Millisecond)

	c.Purge()

	select {
	case fp := <-evicted:
		require.Equal(t, "fp1", fp)
	case <-time.After(time.Second):
		t.Fatal("expected Purge to trigger eviction callback")
	}
}
