package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobsRoundTrip(t *testing.T) {
	t.Parallel()

	blobs, err := NewBlobs(t.TempDir())
	require.NoError(t, err)

	data := []byte("image bytes")
	require.NoError(t, blobs.Put("card-1/front.jpg", data))

	got, err := blobs.Get("card-1/front.jpg")
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.True(t, blobs.Exists("card-1/front.jpg"))
}

func TestBlobsNestedKeys(t *testing.T) {
	t.Parallel()

	blobs, err := NewBlobs(t.TempDir())
	require.NoError(t, err)

	key := "card-1/versions/v3/insideLeft.jpg"
	require.NoError(t, blobs.Put(key, []byte("historical")))

	got, err := blobs.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("historical"), got)
}

func TestBlobsGetMissing(t *testing.T) {
	t.Parallel()

	blobs, err := NewBlobs(t.TempDir())
	require.NoError(t, err)

	_, err = blobs.Get("nope/front.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, blobs.Exists("nope/front.jpg"))
}

func TestBlobsOverwrite(t *testing.T) {
	t.Parallel()

	blobs, err := NewBlobs(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, blobs.Put("k", []byte("first")))
	require.NoError(t, blobs.Put("k", []byte("second")))

	got, err := blobs.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestBlobsDelete(t *testing.T) {
	t.Parallel()

	blobs, err := NewBlobs(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, blobs.Put("card-1/back.jpg", []byte("x")))
	require.NoError(t, blobs.Delete("card-1/back.jpg"))
	assert.False(t, blobs.Exists("card-1/back.jpg"))

	// Deleting an absent blob is not an error.
	require.NoError(t, blobs.Delete("card-1/back.jpg"))
}

func TestBlobsDeletePrefix(t *testing.T) {
	t.Parallel()

	blobs, err := NewBlobs(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, blobs.Put("card-1/front.jpg", []byte("a")))
	require.NoError(t, blobs.Put("card-1/versions/v1/front.jpg", []byte("b")))
	require.NoError(t, blobs.Put("card-2/front.jpg", []byte("c")))

	require.NoError(t, blobs.DeletePrefix("card-1"))
	assert.False(t, blobs.Exists("card-1/front.jpg"))
	assert.False(t, blobs.Exists("card-1/versions/v1/front.jpg"))
	assert.True(t, blobs.Exists("card-2/front.jpg"))
}

func TestBlobsRejectsEscapingKeys(t *testing.T) {
	t.Parallel()

	blobs, err := NewBlobs(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../outside", "../../etc/passwd", "/absolute"} {
		t.Run(key, func(t *testing.T) {
			t.Parallel()
			assert.Error(t, blobs.Put(key, []byte("x")), "key %q must be rejected", key)
		})
	}
}
