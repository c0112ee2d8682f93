package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dearlyhq/dearly/pkg/dearly/container"
)

func TestBundleSelection(t *testing.T) {
	t.Parallel()

	previews := []container.BundlePreview{{ID: "card-a"}, {ID: "card-b"}, {ID: "card-c"}}

	t.Run("explicit selection passes through", func(t *testing.T) {
		t.Parallel()
		explicit := []string{"card-b"}
		assert.Equal(t, []string{"card-b"}, bundleSelection(previews, explicit, false))
	})

	t.Run("all selects every preview", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"card-a", "card-b", "card-c"}, bundleSelection(previews, nil, true))
	})

	t.Run("all leaves explicit selection intact", func(t *testing.T) {
		t.Parallel()
		explicit := []string{"card-b", "card-c"}
		got := bundleSelection(previews, explicit, true)
		assert.Len(t, got, 3)
		assert.Equal(t, []string{"card-b", "card-c"}, explicit, "--select values must not be overwritten")
	})

	t.Run("no flags yields empty selection", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, bundleSelection(previews, nil, false))
	})
}
