package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *Report {
	return &Report{
		Validation: &Validation{
			Filename:      "Grandma-Rose-2024-12-25.dearly",
			FormatVersion: 2,
			Mode:          "single",
			Entries:       4,
			Size:          123456,
			Cards:         1,
			HasHistory:    true,
		},
		History: []HistoryRow{
			{Version: 3, EditedAt: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), Fields: []string{"sender"}},
		},
		Cards: []CardRow{
			{ID: "c-1", Sender: "Grandma Rose", Occasion: "Birthday", Date: time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC), Favorite: true},
		},
		Message: "all good",
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("built-in formatters registered", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"json", "plain", "pretty"}, Available())
	})

	t.Run("unknown formatter", func(t *testing.T) {
		t.Parallel()
		_, err := Get("xml")
		assert.Error(t, err)
	})

	t.Run("register replaces", func(t *testing.T) {
		t.Parallel()
		reg := NewRegistry()
		reg.Register("plain", func() Formatter { return &PlainFormatter{} })
		reg.Register("plain", func() Formatter { return &JSONFormatter{} })

		f, err := reg.Get("plain")
		require.NoError(t, err)
		assert.IsType(t, &JSONFormatter{}, f)
	})
}

func TestJSONFormatter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, sampleReport()))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.NotNil(t, decoded.Validation)
	assert.Equal(t, 2, decoded.Validation.FormatVersion)
	assert.Equal(t, "all good", decoded.Message)
	require.Len(t, decoded.Cards, 1)
	assert.True(t, decoded.Cards[0].Favorite)
}

func TestPlainFormatter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, (&PlainFormatter{}).Format(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "archive: Grandma-Rose-2024-12-25.dearly")
	assert.Contains(t, out, "format version: 2")
	assert.Contains(t, out, "mode: single")
	assert.Contains(t, out, "v3\t")
	assert.Contains(t, out, "Grandma Rose")
	assert.Contains(t, out, "all good")
}

func TestPlainFormatterWarnings(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	report := &Report{Warnings: []string{"historical image missing"}}
	require.NoError(t, (&PlainFormatter{}).Format(&buf, report))
	assert.Contains(t, buf.String(), "warning: historical image missing")
}

func TestPrettyFormatter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "Grandma-Rose-2024-12-25.dearly")
	assert.Contains(t, out, "Grandma Rose")
	assert.NotEmpty(t, out)
}

func TestPrettyFormatterPreviews(t *testing.T) {
	t.Parallel()

	report := &Report{
		Previews: []PreviewRow{
			{ID: "p-1", Sender: "Uncle Joe", Occasion: "Christmas", Date: time.Now(), HasThumbnail: true},
			{ID: "p-2", Date: time.Now()},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, report))
	assert.Contains(t, buf.String(), "Uncle Joe")
	assert.Contains(t, buf.String(), "p-2")
}

func TestFormattersHandleEmptyReport(t *testing.T) {
	t.Parallel()

	for _, name := range Available() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			formatter, err := Get(name)
			require.NoError(t, err)
			var buf bytes.Buffer
			assert.NoError(t, formatter.Format(&buf, &Report{}))
		})
	}
}
