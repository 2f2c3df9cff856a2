package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nawawimhz/surat-generator/models"
)

func TestSessionStoreGet(t *testing.T) {
	st := NewSessionStore(newTestPipeline(t, pipelineOpts{}))

	a, err := st.Get("draft-1", models.LetterDomisili)
	require.NoError(t, err)
	b, err := st.Get("draft-1", models.LetterDomisili)
	require.NoError(t, err)
	c, err := st.Get("draft-1", models.LetterSPKCK)
	require.NoError(t, err)
	d, err := st.Get("draft-2", models.LetterDomisili)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.NotSame(t, a, d)
	assert.Equal(t, 3, st.Len())

	_, err = st.Get("draft-1", models.LetterType("izin"))
	assert.Error(t, err)
}

func TestSessionStoreDiscard(t *testing.T) {
	st := NewSessionStore(newTestPipeline(t, pipelineOpts{}))

	a, err := st.Get("draft-1", models.LetterKematian)
	require.NoError(t, err)
	st.Discard("draft-1", models.LetterKematian)
	assert.Equal(t, 0, st.Len())

	b, err := st.Get("draft-1", models.LetterKematian)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestSessionStoreSweep(t *testing.T) {
	p := newTestPipeline(t, pipelineOpts{})
	now := time.Date(2025, time.April, 21, 10, 0, 0, 0, wib)
	p.Now = func() time.Time { return now }
	st := NewSessionStore(p)

	_, err := st.Get("old", models.LetterSPKCK)
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	fresh, err := st.Get("fresh", models.LetterSPKCK)
	require.NoError(t, err)
	_, err = fresh.Apply(models.SetText(models.FieldNamaLengkap, "Ujang"))
	require.NoError(t, err)

	assert.Equal(t, 1, st.Sweep(time.Hour))
	assert.Equal(t, 1, st.Len())
}
