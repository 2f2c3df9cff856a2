package services

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nawawimhz/surat-generator/config"
	"github.com/nawawimhz/surat-generator/models"
	"github.com/nawawimhz/surat-generator/utils/events"
)

// qrText decodes an image produced by fakeEncoder back to its payload.
func qrText(img string) string {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(img, "data:image/png;base64,"))
	if err != nil {
		return ""
	}
	return string(raw)
}

func newSession(t *testing.T, p *Pipeline, lt models.LetterType) *LetterSession {
	t.Helper()
	s, err := p.NewSession("draft-1", lt)
	require.NoError(t, err)
	return s
}

func TestSessionStartsEditingWithDefaults(t *testing.T) {
	p := newTestPipeline(t, pipelineOpts{})
	s := newSession(t, p, models.LetterDomisili)

	assert.Equal(t, StateEditing, s.State())
	rec := s.Record()
	require.NotNil(t, rec.IssueDate)
	require.NotNil(t, rec.Domicile.ExpiryDate)
	assert.Equal(t, rec.IssueDate.Add(models.ExpiryPeriod), *rec.Domicile.ExpiryDate)
}

func TestSessionApplyIsAtomic(t *testing.T) {
	p := newTestPipeline(t, pipelineOpts{})
	s := newSession(t, p, models.LetterSPKCK)

	_, err := s.Apply(
		models.SetText(models.FieldNamaLengkap, "Ujang"),
		models.SetText(models.FieldAgama, "Islam"),
	)
	assert.ErrorIs(t, err, ErrFieldNotApplicable)
	assert.Empty(t, s.Record().Subject.FullName)
}

func TestSessionPreviewBlocksLongAddress(t *testing.T) {
	p := newTestPipeline(t, pipelineOpts{})
	s := newSession(t, p, models.LetterKematian)

	_, err := s.Apply(models.SetText(models.FieldAlamatLengkap, strings.Repeat("a", 121)))
	require.NoError(t, err)

	_, err = s.Preview()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, StateEditing, s.State())

	snap := s.Snapshot()
	assert.False(t, snap.Address.OK)
	assert.Equal(t, "Alamat terlalu panjang! Kurangi 1 karakter.", snap.Address.Guidance())
}

func TestSessionTransitions(t *testing.T) {
	p := newTestPipeline(t, pipelineOpts{})
	s := newSession(t, p, models.LetterSPKCK)

	_, err := s.Print()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = s.Export(context.Background(), "pdf")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = s.Preview()
	require.NoError(t, err)
	assert.Equal(t, StatePreviewing, s.State())

	_, err = s.Apply(models.SetText(models.FieldNamaLengkap, "Ujang"))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, s.ClosePreview())
	assert.Equal(t, StateEditing, s.State())

	_, err = s.Apply(models.SetText(models.FieldNamaLengkap, "Ujang"))
	require.NoError(t, err)
}

func TestSessionPrint(t *testing.T) {
	p := newTestPipeline(t, pipelineOpts{})
	s := newSession(t, p, models.LetterSPKCK)

	_, err := s.Preview()
	require.NoError(t, err)

	page, err := s.Print()
	require.NoError(t, err)
	assert.Contains(t, page, "<title>Surat Pengantar SKCK</title>")
	assert.Contains(t, page, `id="surat-content"`)
	assert.Contains(t, page, "window.print()")
	assert.Equal(t, StatePreviewing, s.State())
}

func TestSessionQRToggle(t *testing.T) {
	enc := newFakeEncoder()
	p := newTestPipeline(t, pipelineOpts{encoder: enc})
	s := newSession(t, p, models.LetterSPKCK)

	_, err := s.Apply(models.SetText(models.FieldNamaLengkap, "Ujang Supriatna"))
	require.NoError(t, err)
	assert.Empty(t, enc.Calls())

	_, err = s.Apply(models.SetFlag(models.FieldIncludeQR, true))
	require.NoError(t, err)
	s.WaitQR()

	rec := s.Record()
	payload, err := p.Renderer.BuildPayload(rec)
	require.NoError(t, err)
	assert.Equal(t, fakeImage(payload), rec.QRImage)

	doc, err := s.Preview()
	require.NoError(t, err)
	assert.True(t, doc.HasQR())
	require.NoError(t, s.ClosePreview())

	_, err = s.Apply(models.SetFlag(models.FieldIncludeQR, false))
	require.NoError(t, err)
	assert.Empty(t, s.Record().QRImage)

	doc, err = s.Preview()
	require.NoError(t, err)
	assert.False(t, doc.HasQR())
}

func TestSessionUnwatchedFieldDoesNotReencode(t *testing.T) {
	enc := newFakeEncoder()
	p := newTestPipeline(t, pipelineOpts{encoder: enc})
	s := newSession(t, p, models.LetterSPKCK)

	_, err := s.Apply(models.SetFlag(models.FieldIncludeQR, true))
	require.NoError(t, err)
	s.WaitQR()
	require.Len(t, enc.Calls(), 1)

	_, err = s.Apply(models.SetText(models.FieldPekerjaan, "Petani"))
	require.NoError(t, err)
	s.WaitQR()
	assert.Len(t, enc.Calls(), 1)

	_, err = s.Apply(models.SetText(models.FieldNIK, "3201012345678901"))
	require.NoError(t, err)
	s.WaitQR()
	assert.Len(t, enc.Calls(), 2)
}

func TestSessionDomisiliQRNeedsExpiry(t *testing.T) {
	enc := newFakeEncoder()
	p := newTestPipeline(t, pipelineOpts{encoder: enc})
	s := newSession(t, p, models.LetterDomisili)

	_, err := s.Apply(
		models.ClearField(models.FieldTanggalExpired),
		models.SetFlag(models.FieldIncludeQR, true),
	)
	require.NoError(t, err)
	s.WaitQR()
	assert.Empty(t, enc.Calls())
	assert.Empty(t, s.Record().QRImage)

	_, err = s.Apply(models.SetDate(models.FieldTanggalExpired, day(2026, 4, 21)))
	require.NoError(t, err)
	s.WaitQR()
	assert.Len(t, enc.Calls(), 1)
	assert.Contains(t, qrText(s.Record().QRImage), "Expired: 21 April 2026")
}

func TestSessionQRFailureRendersWithoutQR(t *testing.T) {
	enc := newFakeEncoder()
	enc.FailWith(errors.New("encoder offline"))
	p := newTestPipeline(t, pipelineOpts{encoder: enc})
	s := newSession(t, p, models.LetterKematian)

	_, err := s.Apply(models.SetFlag(models.FieldIncludeQR, true))
	require.NoError(t, err)
	s.WaitQR()

	assert.True(t, s.Record().IncludeQR)
	assert.Empty(t, s.Record().QRImage)

	doc, err := s.Preview()
	require.NoError(t, err)
	assert.False(t, doc.HasQR())
}

// Two encodings overlap: the first (Budi) is held back until the second
// (Siti) has landed.
func raceTwoEncodings(t *testing.T, ordering string) *LetterSession {
	t.Helper()
	enc := newFakeEncoder()
	p := newTestPipeline(t, pipelineOpts{encoder: enc, ordering: ordering})
	s := newSession(t, p, models.LetterSPKCK)

	_, err := s.Apply(models.SetText(models.FieldNamaLengkap, "Budi"))
	require.NoError(t, err)

	enc.Block("Budi")
	_, err = s.Apply(models.SetFlag(models.FieldIncludeQR, true))
	require.NoError(t, err)
	_, err = s.Apply(models.SetText(models.FieldNamaLengkap, "Siti"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return strings.Contains(qrText(s.Record().QRImage), "Nama: Siti")
	}, time.Second, 5*time.Millisecond)
	assert.True(t, s.Snapshot().QRPending)

	enc.Release("Budi")
	s.WaitQR()
	assert.False(t, s.Snapshot().QRPending)
	return s
}

func TestSessionQRLatestRequestWins(t *testing.T) {
	s := raceTwoEncodings(t, config.QROrderingRequest)
	assert.Contains(t, qrText(s.Record().QRImage), "Nama: Siti")
}

func TestSessionQRLastCompletionWins(t *testing.T) {
	s := raceTwoEncodings(t, config.QROrderingCompletion)
	assert.Contains(t, qrText(s.Record().QRImage), "Nama: Budi")
}

func TestSessionQRResultDroppedAfterToggleOff(t *testing.T) {
	enc := newFakeEncoder()
	p := newTestPipeline(t, pipelineOpts{encoder: enc, ordering: config.QROrderingCompletion})
	s := newSession(t, p, models.LetterSPKCK)

	enc.Block("SKCK")
	_, err := s.Apply(models.SetFlag(models.FieldIncludeQR, true))
	require.NoError(t, err)
	_, err = s.Apply(models.SetFlag(models.FieldIncludeQR, false))
	require.NoError(t, err)

	enc.Release("SKCK")
	s.WaitQR()
	assert.Empty(t, s.Record().QRImage)
}

func TestSessionExport(t *testing.T) {
	exp := &fakeExporter{}
	p := newTestPipeline(t, pipelineOpts{exporter: exp})
	s := newSession(t, p, models.LetterSPKCK)

	_, err := s.Apply(models.SetText(models.FieldNamaLengkap, "Ujang Supriatna"))
	require.NoError(t, err)
	_, err = s.Preview()
	require.NoError(t, err)

	art, err := s.Export(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Surat_Pengantar_SKCK_Ujang Supriatna.pdf", art.Filename)
	assert.Equal(t, "application/pdf", art.ContentType)
	assert.Equal(t, []byte("%PDF-fake"), art.Data)
	assert.Equal(t, StatePreviewing, s.State())

	require.Len(t, exp.options, 1)
	opts := exp.options[0]
	assert.Equal(t, "Surat Pengantar SKCK", opts.Title)
	assert.Equal(t, [4]float64{15, 15, 15, 15}, opts.MarginsMM)
	assert.InDelta(t, 0.98, opts.Quality, 1e-9)
	assert.Contains(t, exp.Fragments()[0], "Ujang Supriatna")

	art, err = s.Export(context.Background(), "jpg")
	require.NoError(t, err)
	assert.Equal(t, "Surat_Pengantar_SKCK_Ujang Supriatna.jpeg", art.Filename)
	assert.Equal(t, "image/jpeg", art.ContentType)

	_, err = s.Export(context.Background(), "docx")
	assert.Error(t, err)
	assert.Equal(t, StatePreviewing, s.State())
}

func TestSessionConcurrentExportIsRejected(t *testing.T) {
	exp := &fakeExporter{started: make(chan struct{}), release: make(chan struct{})}
	p := newTestPipeline(t, pipelineOpts{exporter: exp})
	s := newSession(t, p, models.LetterKematian)

	_, err := s.Preview()
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() {
		_, err := s.Export(context.Background(), "pdf")
		errc <- err
	}()
	<-exp.started

	assert.Equal(t, StateExporting, s.State())
	_, err = s.Export(context.Background(), "pdf")
	assert.ErrorIs(t, err, ErrExportInProgress)
	assert.ErrorIs(t, s.Reset(), ErrExportInProgress)
	_, err = s.Apply(models.SetText(models.FieldNamaLengkap, "x"))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	close(exp.release)
	require.NoError(t, <-errc)
	assert.Equal(t, StatePreviewing, s.State())
	assert.Len(t, exp.Fragments(), 1)
}

func TestSessionExportFailureReleasesGate(t *testing.T) {
	exp := &fakeExporter{err: errChromeDown}
	p := newTestPipeline(t, pipelineOpts{exporter: exp})
	s := newSession(t, p, models.LetterSPKCK)

	_, err := s.Preview()
	require.NoError(t, err)

	_, err = s.Export(context.Background(), "pdf")
	var exportErr *ExportError
	require.True(t, errors.As(err, &exportErr))
	assert.Equal(t, "Surat_Pengantar_SKCK_Draft.pdf", exportErr.Filename)
	assert.ErrorIs(t, err, errChromeDown)
	assert.Equal(t, StatePreviewing, s.State())

	_, err = s.Export(context.Background(), "pdf")
	assert.ErrorIs(t, err, errChromeDown)
	assert.Len(t, exp.Fragments(), 2)
}

func TestSessionExportEncodesMissingQR(t *testing.T) {
	enc := newFakeEncoder()
	enc.FailWith(errors.New("encoder offline"))
	exp := &fakeExporter{}
	p := newTestPipeline(t, pipelineOpts{encoder: enc, exporter: exp})
	s := newSession(t, p, models.LetterSPKCK)

	_, err := s.Apply(models.SetFlag(models.FieldIncludeQR, true))
	require.NoError(t, err)
	s.WaitQR()
	require.Empty(t, s.Record().QRImage)

	_, err = s.Preview()
	require.NoError(t, err)

	enc.FailWith(nil)
	_, err = s.Export(context.Background(), "pdf")
	require.NoError(t, err)
	assert.Contains(t, exp.Fragments()[0], "qr-code-signature")
	assert.NotEmpty(t, s.Record().QRImage)
}

func TestSessionReset(t *testing.T) {
	p := newTestPipeline(t, pipelineOpts{})
	s := newSession(t, p, models.LetterDomisili)

	_, err := s.Apply(models.SetText(models.FieldNamaLengkap, "Ujang"), models.ClearField(models.FieldTanggalExpired))
	require.NoError(t, err)
	_, err = s.Preview()
	require.NoError(t, err)

	require.NoError(t, s.Reset())
	assert.Equal(t, StateEditing, s.State())
	rec := s.Record()
	assert.Empty(t, rec.Subject.FullName)
	assert.NotNil(t, rec.Domicile.ExpiryDate)
}

func TestSessionPublishesEvents(t *testing.T) {
	bus := events.NewBus(16)
	p := newTestPipeline(t, pipelineOpts{bus: bus})
	s := newSession(t, p, models.LetterSPKCK)

	_, err := s.Apply(models.SetFlag(models.FieldIncludeQR, true))
	require.NoError(t, err)
	s.WaitQR()
	_, err = s.Preview()
	require.NoError(t, err)
	_, err = s.Export(context.Background(), "pdf")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	seen := make(chan events.RenderEventType, 16)
	go bus.Run(ctx, func(e events.RenderEvent) { seen <- e.Type })
	defer cancel()

	var got []events.RenderEventType
	for i := 0; i < 3; i++ {
		select {
		case typ := <-seen:
			got = append(got, typ)
		case <-time.After(time.Second):
			t.Fatalf("only %d events received", len(got))
		}
	}
	assert.Equal(t, []events.RenderEventType{events.QREncoded, events.Previewed, events.ExportSucceeded}, got)
}

func TestSessionPrintEncodesPendingQR(t *testing.T) {
	enc := newFakeEncoder()
	p := newTestPipeline(t, pipelineOpts{encoder: enc})
	s := newSession(t, p, models.LetterSPKCK)

	enc.BlockOnce("Ujang")
	_, err := s.Apply(
		models.SetText(models.FieldNamaLengkap, "Ujang"),
		models.SetFlag(models.FieldIncludeQR, true),
	)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(enc.Calls()) == 1 }, time.Second, 5*time.Millisecond)

	_, err = s.Preview()
	require.NoError(t, err)

	page, err := s.Print()
	require.NoError(t, err)
	assert.Contains(t, page, `class="qr-code-signature"`)
	assert.Equal(t, StatePreviewing, s.State())

	enc.Release("Ujang")
	s.WaitQR()
	assert.Contains(t, qrText(s.Record().QRImage), "Nama: Ujang")
}

func TestSessionDefaultDatesUseLetterZone(t *testing.T) {
	p := newTestPipeline(t, pipelineOpts{})
	p.Now = func() time.Time { return time.Date(2025, time.April, 10, 20, 0, 0, 0, time.UTC) }
	s := newSession(t, p, models.LetterDomisili)

	rec := s.Record()
	require.NotNil(t, rec.IssueDate)
	assert.Equal(t, 11, rec.IssueDate.Day())
	_, offset := rec.IssueDate.Zone()
	assert.Equal(t, 7*3600, offset)

	payload, err := p.Renderer.BuildPayload(rec)
	require.NoError(t, err)
	assert.Contains(t, payload, "Terbit: 11 April 2025")
	assert.Contains(t, payload, "Expired: 11 April 2026")

	require.NoError(t, s.Reset())
	assert.Equal(t, 11, s.Record().IssueDate.Day())
}

func TestSessionClearingExpiryDropsQR(t *testing.T) {
	enc := newFakeEncoder()
	p := newTestPipeline(t, pipelineOpts{encoder: enc})
	s := newSession(t, p, models.LetterDomisili)

	_, err := s.Apply(
		models.SetText(models.FieldNamaLengkap, "Ujang"),
		models.SetFlag(models.FieldIncludeQR, true),
	)
	require.NoError(t, err)
	s.WaitQR()
	require.Contains(t, qrText(s.Record().QRImage), "Expired: 21 April 2026")

	_, err = s.Apply(models.ClearField(models.FieldTanggalExpired))
	require.NoError(t, err)
	assert.Empty(t, s.Record().QRImage)

	doc, err := s.Preview()
	require.NoError(t, err)
	assert.False(t, doc.HasQR())
}

func TestSessionInFlightQRIgnoredAfterExpiryCleared(t *testing.T) {
	for _, ordering := range []string{config.QROrderingRequest, config.QROrderingCompletion} {
		t.Run(ordering, func(t *testing.T) {
			enc := newFakeEncoder()
			p := newTestPipeline(t, pipelineOpts{encoder: enc, ordering: ordering})
			s := newSession(t, p, models.LetterDomisili)

			enc.Block("Ujang")
			_, err := s.Apply(
				models.SetText(models.FieldNamaLengkap, "Ujang"),
				models.SetFlag(models.FieldIncludeQR, true),
			)
			require.NoError(t, err)
			_, err = s.Apply(models.ClearField(models.FieldTanggalExpired))
			require.NoError(t, err)

			enc.Release("Ujang")
			s.WaitQR()
			assert.Empty(t, s.Record().QRImage)
		})
	}
}
