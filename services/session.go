package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nawawimhz/surat-generator/config"
	"github.com/nawawimhz/surat-generator/models"
	"github.com/nawawimhz/surat-generator/utils/events"
	"github.com/nawawimhz/surat-generator/utils/sink"
)

type State string

const (
	StateEditing    State = "editing"
	StatePreviewing State = "previewing"
	StatePrinting   State = "printing"
	StateExporting  State = "exporting"
)

// Pipeline bundles the collaborators shared by every letter session.
type Pipeline struct {
	Renderer   *Renderer
	Encoder    QREncoder
	Exporter   sink.Exporter
	Bus        *events.Bus
	Logger     *zap.Logger
	QROrdering string
	Now        func() time.Time
}

// now returns the current time in the configured letter zone so default
// dates land on the same calendar day as the ones users enter.
func (p *Pipeline) now() time.Time {
	t := time.Now()
	if p.Now != nil {
		t = p.Now()
	}
	return t.In(p.Renderer.Config().Timezone.Location())
}

// Artifact is an exported letter file.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Snapshot is a read-only view of a session for the input layer.
type Snapshot struct {
	ID        string        `json:"id"`
	State     State         `json:"state"`
	Record    models.Record `json:"record"`
	Address   LengthCheck   `json:"alamat_lengkap"`
	NIK       LengthCheck   `json:"nik"`
	QRPending bool          `json:"qr_pending"`
}

// LetterSession owns the record of one letter type for one draft. Edits are
// only accepted while editing; a finished document is rendered from a copy
// of the record so later edits never reach a sink mid-flight.
type LetterSession struct {
	id       string
	pipeline *Pipeline
	tpl      LetterTemplate

	mu         sync.Mutex
	state      State
	record     models.Record
	qrSeq      uint64
	qrInFlight int
	qrWG       sync.WaitGroup
	lastUsed   time.Time
}

func (p *Pipeline) NewSession(id string, t models.LetterType) (*LetterSession, error) {
	tpl, err := p.Renderer.Template(t)
	if err != nil {
		return nil, err
	}
	now := p.now()
	return &LetterSession{
		id:       id,
		pipeline: p,
		tpl:      tpl,
		state:    StateEditing,
		record:   models.NewRecord(t, now),
		lastUsed: now,
	}, nil
}

func (s *LetterSession) ID() string { return s.id }

func (s *LetterSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Record returns a copy of the current record.
func (s *LetterSession) Record() models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.Clone()
}

func (s *LetterSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:        s.id,
		State:     s.state,
		Record:    s.record.Clone(),
		Address:   ValidateAddress(s.record.Subject.Address),
		NIK:       ValidateNIK(s.record.Subject.NIK),
		QRPending: s.qrInFlight > 0,
	}
}

func (s *LetterSession) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Apply runs the commands through the reducer as one edit. If any command
// fails the record is left unchanged. When the QR is enabled and a watched
// field changed, a new encoding is started without waiting for it.
func (s *LetterSession) Apply(cmds ...models.Command) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateEditing {
		return s.record.Clone(), transitionError("edit", s.state)
	}

	composer := s.pipeline.Renderer.Composer()
	next := s.record
	dirty := false
	for _, cmd := range cmds {
		n, err := composer.Reduce(next, cmd)
		if err != nil {
			return s.record.Clone(), err
		}
		if s.watched(cmd.Field) {
			dirty = true
		}
		next = n
	}

	s.record = next
	s.lastUsed = s.pipeline.now()

	if !s.record.IncludeQR {
		s.record.QRImage = ""
		s.qrSeq++
	} else if dirty {
		s.scheduleQR()
	}
	return s.record.Clone(), nil
}

func (s *LetterSession) watched(f models.Field) bool {
	for _, w := range s.tpl.WatchedFields() {
		if w == f {
			return true
		}
	}
	return false
}

// scheduleQR starts an encoding of the current payload. A record that can
// no longer carry a QR loses its image and any encoding still running.
// Caller holds s.mu.
func (s *LetterSession) scheduleQR() {
	if !s.tpl.QRReady(s.record) {
		s.record.QRImage = ""
		s.qrSeq++
		return
	}
	payload, err := s.pipeline.Renderer.BuildPayload(s.record)
	if err != nil {
		s.pipeline.Logger.Error("build qr payload", zap.String("session", s.id), zap.Error(err))
		return
	}

	s.qrSeq++
	seq := s.qrSeq
	s.qrInFlight++
	s.qrWG.Add(1)
	go s.encode(seq, payload)
}

func (s *LetterSession) encode(seq uint64, payload string) {
	defer s.qrWG.Done()

	img, err := s.pipeline.Encoder.Encode(context.Background(), payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.qrInFlight--

	event := events.RenderEvent{SessionID: s.id, LetterType: s.record.Type, Err: err}
	switch {
	case err != nil:
		s.pipeline.Logger.Warn("qr encoding failed", zap.String("session", s.id), zap.Uint64("seq", seq), zap.Error(err))
		if s.acceptQR(seq) {
			s.record.QRImage = ""
		}
		event.Type = events.QRFailed
	case !s.acceptQR(seq):
		event.Type = events.QRDiscarded
	default:
		s.record.QRImage = img
		event.Type = events.QREncoded
	}
	s.pipeline.Bus.Publish(event)
}

// acceptQR decides whether the result of encoding seq may replace the
// current image. Caller holds s.mu.
func (s *LetterSession) acceptQR(seq uint64) bool {
	if !s.record.IncludeQR || !s.tpl.QRReady(s.record) {
		return false
	}
	if s.pipeline.QROrdering == config.QROrderingCompletion {
		return true
	}
	return seq == s.qrSeq
}

// WaitQR blocks until every started QR encoding has finished.
func (s *LetterSession) WaitQR() {
	s.qrWG.Wait()
}

// Preview validates the record and renders it. Address overflow keeps the
// session in editing.
func (s *LetterSession) Preview() (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateEditing && s.state != StatePreviewing {
		return Document{}, transitionError("preview", s.state)
	}
	if verr := ValidateRecord(s.record); verr != nil {
		return Document{}, verr
	}

	doc, err := s.pipeline.Renderer.Render(s.record.Clone())
	if err != nil {
		return Document{}, err
	}

	s.state = StatePreviewing
	s.lastUsed = s.pipeline.now()
	s.pipeline.Bus.Publish(events.RenderEvent{Type: events.Previewed, SessionID: s.id, LetterType: s.record.Type})
	return doc, nil
}

// ClosePreview returns to editing.
func (s *LetterSession) ClosePreview() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateEditing, StatePreviewing:
		s.state = StateEditing
		return nil
	default:
		return transitionError("close preview", s.state)
	}
}

// Print hands the previewed document to the print sink and returns the
// page to show in the print window. A QR still being encoded is produced
// synchronously first.
func (s *LetterSession) Print() (string, error) {
	s.mu.Lock()
	if s.state != StatePreviewing {
		state := s.state
		s.mu.Unlock()
		return "", transitionError("print", state)
	}
	s.state = StatePrinting
	rec := s.record.Clone()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state = StatePreviewing
		s.lastUsed = s.pipeline.now()
		s.mu.Unlock()
	}()

	if rec.IncludeQR && rec.QRImage == "" {
		rec.QRImage = s.encodeNow(context.Background(), rec)
	}

	doc, err := s.pipeline.Renderer.Render(rec)
	if err != nil {
		return "", err
	}
	fragment, err := RenderHTML(doc)
	if err != nil {
		return "", err
	}
	page, err := sink.PrintPage(s.pipeline.Renderer.Config().Letter(rec.Type).Title, fragment)
	if err != nil {
		return "", err
	}

	s.pipeline.Bus.Publish(events.RenderEvent{Type: events.Printed, SessionID: s.id, LetterType: rec.Type})
	return page, nil
}

// Export renders the previewed document to a file. Only one export runs per
// session; a second request while one is running returns
// ErrExportInProgress. The session is back in previewing afterwards whether
// the export worked or not.
func (s *LetterSession) Export(ctx context.Context, format string) (Artifact, error) {
	s.mu.Lock()
	switch s.state {
	case StatePreviewing:
	case StateExporting:
		s.mu.Unlock()
		s.pipeline.Bus.Publish(events.RenderEvent{Type: events.ExportRejected, SessionID: s.id, LetterType: s.tpl.Type()})
		return Artifact{}, ErrExportInProgress
	default:
		state := s.state
		s.mu.Unlock()
		return Artifact{}, transitionError("export", state)
	}
	s.state = StateExporting
	rec := s.record.Clone()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state = StatePreviewing
		s.lastUsed = s.pipeline.now()
		s.mu.Unlock()
	}()

	cfg := s.pipeline.Renderer.Config()
	if format == "" {
		format = cfg.Export.Format
	}
	format, err := sink.ParseFormat(format)
	if err != nil {
		return Artifact{}, err
	}

	if rec.IncludeQR && rec.QRImage == "" {
		rec.QRImage = s.encodeNow(ctx, rec)
	}

	doc, err := s.pipeline.Renderer.Render(rec)
	if err != nil {
		return Artifact{}, err
	}
	fragment, err := RenderHTML(doc)
	if err != nil {
		return Artifact{}, err
	}

	opts := sink.ExportOptions{
		Title:    cfg.Letter(rec.Type).Title,
		Filename: s.pipeline.Renderer.Filename(rec, format),
		Format:   format,
		Quality:  cfg.Export.Quality,
	}
	copy(opts.MarginsMM[:], cfg.Export.MarginsMM)

	start := time.Now()
	data, err := s.pipeline.Exporter.Export(ctx, fragment, opts)
	event := events.RenderEvent{SessionID: s.id, LetterType: rec.Type, Seconds: time.Since(start).Seconds(), Err: err}
	if err != nil {
		event.Type = events.ExportFailed
		s.pipeline.Bus.Publish(event)
		s.pipeline.Logger.Error("export failed", zap.String("session", s.id), zap.String("file", opts.Filename), zap.Error(err))
		return Artifact{}, &ExportError{Filename: opts.Filename, Err: err}
	}

	event.Type = events.ExportSucceeded
	s.pipeline.Bus.Publish(event)
	s.pipeline.Logger.Info("letter exported", zap.String("session", s.id), zap.String("file", opts.Filename), zap.Int("bytes", len(data)))
	return Artifact{Filename: opts.Filename, ContentType: opts.ContentType(), Data: data}, nil
}

// encodeNow produces the QR image for a sink that found none. A failure
// leaves the QR region out of the document.
func (s *LetterSession) encodeNow(ctx context.Context, rec models.Record) string {
	if !s.tpl.QRReady(rec) {
		return ""
	}
	payload, err := s.pipeline.Renderer.BuildPayload(rec)
	if err != nil {
		return ""
	}
	img, err := s.pipeline.Encoder.Encode(ctx, payload)
	if err != nil {
		s.pipeline.Logger.Warn("qr encoding failed before render", zap.String("session", s.id), zap.Error(err))
		s.pipeline.Bus.Publish(events.RenderEvent{Type: events.QRFailed, SessionID: s.id, LetterType: rec.Type, Err: err})
		return ""
	}

	s.mu.Lock()
	if s.record.IncludeQR && s.record.QRImage == "" {
		s.record.QRImage = img
	}
	s.mu.Unlock()
	return img
}

// Reset discards the record and starts over with a fresh one.
func (s *LetterSession) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateExporting {
		return ErrExportInProgress
	}
	now := s.pipeline.now()
	s.record = models.NewRecord(s.tpl.Type(), now)
	s.state = StateEditing
	s.qrSeq++
	s.lastUsed = now
	return nil
}
