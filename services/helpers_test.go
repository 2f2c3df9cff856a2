package services

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nawawimhz/surat-generator/config"
	"github.com/nawawimhz/surat-generator/utils/events"
	"github.com/nawawimhz/surat-generator/utils/sink"
)

var wib = time.FixedZone("WIB", 7*3600)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, wib)
}

func ptr(t time.Time) *time.Time { return &t }

func testConfig(t *testing.T) *config.LetterConfig {
	t.Helper()
	cfg, err := config.DefaultLetterConfig()
	require.NoError(t, err)
	return cfg
}

// fakeEncoder returns the payload itself wrapped as a data URI. Encodings
// whose payload contains a blocked key wait until the key is released.
type fakeEncoder struct {
	mu      sync.Mutex
	calls   []string
	blocked map[string]chan struct{}
	once    map[string]bool
	held    map[string]chan struct{}
	fail    error
}

func newFakeEncoder() *fakeEncoder {
	return &fakeEncoder{
		blocked: map[string]chan struct{}{},
		once:    map[string]bool{},
		held:    map[string]chan struct{}{},
	}
}

func (f *fakeEncoder) Block(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocked[key] = make(chan struct{})
}

// BlockOnce holds only the first encoding containing key.
func (f *fakeEncoder) BlockOnce(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocked[key] = make(chan struct{})
	f.once[key] = true
}

func (f *fakeEncoder) Release(key string) {
	f.mu.Lock()
	ch := f.blocked[key]
	if ch == nil {
		ch = f.held[key]
	}
	delete(f.blocked, key)
	delete(f.held, key)
	f.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}

func (f *fakeEncoder) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = err
}

func (f *fakeEncoder) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeEncoder) Encode(ctx context.Context, text string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	var gate chan struct{}
	for key, ch := range f.blocked {
		if !strings.Contains(text, key) {
			continue
		}
		gate = ch
		if f.once[key] {
			delete(f.blocked, key)
			delete(f.once, key)
			f.held[key] = ch
		}
	}
	fail := f.fail
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if fail != nil {
		return "", fail
	}
	return fakeImage(text), nil
}

func fakeImage(payload string) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte(payload))
}

// fakeExporter records the fragments it was given. When started is set it
// signals entry and waits on release before returning.
type fakeExporter struct {
	mu        sync.Mutex
	fragments []string
	options   []sink.ExportOptions
	started   chan struct{}
	release   chan struct{}
	err       error
}

func (f *fakeExporter) Export(ctx context.Context, fragment string, opts sink.ExportOptions) ([]byte, error) {
	f.mu.Lock()
	f.fragments = append(f.fragments, fragment)
	f.options = append(f.options, opts)
	started, release, err := f.started, f.release, f.err
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
		<-release
	}
	if err != nil {
		return nil, err
	}
	return []byte("%PDF-fake"), nil
}

func (f *fakeExporter) Fragments() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fragments...)
}

var errChromeDown = errors.New("chrome is not reachable")

type pipelineOpts struct {
	encoder  QREncoder
	exporter sink.Exporter
	ordering string
	bus      *events.Bus
}

func newTestPipeline(t *testing.T, o pipelineOpts) *Pipeline {
	t.Helper()
	if o.encoder == nil {
		o.encoder = newFakeEncoder()
	}
	if o.exporter == nil {
		o.exporter = &fakeExporter{}
	}
	if o.ordering == "" {
		o.ordering = config.QROrderingRequest
	}
	now := time.Date(2025, time.April, 21, 10, 0, 0, 0, wib)
	return &Pipeline{
		Renderer:   NewRenderer(testConfig(t)),
		Encoder:    o.encoder,
		Exporter:   o.exporter,
		Bus:        o.bus,
		Logger:     zap.NewNop(),
		QROrdering: o.ordering,
		Now:        func() time.Time { return now },
	}
}
