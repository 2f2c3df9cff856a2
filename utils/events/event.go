package events

import (
	"context"

	"github.com/nawawimhz/surat-generator/models"
)

// RenderEventType mendefinisikan jenis event pada siklus render surat
type RenderEventType string

const (
	QREncoded       RenderEventType = "QREncoded"
	QRFailed        RenderEventType = "QRFailed"
	QRDiscarded     RenderEventType = "QRDiscarded"
	Previewed       RenderEventType = "Previewed"
	Printed         RenderEventType = "Printed"
	ExportSucceeded RenderEventType = "ExportSucceeded"
	ExportFailed    RenderEventType = "ExportFailed"
	ExportRejected  RenderEventType = "ExportRejected"
)

// RenderEvent adalah payload untuk event render
type RenderEvent struct {
	Type       RenderEventType
	SessionID  string
	LetterType models.LetterType
	Seconds    float64 // durasi operasi, jika relevan
	Err        error
}

// Bus di-buffer agar publisher (handler API / goroutine QR) tidak pernah
// terblokir. Event yang tidak muat di buffer dibuang.
type Bus struct {
	ch chan RenderEvent
}

func NewBus(size int) *Bus {
	return &Bus{ch: make(chan RenderEvent, size)}
}

// Publish tidak pernah blocking. Nil bus diabaikan.
func (b *Bus) Publish(e RenderEvent) {
	if b == nil {
		return
	}
	select {
	case b.ch <- e:
	default:
	}
}

// Run mengirim setiap event ke semua handler sampai ctx selesai.
func (b *Bus) Run(ctx context.Context, handlers ...func(RenderEvent)) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-b.ch:
			for _, h := range handlers {
				h(e)
			}
		}
	}
}
