package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/nawawimhz/surat-generator/config"
	"github.com/nawawimhz/surat-generator/dto/letters"
	"github.com/nawawimhz/surat-generator/middleware"
	"github.com/nawawimhz/surat-generator/models"
	"github.com/nawawimhz/surat-generator/services"
	"github.com/nawawimhz/surat-generator/utils"
	"github.com/nawawimhz/surat-generator/utils/sink"
	"github.com/nawawimhz/surat-generator/utils/storage"
)

type LetterHandler struct {
	sessions  *services.SessionStore
	cfg       *config.LetterConfig
	artifacts storage.ArtifactStore
	logger    *zap.Logger
}

// NewLetterHandler wires the form endpoints. artifacts may be nil, in which
// case exports are streamed back in the response body.
func NewLetterHandler(sessions *services.SessionStore, cfg *config.LetterConfig, artifacts storage.ArtifactStore, logger *zap.Logger) *LetterHandler {
	return &LetterHandler{
		sessions:  sessions,
		cfg:       cfg,
		artifacts: artifacts,
		logger:    logger,
	}
}

func (h *LetterHandler) session(c *fiber.Ctx) (*services.LetterSession, error) {
	t, err := models.ParseLetterType(c.Params("type"))
	if errors.Is(err, models.ErrUnknownLetterType) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Jenis surat tidak dikenal")
	}
	return h.sessions.Get(middleware.DraftID(c), t)
}

func (h *LetterHandler) state(c *fiber.Ctx, s *services.LetterSession, message string) error {
	return utils.JSONSuccess(c, fiber.StatusOK, message, letters.NewLetterStateResponse(s.Snapshot()))
}

// Options - daftar jenis surat, pilihan select dan batas panjang input
func (h *LetterHandler) Options(c *fiber.Ctx) error {
	return utils.JSONSuccess(c, fiber.StatusOK, "Letter options", letters.NewOptionsResponse(h.cfg))
}

// GetLetter - isi form surat saat ini
func (h *LetterHandler) GetLetter(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	return h.state(c, s, "Letter draft")
}

// UpdateLetter - mengubah satu atau beberapa field form
func (h *LetterHandler) UpdateLetter(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	var req letters.UpdateLetterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := req.Validate(s.Record().Type, h.cfg.Options); len(errs) > 0 {
		return utils.BadRequest(c, "Validation failed", errs)
	}

	cmds, err := req.ToCommands(h.cfg.Timezone.Location())
	if err != nil {
		return utils.BadRequest(c, "Validation failed", err.Error())
	}
	if _, err := s.Apply(cmds...); err != nil {
		return h.fail(c, err)
	}
	return h.state(c, s, "Letter updated")
}

// ResetLetter - membuang draft dan memulai form baru. QR yang masih
// diproses untuk draft lama diabaikan.
func (h *LetterHandler) ResetLetter(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	if err := s.Reset(); err != nil {
		return h.fail(c, err)
	}

	t := s.Record().Type
	h.sessions.Discard(middleware.DraftID(c), t)
	fresh, err := h.sessions.Get(middleware.DraftID(c), t)
	if err != nil {
		return err
	}
	return h.state(c, fresh, "Letter reset")
}

// Preview - validasi lalu render surat untuk ditampilkan
func (h *LetterHandler) Preview(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	doc, err := s.Preview()
	if err != nil {
		return h.fail(c, err)
	}
	html, err := services.RenderHTML(doc)
	if err != nil {
		return err
	}
	return utils.JSONSuccess(c, fiber.StatusOK, "Letter preview", letters.PreviewResponse{Document: doc, HTML: html})
}

// ClosePreview - menutup preview dan kembali ke form
func (h *LetterHandler) ClosePreview(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	if err := s.ClosePreview(); err != nil {
		return h.fail(c, err)
	}
	return h.state(c, s, "Preview closed")
}

// Print - halaman cetak yang langsung membuka dialog print
func (h *LetterHandler) Print(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	page, err := s.Print()
	if err != nil {
		return h.fail(c, err)
	}
	c.Type("html", "utf-8")
	return c.SendString(page)
}

// Export - ekspor surat ke PDF atau gambar. Dengan S3 aktif file diunggah
// dan link unduhan dikembalikan; tanpa S3 file dikirim langsung.
func (h *LetterHandler) Export(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	format := c.Query("format", h.cfg.Export.Format)
	if _, err := sink.ParseFormat(format); err != nil {
		return utils.BadRequest(c, "Unsupported export format", err.Error())
	}

	art, err := s.Export(c.UserContext(), format)
	if err != nil {
		return h.fail(c, err)
	}

	if h.artifacts == nil {
		c.Set(fiber.HeaderContentType, art.ContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", art.Filename))
		return c.Send(art.Data)
	}

	key, err := h.artifacts.Put(c.UserContext(), art.Filename, art.ContentType, art.Data)
	if err != nil {
		h.logger.Error("upload export", zap.String("file", art.Filename), zap.Error(err))
		return utils.BadGateway(c, "Gagal menyimpan file surat", err.Error())
	}
	url, err := h.artifacts.PresignedURL(c.UserContext(), key)
	if err != nil {
		h.logger.Error("presign export", zap.String("key", key), zap.Error(err))
		if derr := h.artifacts.Delete(c.UserContext(), key); derr != nil {
			h.logger.Warn("delete unreachable export", zap.String("key", key), zap.Error(derr))
		}
		return utils.BadGateway(c, "Gagal membuat link unduhan", err.Error())
	}

	return utils.JSONSuccess(c, fiber.StatusCreated, "Letter exported", letters.ExportResponse{
		Filename:    art.Filename,
		ContentType: art.ContentType,
		Key:         key,
		URL:         url,
	})
}

// fail maps session errors to responses.
func (h *LetterHandler) fail(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	var exportErr *services.ExportError

	switch {
	case errors.As(err, &verr):
		guidance := make(map[string]string, len(verr.Fields))
		for field, check := range verr.Fields {
			guidance[field] = check.Guidance()
		}
		return utils.Unprocessable(c, "Validation failed", guidance)
	case errors.Is(err, services.ErrExportInProgress):
		return utils.Conflict(c, "Ekspor surat sedang berjalan", err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		return utils.Conflict(c, "Aksi tidak tersedia pada tahap ini", err.Error())
	case errors.Is(err, services.ErrFieldNotApplicable), errors.Is(err, services.ErrInvalidTimeSlot):
		return utils.BadRequest(c, "Validation failed", err.Error())
	case errors.As(err, &exportErr):
		return utils.BadGateway(c, "Gagal membuat PDF. Silakan coba cetak surat.", err.Error())
	}
	return err
}

// NotFound answers requests outside the route table.
func NotFound(c *fiber.Ctx) error {
	return utils.NotFound(c, fmt.Sprintf("Route %s %s not found", c.Method(), c.Path()))
}

// ErrorHandler renders unhandled errors in the common response shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return utils.JSONError(c, code, err.Error(), nil)
}
