package letters

import (
	"fmt"
	"strings"
	"time"

	"github.com/nawawimhz/surat-generator/models"
	"github.com/nawawimhz/surat-generator/services"
)

// ToCommands converts the request into reducer commands in a fixed order:
// explicit clears, then field values, then the QR toggle. Dates are read in
// loc.
func (r *UpdateLetterRequest) ToCommands(loc *time.Location) ([]models.Command, error) {
	var cmds []models.Command

	for _, name := range r.Clear {
		cmds = append(cmds, models.ClearField(models.Field(name)))
	}

	for _, fv := range r.values() {
		if fv.value == nil {
			continue
		}

		v := strings.TrimSpace(*fv.value)
		if !fv.field.IsDateField() {
			cmds = append(cmds, models.SetText(fv.field, v))
			continue
		}
		if v == "" {
			cmds = append(cmds, models.ClearField(fv.field))
			continue
		}
		d, err := time.ParseInLocation(DateLayout, v, loc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fv.field, err)
		}
		cmds = append(cmds, models.SetDate(fv.field, d))
	}

	if r.IncludeQR != nil {
		cmds = append(cmds, models.SetFlag(models.FieldIncludeQR, *r.IncludeQR))
	}
	return cmds, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

// NewRecordResponse flattens a record into the same keys the update request
// uses.
func NewRecordResponse(rec models.Record) RecordResponse {
	resp := RecordResponse{
		JenisSurat:        rec.Type,
		NamaLengkap:       rec.Subject.FullName,
		TempatLahir:       rec.Subject.BirthPlace,
		TanggalLahir:      formatDate(rec.Subject.BirthDate),
		NIK:               rec.Subject.NIK,
		JenisKelamin:      string(rec.Subject.Sex),
		Pekerjaan:         rec.Subject.Occupation,
		AlamatLengkap:     rec.Subject.Address,
		TanggalSurat:      formatDate(rec.IssueDate),
		NamaPenandatangan: rec.ApproverName,
		IncludeQR:         rec.IncludeQR,
		QRImage:           rec.QRImage,
	}

	switch rec.Type {
	case models.LetterDomisili:
		resp.Agama = rec.Domicile.Religion
		resp.StatusPerkawinan = rec.Domicile.MaritalStatus
		resp.TanggalExpired = formatDate(rec.Domicile.ExpiryDate)
	case models.LetterSPKCK:
		resp.Keperluan = rec.Referral.Purpose
		resp.KeperluanManual = rec.Referral.PurposeManual
	case models.LetterKematian:
		resp.TanggalMeninggal = formatDate(rec.Death.Date)
		resp.WaktuMeninggal = rec.Death.TimeLabel
		resp.LokasiMeninggal = rec.Death.Place
		resp.PenyebabKematian = rec.Death.Cause
	}
	return resp
}

func NewLetterStateResponse(snap services.Snapshot) LetterStateResponse {
	return LetterStateResponse{
		ID:     snap.ID,
		State:  snap.State,
		Record: NewRecordResponse(snap.Record),
		Guidance: map[string]string{
			string(models.FieldAlamatLengkap): snap.Address.Guidance(),
			string(models.FieldNIK):           snap.NIK.Guidance(),
		},
		Checks: map[string]services.LengthCheck{
			string(models.FieldAlamatLengkap): snap.Address,
			string(models.FieldNIK):           snap.NIK,
		},
		QRPending: snap.QRPending,
	}
}
