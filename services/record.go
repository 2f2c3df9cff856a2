package services

import (
	"fmt"
	"strings"

	"github.com/nawawimhz/surat-generator/models"
)

// Reduce applies one field edit to rec and returns the new record. rec is
// not modified. The QR image is left alone; recomputing it is the session's
// job.
func (c Composer) Reduce(rec models.Record, cmd models.Command) (models.Record, error) {
	if !cmd.Field.Applies(rec.Type) {
		return rec, fmt.Errorf("%w: %s on %s", ErrFieldNotApplicable, cmd.Field, rec.Type)
	}

	next := rec.Clone()
	text := cmd.Text
	date := cmd.Date
	if cmd.Clear {
		text, date = "", nil
	}

	switch cmd.Field {
	case models.FieldNamaLengkap:
		next.Subject.FullName = text
	case models.FieldTempatLahir:
		next.Subject.BirthPlace = text
	case models.FieldTanggalLahir:
		next.Subject.BirthDate = date
	case models.FieldNIK:
		if check := ValidateNIK(text); !check.OK {
			return rec, &ValidationError{Fields: map[string]LengthCheck{string(cmd.Field): check}}
		}
		next.Subject.NIK = text
	case models.FieldJenisKelamin:
		next.Subject.Sex = models.Sex(text)
	case models.FieldPekerjaan:
		next.Subject.Occupation = text
	case models.FieldAlamatLengkap:
		// Over-long addresses are kept so the overflow can be reported.
		next.Subject.Address = text
	case models.FieldTanggalSurat:
		next.IssueDate = date
	case models.FieldPenandatangan:
		next.ApproverName = text
	case models.FieldAgama:
		next.Domicile.Religion = text
	case models.FieldStatusPerkawinan:
		next.Domicile.MaritalStatus = text
	case models.FieldTanggalExpired:
		next.Domicile.ExpiryDate = date
	case models.FieldKeperluan:
		next.Referral.Purpose = text
	case models.FieldKeperluanManual:
		next.Referral.PurposeManual = text
	case models.FieldTanggalMeninggal:
		next.Death.Date = date
	case models.FieldWaktuMeninggal:
		slot := strings.TrimSuffix(strings.TrimSpace(text), " "+c.TimezoneLabel)
		if slot != "" && !IsTimeSlot(slot) {
			return rec, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, text)
		}
		next.Death.TimeLabel = c.TimeOfDeathLabel(slot)
	case models.FieldLokasiMeninggal:
		next.Death.Place = text
	case models.FieldPenyebabKematian:
		next.Death.Cause = text
	case models.FieldIncludeQR:
		next.IncludeQR = cmd.Flag && !cmd.Clear
		if !next.IncludeQR {
			next.QRImage = ""
		}
	}

	return next, nil
}
