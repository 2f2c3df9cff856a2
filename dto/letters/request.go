package letters

import (
	"fmt"
	"strings"
	"time"

	"github.com/nawawimhz/surat-generator/config"
	"github.com/nawawimhz/surat-generator/models"
)

// DateLayout is the wire format of every date field.
const DateLayout = "2006-01-02"

// UpdateLetterRequest is a partial edit of a letter form. Nil members are
// left alone; an empty string clears the field. Clear names fields to reset
// explicitly.
type UpdateLetterRequest struct {
	NamaLengkap       *string  `json:"nama_lengkap"`
	TempatLahir       *string  `json:"tempat_lahir"`
	TanggalLahir      *string  `json:"tanggal_lahir"`
	NIK               *string  `json:"nik"`
	JenisKelamin      *string  `json:"jenis_kelamin"`
	Agama             *string  `json:"agama"`
	Pekerjaan         *string  `json:"pekerjaan"`
	StatusPerkawinan  *string  `json:"status_perkawinan"`
	AlamatLengkap     *string  `json:"alamat_lengkap"`
	TanggalSurat      *string  `json:"tanggal_surat"`
	TanggalExpired    *string  `json:"tanggal_expired"`
	NamaPenandatangan *string  `json:"nama_penandatangan"`
	Keperluan         *string  `json:"keperluan"`
	KeperluanManual   *string  `json:"keperluan_manual"`
	TanggalMeninggal  *string  `json:"tanggal_meninggal"`
	WaktuMeninggal    *string  `json:"waktu_meninggal"`
	LokasiMeninggal   *string  `json:"lokasi_meninggal"`
	PenyebabKematian  *string  `json:"penyebab_kematian"`
	IncludeQR         *bool    `json:"include_qr"`
	Clear             []string `json:"clear"`
}

type fieldValue struct {
	field models.Field
	value *string
}

func (r *UpdateLetterRequest) values() []fieldValue {
	return []fieldValue{
		{models.FieldNamaLengkap, r.NamaLengkap},
		{models.FieldTempatLahir, r.TempatLahir},
		{models.FieldTanggalLahir, r.TanggalLahir},
		{models.FieldNIK, r.NIK},
		{models.FieldJenisKelamin, r.JenisKelamin},
		{models.FieldAgama, r.Agama},
		{models.FieldPekerjaan, r.Pekerjaan},
		{models.FieldStatusPerkawinan, r.StatusPerkawinan},
		{models.FieldAlamatLengkap, r.AlamatLengkap},
		{models.FieldTanggalSurat, r.TanggalSurat},
		{models.FieldTanggalExpired, r.TanggalExpired},
		{models.FieldPenandatangan, r.NamaPenandatangan},
		{models.FieldKeperluan, r.Keperluan},
		{models.FieldKeperluanManual, r.KeperluanManual},
		{models.FieldTanggalMeninggal, r.TanggalMeninggal},
		{models.FieldWaktuMeninggal, r.WaktuMeninggal},
		{models.FieldLokasiMeninggal, r.LokasiMeninggal},
		{models.FieldPenyebabKematian, r.PenyebabKematian},
	}
}

// Validate checks the request against the form of letter type t and the
// configured select options. Length limits are enforced by the session.
func (r *UpdateLetterRequest) Validate(t models.LetterType, opts config.OptionLists) map[string]string {
	errors := make(map[string]string)

	choices := map[models.Field][]string{
		models.FieldJenisKelamin:     opts.Sex,
		models.FieldAgama:            opts.Religion,
		models.FieldStatusPerkawinan: opts.MaritalStatus,
		models.FieldKeperluan:        opts.Purpose,
		models.FieldLokasiMeninggal:  opts.DeathPlace,
		models.FieldPenyebabKematian: opts.DeathCause,
	}

	for _, fv := range r.values() {
		if fv.value == nil {
			continue
		}
		key := string(fv.field)
		if !fv.field.Applies(t) {
			errors[key] = fmt.Sprintf("%s is not part of the %s letter", key, t)
			continue
		}

		v := strings.TrimSpace(*fv.value)
		if v == "" {
			continue
		}
		if fv.field.IsDateField() {
			if _, err := time.Parse(DateLayout, v); err != nil {
				errors[key] = key + " must be a date formatted YYYY-MM-DD"
			}
			continue
		}
		if allowed, ok := choices[fv.field]; ok && !contains(allowed, v) {
			errors[key] = fmt.Sprintf("%s must be one of: %s", key, strings.Join(allowed, ", "))
		}
	}

	for _, name := range r.Clear {
		f := models.Field(name)
		if !f.Applies(t) {
			errors["clear"] = fmt.Sprintf("cannot clear %q on the %s letter", name, t)
		}
	}

	return errors
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
