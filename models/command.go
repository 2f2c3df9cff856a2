package models

import "time"

// Field names a single editable input of a letter form. The values double as
// JSON keys and placeholder names.
type Field string

const (
	FieldNamaLengkap      Field = "nama_lengkap"
	FieldTempatLahir      Field = "tempat_lahir"
	FieldTanggalLahir     Field = "tanggal_lahir"
	FieldNIK              Field = "nik"
	FieldJenisKelamin     Field = "jenis_kelamin"
	FieldAgama            Field = "agama"
	FieldPekerjaan        Field = "pekerjaan"
	FieldStatusPerkawinan Field = "status_perkawinan"
	FieldAlamatLengkap    Field = "alamat_lengkap"
	FieldTanggalSurat     Field = "tanggal_surat"
	FieldTanggalExpired   Field = "tanggal_expired"
	FieldPenandatangan    Field = "nama_penandatangan"
	FieldKeperluan        Field = "keperluan"
	FieldKeperluanManual  Field = "keperluan_manual"
	FieldTanggalMeninggal Field = "tanggal_meninggal"
	FieldWaktuMeninggal   Field = "waktu_meninggal"
	FieldLokasiMeninggal  Field = "lokasi_meninggal"
	FieldPenyebabKematian Field = "penyebab_kematian"
	FieldIncludeQR        Field = "include_qr"
)

var commonFields = []Field{
	FieldNamaLengkap, FieldTempatLahir, FieldTanggalLahir, FieldJenisKelamin,
	FieldPekerjaan, FieldAlamatLengkap, FieldTanggalSurat, FieldPenandatangan,
	FieldIncludeQR,
}

var typeFields = map[LetterType][]Field{
	LetterDomisili: {FieldNIK, FieldAgama, FieldStatusPerkawinan, FieldTanggalExpired},
	LetterSPKCK:    {FieldNIK, FieldKeperluan, FieldKeperluanManual},
	LetterKematian: {FieldTanggalMeninggal, FieldWaktuMeninggal, FieldLokasiMeninggal, FieldPenyebabKematian},
}

// IsDateField reports whether the field carries a calendar date.
func (f Field) IsDateField() bool {
	switch f {
	case FieldTanggalLahir, FieldTanggalSurat, FieldTanggalExpired, FieldTanggalMeninggal:
		return true
	}
	return false
}

// Applies reports whether the field belongs to the form of letter type t.
func (f Field) Applies(t LetterType) bool {
	for _, c := range commonFields {
		if c == f {
			return true
		}
	}
	for _, c := range typeFields[t] {
		if c == f {
			return true
		}
	}
	return false
}

// Command is a single field edit. Text carries string values, Date carries
// date values, Flag carries include_qr. Clear resets the field to its zero
// value regardless of the other members.
type Command struct {
	Field Field
	Text  string
	Date  *time.Time
	Flag  bool
	Clear bool
}

func SetText(f Field, v string) Command    { return Command{Field: f, Text: v} }
func SetDate(f Field, v time.Time) Command { return Command{Field: f, Date: &v} }
func SetFlag(f Field, v bool) Command      { return Command{Field: f, Flag: v} }
func ClearField(f Field) Command           { return Command{Field: f, Clear: true} }
