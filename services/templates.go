package services

import (
	"fmt"
	"strings"

	"github.com/nawawimhz/surat-generator/config"
	"github.com/nawawimhz/surat-generator/models"
)

// LetterTemplate describes everything that differs between letter types:
// heading, body blocks, signature layout and the QR text lines.
type LetterTemplate interface {
	Type() models.LetterType
	Heading() string
	// WatchedFields are the fields whose change triggers a QR recompute.
	WatchedFields() []models.Field
	// QRReady reports whether the record has what the QR payload needs.
	QRReady(rec models.Record) bool
	QRLines(v letterView) []Attribute
	Blocks(v letterView) []Block
	Signatures(v letterView) (SignatureLayout, []Signatory)
}

// letterView exposes the record values a template prints, with
// placeholders already substituted.
type letterView struct {
	c    Composer
	rec  models.Record
	spec config.LetterSpec
}

func (v letterView) village() string { return v.c.Village.Name }

func (v letterView) name() string {
	return OrPlaceholder(v.rec.Subject.FullName, models.FieldNamaLengkap)
}

func (v letterView) ttl() string {
	if s := v.c.PlaceAndDateOfBirth(v.rec.Subject.BirthPlace, v.rec.Subject.BirthDate); s != "" {
		return s
	}
	return PlaceholderTTL
}

func (v letterView) nik() string {
	return OrPlaceholder(v.rec.Subject.NIK, models.FieldNIK)
}

func (v letterView) sex() string {
	return OrPlaceholder(string(v.rec.Subject.Sex), models.FieldJenisKelamin)
}

func (v letterView) occupation() string {
	return OrPlaceholder(v.rec.Subject.Occupation, models.FieldPekerjaan)
}

func (v letterView) address() string {
	return v.c.FullAddress(OrPlaceholder(v.rec.Subject.Address, models.FieldAlamatLengkap))
}

func (v letterView) placeAndIssueDate() string {
	return v.village() + ", " + OrPlaceholder(v.c.LongDate(v.rec.IssueDate), models.FieldTanggalSurat)
}

func (v letterView) approver() string {
	return "(" + OrPlaceholder(v.rec.ApproverName, models.FieldPenandatangan) + ")"
}

func (v letterView) opening() Block {
	return paragraph(fmt.Sprintf(
		"Yang bertanda tangan di bawah ini, Kepala Desa %s, Kecamatan %s, Kabupaten %s, dengan ini menerangkan bahwa:",
		v.village(), v.c.Village.District, v.c.Village.Regency))
}

func paragraph(text string) Block {
	return Block{Kind: BlockParagraph, Text: text}
}

func attributes(indented bool, attrs ...Attribute) Block {
	return Block{Kind: BlockAttributes, Attributes: attrs, Indented: indented}
}

func qrLines(v letterView, extra ...Attribute) []Attribute {
	lines := []Attribute{
		{"No", v.spec.Number},
		{"Nama", v.rec.Subject.FullName},
	}
	lines = append(lines, extra...)
	return append(lines, Attribute{"Desa", v.c.Village.QRLabel})
}

type domisiliTemplate struct{}

func (domisiliTemplate) Type() models.LetterType { return models.LetterDomisili }
func (domisiliTemplate) Heading() string         { return "SURAT KETERANGAN DOMISILI" }

func (domisiliTemplate) WatchedFields() []models.Field {
	return []models.Field{models.FieldIncludeQR, models.FieldNamaLengkap, models.FieldTanggalSurat, models.FieldTanggalExpired}
}

func (domisiliTemplate) QRReady(rec models.Record) bool {
	return rec.Domicile.ExpiryDate != nil
}

func (domisiliTemplate) QRLines(v letterView) []Attribute {
	return qrLines(v,
		Attribute{"Terbit", v.c.LongDate(v.rec.IssueDate)},
		Attribute{"Expired", v.c.LongDate(v.rec.Domicile.ExpiryDate)},
	)
}

func (domisiliTemplate) Blocks(v letterView) []Block {
	d := v.rec.Domicile
	return []Block{
		paragraph("Yang bertanda tangan di bawah ini:"),
		paragraph(fmt.Sprintf("Kepala Desa %s Kecamatan %s, Kabupaten %s.", v.village(), v.c.Village.District, v.c.Village.Regency)),
		paragraph("Dengan ini menerangkan bahwa:"),
		attributes(false,
			Attribute{"Nama Lengkap", v.name()},
			Attribute{"Tempat/Tanggal Lahir", v.ttl()},
			Attribute{"NIK", v.nik()},
			Attribute{"Jenis Kelamin", v.sex()},
			Attribute{"Agama", OrPlaceholder(d.Religion, models.FieldAgama)},
			Attribute{"Pekerjaan", v.occupation()},
			Attribute{"Status Perkawinan", OrPlaceholder(d.MaritalStatus, models.FieldStatusPerkawinan)},
			Attribute{"Alamat", v.address()},
		),
		paragraph(fmt.Sprintf("Berdasarkan data yang ada pada kami dan sepengetahuan kami, nama tersebut di atas adalah "+
			"benar warga Desa %s dan hingga saat surat keterangan ini diterbitkan, yang bersangkutan masih "+
			"berdomisili sesuai alamat yang tertera di atas.", v.village())),
		paragraph("Demikian surat keterangan domisili ini dibuat untuk dapat dipergunakan sebagaimana mestinya."),
	}
}

func (domisiliTemplate) Signatures(v letterView) (SignatureLayout, []Signatory) {
	return LayoutDual, []Signatory{
		{
			Lines:     []string{"Mengetahui,", "Tanda Tangan Bersangkutan,"},
			Name:      "(" + v.name() + ")",
			Underline: true,
		},
		{
			Lines:     []string{v.placeAndIssueDate(), fmt.Sprintf("Kepala Desa %s/Sekertaris Desa", v.village())},
			Name:      v.approver(),
			Underline: true,
			HostsQR:   true,
		},
	}
}

type spkckTemplate struct{}

func (spkckTemplate) Type() models.LetterType { return models.LetterSPKCK }
func (spkckTemplate) Heading() string         { return "SURAT PENGANTAR KETERANGAN CATATAN KEPOLISIAN" }

func (spkckTemplate) WatchedFields() []models.Field {
	return []models.Field{models.FieldIncludeQR, models.FieldNamaLengkap, models.FieldNIK, models.FieldTanggalSurat}
}

func (spkckTemplate) QRReady(models.Record) bool { return true }

func (spkckTemplate) QRLines(v letterView) []Attribute {
	return qrLines(v,
		Attribute{"NIK", v.rec.Subject.NIK},
		Attribute{"Terbit", v.c.LongDate(v.rec.IssueDate)},
	)
}

func (spkckTemplate) Blocks(v letterView) []Block {
	purpose := v.c.ResolvedPurpose(v.rec.Referral.Purpose, v.rec.Referral.PurposeManual)
	return []Block{
		v.opening(),
		attributes(false,
			Attribute{"NIK", v.nik()},
			Attribute{"Nama Lengkap", v.name()},
			Attribute{"Tempat/Tanggal Lahir", v.ttl()},
			Attribute{"Jenis Kelamin", v.sex()},
			Attribute{"Pekerjaan", v.occupation()},
			Attribute{"Alamat", v.address()},
		),
		paragraph("Surat pengantar ini diberikan kepada yang bersangkutan untuk keperluan " + purpose + "."),
		paragraph("Berdasarkan pertimbangan dan sepengetahuan kami, serta data administrasi desa, kami menyatakan bahwa:"),
		{
			Kind: BlockOrderedList,
			Items: []string{
				"Nama yang tersebut di atas adalah benar warga kami yang berdomisili sesuai dengan alamat di atas.",
				fmt.Sprintf("Yang bersangkutan berkelakuan baik di lingkungan masyarakat Desa %s.", v.village()),
				"Sepanjang pengetahuan kami, yang bersangkutan belum pernah terlibat dalam tindak pidana atau " +
					"perkara yang menyangkut pihak Kepolisian hingga surat ini diterbitkan.",
			},
			Indented: true,
		},
		paragraph("Demikian surat pengantar ini dibuat dengan sebenarnya untuk dapat dipergunakan sebagaimana " +
			"mestinya. Atas perhatian dan kerja samanya, kami sampaikan terima kasih."),
	}
}

func (spkckTemplate) Signatures(v letterView) (SignatureLayout, []Signatory) {
	return LayoutSingle, []Signatory{{
		Lines:   []string{v.placeAndIssueDate(), "a.n. Kepala Desa " + v.village(), "Kasi Pelayanan"},
		Name:    v.approver(),
		HostsQR: true,
	}}
}

type kematianTemplate struct{}

func (kematianTemplate) Type() models.LetterType { return models.LetterKematian }
func (kematianTemplate) Heading() string         { return "SURAT KETERANGAN KEMATIAN" }

func (kematianTemplate) WatchedFields() []models.Field {
	return []models.Field{models.FieldIncludeQR, models.FieldNamaLengkap, models.FieldTanggalMeninggal, models.FieldTanggalSurat}
}

func (kematianTemplate) QRReady(models.Record) bool { return true }

func (kematianTemplate) QRLines(v letterView) []Attribute {
	return qrLines(v,
		Attribute{"Tanggal Meninggal", v.c.LongDate(v.rec.Death.Date)},
		Attribute{"Terbit", v.c.LongDate(v.rec.IssueDate)},
	)
}

func (kematianTemplate) Blocks(v letterView) []Block {
	death := v.rec.Death
	day := v.c.WeekdayName(death.Date)
	if day == "" {
		day = PlaceholderHari
	}
	return []Block{
		v.opening(),
		attributes(false,
			Attribute{"Nama Lengkap", v.name()},
			Attribute{"Tempat/Tanggal Lahir", v.ttl()},
			Attribute{"Jenis Kelamin", v.sex()},
			Attribute{"Pekerjaan", v.occupation()},
			Attribute{"Alamat", v.address()},
		),
		paragraph("Nama tersebut di atas telah meninggal dunia pada:"),
		attributes(true,
			Attribute{"Hari", day},
			Attribute{"Tanggal", OrPlaceholder(v.c.LongDate(death.Date), models.FieldTanggalMeninggal)},
			Attribute{"Pukul", OrPlaceholder(death.TimeLabel, models.FieldWaktuMeninggal)},
			Attribute{"Di", OrPlaceholder(death.Place, models.FieldLokasiMeninggal)},
			Attribute{"Disebabkan karena", OrPlaceholder(death.Cause, models.FieldPenyebabKematian)},
		),
		paragraph("Demikian surat keterangan ini dibuat berdasarkan keterangan yang sebenarnya untuk dapat " +
			"dipergunakan sebagaimana mestinya."),
	}
}

func (kematianTemplate) Signatures(v letterView) (SignatureLayout, []Signatory) {
	return LayoutSingle, []Signatory{{
		Lines:     []string{v.placeAndIssueDate(), "a.n. KEPALA DESA " + strings.ToUpper(v.village()), "Kasi Pelayanan"},
		Name:      v.approver(),
		Underline: true,
		HostsQR:   true,
	}}
}
