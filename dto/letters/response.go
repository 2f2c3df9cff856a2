package letters

import (
	"github.com/nawawimhz/surat-generator/config"
	"github.com/nawawimhz/surat-generator/models"
	"github.com/nawawimhz/surat-generator/services"
)

type RecordResponse struct {
	JenisSurat        models.LetterType `json:"jenis_surat"`
	NamaLengkap       string            `json:"nama_lengkap"`
	TempatLahir       string            `json:"tempat_lahir"`
	TanggalLahir      string            `json:"tanggal_lahir"`
	NIK               string            `json:"nik,omitempty"`
	JenisKelamin      string            `json:"jenis_kelamin"`
	Agama             string            `json:"agama,omitempty"`
	Pekerjaan         string            `json:"pekerjaan"`
	StatusPerkawinan  string            `json:"status_perkawinan,omitempty"`
	AlamatLengkap     string            `json:"alamat_lengkap"`
	TanggalSurat      string            `json:"tanggal_surat"`
	TanggalExpired    string            `json:"tanggal_expired,omitempty"`
	NamaPenandatangan string            `json:"nama_penandatangan"`
	Keperluan         string            `json:"keperluan,omitempty"`
	KeperluanManual   string            `json:"keperluan_manual,omitempty"`
	TanggalMeninggal  string            `json:"tanggal_meninggal,omitempty"`
	WaktuMeninggal    string            `json:"waktu_meninggal,omitempty"`
	LokasiMeninggal   string            `json:"lokasi_meninggal,omitempty"`
	PenyebabKematian  string            `json:"penyebab_kematian,omitempty"`
	IncludeQR         bool              `json:"include_qr"`
	QRImage           string            `json:"qr_image,omitempty"`
}

// LetterStateResponse is returned by every form endpoint.
type LetterStateResponse struct {
	ID        string                          `json:"id"`
	State     services.State                  `json:"state"`
	Record    RecordResponse                  `json:"record"`
	Guidance  map[string]string               `json:"guidance"`
	Checks    map[string]services.LengthCheck `json:"checks"`
	QRPending bool                            `json:"qr_pending"`
}

type PreviewResponse struct {
	Document services.Document `json:"document"`
	HTML     string            `json:"html"`
}

type ExportResponse struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Key         string `json:"key"`
	URL         string `json:"url"`
}

type LetterOption struct {
	Type   models.LetterType `json:"type"`
	Title  string            `json:"title"`
	Number string            `json:"number"`
}

type Limits struct {
	Alamat int `json:"alamat_lengkap"`
	NIK    int `json:"nik"`
}

// OptionsResponse carries everything a form needs to build its selects.
type OptionsResponse struct {
	Letters       []LetterOption     `json:"letters"`
	Options       config.OptionLists `json:"options"`
	TimeSlots     []string           `json:"waktu_meninggal"`
	TimezoneLabel string             `json:"timezone"`
	Limits        Limits             `json:"limits"`
}

func NewOptionsResponse(cfg *config.LetterConfig) OptionsResponse {
	letters := make([]LetterOption, 0, len(models.LetterTypes))
	for _, t := range models.LetterTypes {
		spec := cfg.Letter(t)
		letters = append(letters, LetterOption{Type: t, Title: spec.Title, Number: spec.Number})
	}

	return OptionsResponse{
		Letters:       letters,
		Options:       cfg.Options,
		TimeSlots:     services.TimeSlots(),
		TimezoneLabel: cfg.Timezone.Label,
		Limits:        Limits{Alamat: services.MaxAddressLength, NIK: services.MaxNIKLength},
	}
}
