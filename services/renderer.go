package services

import (
	"fmt"
	"strings"

	"github.com/nawawimhz/surat-generator/config"
	"github.com/nawawimhz/surat-generator/models"
)

type BlockKind string

const (
	BlockParagraph   BlockKind = "paragraph"
	BlockAttributes  BlockKind = "attributes"
	BlockOrderedList BlockKind = "ordered_list"
)

type SignatureLayout string

const (
	LayoutSingle SignatureLayout = "single"
	LayoutDual   SignatureLayout = "dual"
)

type Attribute struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Block struct {
	Kind       BlockKind   `json:"kind"`
	Text       string      `json:"text,omitempty"`
	Attributes []Attribute `json:"attributes,omitempty"`
	Items      []string    `json:"items,omitempty"`
	Indented   bool        `json:"indented,omitempty"`
}

// Signatory is one signature column. The QR image, when present, is drawn
// over the signing space of the column with HostsQR set.
type Signatory struct {
	Lines     []string `json:"lines"`
	Name      string   `json:"name"`
	Underline bool     `json:"underline"`
	HostsQR   bool     `json:"hosts_qr"`
}

// Header is the letterhead of the issuing village.
type Header struct {
	Lines   []string `json:"lines"`
	Address string   `json:"address"`
	Email   string   `json:"email"`
	Website string   `json:"website"`
	Logo    string   `json:"logo"`
}

// Document is the finished, fixed-layout letter handed to a render sink.
type Document struct {
	Type       models.LetterType `json:"type"`
	Header     Header            `json:"header"`
	Title      string            `json:"title"`
	Number     string            `json:"number"`
	Blocks     []Block           `json:"blocks"`
	Layout     SignatureLayout   `json:"layout"`
	Signatures []Signatory       `json:"signatures"`
	QRImage    string            `json:"qr_image,omitempty"`
}

// HasQR reports whether the document carries the QR region.
func (d Document) HasQR() bool {
	return d.QRImage != ""
}

// Attributes flattens every attribute list of the document in order.
func (d Document) Attributes() []Attribute {
	var out []Attribute
	for _, b := range d.Blocks {
		if b.Kind == BlockAttributes {
			out = append(out, b.Attributes...)
		}
	}
	return out
}

// Renderer turns records into documents. It is the same for every letter
// type; what differs lives in the LetterTemplate.
type Renderer struct {
	cfg       *config.LetterConfig
	composer  Composer
	templates map[models.LetterType]LetterTemplate
}

func NewRenderer(cfg *config.LetterConfig) *Renderer {
	r := &Renderer{
		cfg:       cfg,
		composer:  NewComposer(cfg),
		templates: map[models.LetterType]LetterTemplate{},
	}
	for _, t := range []LetterTemplate{domisiliTemplate{}, spkckTemplate{}, kematianTemplate{}} {
		r.templates[t.Type()] = t
	}
	return r
}

func (r *Renderer) Composer() Composer {
	return r.composer
}

func (r *Renderer) Config() *config.LetterConfig {
	return r.cfg
}

// Template returns the descriptor of letter type t.
func (r *Renderer) Template(t models.LetterType) (LetterTemplate, error) {
	tpl, ok := r.templates[t]
	if !ok {
		return nil, fmt.Errorf("%w %q", models.ErrUnknownLetterType, t)
	}
	return tpl, nil
}

func (r *Renderer) view(rec models.Record) letterView {
	return letterView{c: r.composer, rec: rec, spec: r.cfg.Letter(rec.Type)}
}

// Render composes the document of rec. Missing values become placeholder
// tokens; Render never fails on an incomplete record.
func (r *Renderer) Render(rec models.Record) (Document, error) {
	tpl, err := r.Template(rec.Type)
	if err != nil {
		return Document{}, err
	}

	v := r.view(rec)
	layout, signatures := tpl.Signatures(v)

	doc := Document{
		Type:       rec.Type,
		Header:     r.header(),
		Title:      tpl.Heading(),
		Number:     v.spec.Number,
		Blocks:     tpl.Blocks(v),
		Layout:     layout,
		Signatures: signatures,
	}
	if rec.IncludeQR && rec.QRImage != "" {
		doc.QRImage = rec.QRImage
	}
	return doc, nil
}

func (r *Renderer) header() Header {
	village := r.cfg.Village
	return Header{
		Lines: []string{
			"PEMERINTAH KABUPATEN " + strings.ToUpper(village.Regency),
			"KECAMATAN " + strings.ToUpper(village.District),
			"DESA " + strings.ToUpper(village.Name),
		},
		Address: village.Address,
		Email:   village.Email,
		Website: village.Website,
		Logo:    village.Logo,
	}
}

var filenameReplacer = strings.NewReplacer("/", "-", "\\", "-", "\"", "")

// Filename builds the export file name "{label}_{subject or Draft}.{ext}".
func (r *Renderer) Filename(rec models.Record, ext string) string {
	name := filenameReplacer.Replace(strings.TrimSpace(rec.Subject.FullName))
	if name == "" {
		name = "Draft"
	}
	return fmt.Sprintf("%s_%s.%s", r.cfg.Letter(rec.Type).Label, name, ext)
}
