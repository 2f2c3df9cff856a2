package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type LetterType string
type Sex string

const (
	LetterDomisili LetterType = "domisili"
	LetterSPKCK    LetterType = "spkck"
	LetterKematian LetterType = "kematian"
)

const (
	SexLakiLaki  Sex = "Laki-laki"
	SexPerempuan Sex = "Perempuan"
)

// PurposeManual is the purpose option that switches the referral letter to
// the free-text purpose field.
const PurposeManual = "manual"

// ExpiryPeriod is the default validity of a domicile certificate.
const ExpiryPeriod = 365 * 24 * time.Hour

var LetterTypes = []LetterType{LetterDomisili, LetterSPKCK, LetterKematian}

var ErrUnknownLetterType = errors.New("unknown letter type")

func ParseLetterType(s string) (LetterType, error) {
	t := LetterType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range LetterTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownLetterType, s)
}

// Subject holds the identity attributes shared by every letter.
type Subject struct {
	FullName   string     `json:"nama_lengkap"`
	BirthPlace string     `json:"tempat_lahir"`
	BirthDate  *time.Time `json:"tanggal_lahir"`
	NIK        string     `json:"nik"`
	Sex        Sex        `json:"jenis_kelamin"`
	Occupation string     `json:"pekerjaan"`
	Address    string     `json:"alamat_lengkap"`
}

type DomicileDetails struct {
	Religion      string     `json:"agama"`
	MaritalStatus string     `json:"status_perkawinan"`
	ExpiryDate    *time.Time `json:"tanggal_expired"`
}

type ReferralDetails struct {
	Purpose       string `json:"keperluan"`
	PurposeManual string `json:"keperluan_manual"`
}

type DeathDetails struct {
	Date      *time.Time `json:"tanggal_meninggal"`
	TimeLabel string     `json:"waktu_meninggal"`
	Place     string     `json:"lokasi_meninggal"`
	Cause     string     `json:"penyebab_kematian"`
}

// Record is the form state of one letter. Only the details block matching
// Type is meaningful; the others stay zero.
type Record struct {
	Type         LetterType      `json:"jenis_surat"`
	Subject      Subject         `json:"subjek"`
	IssueDate    *time.Time      `json:"tanggal_surat"`
	ApproverName string          `json:"nama_penandatangan"`
	Domicile     DomicileDetails `json:"domisili"`
	Referral     ReferralDetails `json:"spkck"`
	Death        DeathDetails    `json:"kematian"`
	IncludeQR    bool            `json:"include_qr"`
	QRImage      string          `json:"qr_image,omitempty"`
}

// NewRecord returns an empty record with the issue date set to now and, for
// domicile letters, the expiry date one year later.
func NewRecord(t LetterType, now time.Time) Record {
	issued := now
	rec := Record{Type: t, IssueDate: &issued}
	if t == LetterDomisili {
		expiry := now.Add(ExpiryPeriod)
		rec.Domicile.ExpiryDate = &expiry
	}
	return rec
}

// Clone returns a deep copy; date pointers are not shared with the original.
func (r Record) Clone() Record {
	out := r
	out.Subject.BirthDate = cloneTime(r.Subject.BirthDate)
	out.IssueDate = cloneTime(r.IssueDate)
	out.Domicile.ExpiryDate = cloneTime(r.Domicile.ExpiryDate)
	out.Death.Date = cloneTime(r.Death.Date)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
