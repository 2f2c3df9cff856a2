package services

import (
	"fmt"
	"unicode/utf8"

	"github.com/nawawimhz/surat-generator/models"
)

const (
	MaxAddressLength = 120
	MaxNIKLength     = 16
)

// FailureTooLong is the only length failure kind.
const FailureTooLong = "TooLong"

// LengthCheck is the outcome of a length validation. It never carries an
// error: the caller surfaces Guidance next to the input.
type LengthCheck struct {
	OK        bool   `json:"ok"`
	Failure   string `json:"failure,omitempty"`
	OverBy    int    `json:"over_by,omitempty"`
	Remaining int    `json:"remaining"`
	Max       int    `json:"max"`
	Label     string `json:"-"`
}

// Guidance is the inline hint shown under the input.
func (c LengthCheck) Guidance() string {
	if c.OK {
		return fmt.Sprintf("Sisa %d/%d karakter", c.Remaining, c.Max)
	}
	return fmt.Sprintf("%s terlalu panjang! Kurangi %d karakter.", c.Label, c.OverBy)
}

func checkLength(label, text string, limit int) LengthCheck {
	n := utf8.RuneCountInString(text)
	if n > limit {
		return LengthCheck{Failure: FailureTooLong, OverBy: n - limit, Remaining: limit - n, Max: limit, Label: label}
	}
	return LengthCheck{OK: true, Remaining: limit - n, Max: limit, Label: label}
}

// ValidateAddress enforces the free-text address cap. Longer input is
// reported, never truncated.
func ValidateAddress(text string) LengthCheck {
	return checkLength("Alamat", text, MaxAddressLength)
}

// ValidateNIK caps the national ID number at 16 characters. Digits are not
// checked.
func ValidateNIK(text string) LengthCheck {
	return checkLength("NIK", text, MaxNIKLength)
}

// ValidateRecord returns the hard-invalid fields of rec, or nil when the
// record may be previewed.
func ValidateRecord(rec models.Record) *ValidationError {
	fields := map[string]LengthCheck{}
	if c := ValidateAddress(rec.Subject.Address); !c.OK {
		fields[string(models.FieldAlamatLengkap)] = c
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
