package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/goodsign/monday"

	"github.com/nawawimhz/surat-generator/config"
	"github.com/nawawimhz/surat-generator/models"
	"github.com/nawawimhz/surat-generator/utils/datefmt"
)

// Placeholder tokens for values that are not stored fields.
const (
	PlaceholderTTL  = "<ttl>"
	PlaceholderHari = "<hari>"
)

// Placeholder returns the angle-bracketed token rendered in place of a
// missing field value.
func Placeholder(f models.Field) string {
	switch f {
	case models.FieldAlamatLengkap:
		return "<isian_alamat_lengkap>"
	}
	return "<" + string(f) + ">"
}

// OrPlaceholder returns v, or the placeholder of f when v is blank.
func OrPlaceholder(v string, f models.Field) string {
	if strings.TrimSpace(v) == "" {
		return Placeholder(f)
	}
	return v
}

// Composer derives the display strings of a letter from raw fields. All
// methods are total and depend only on their arguments and the deployment
// configuration.
type Composer struct {
	Village       config.VillageConfig
	Locale        monday.Locale
	TimezoneLabel string
}

func NewComposer(cfg *config.LetterConfig) Composer {
	return Composer{
		Village:       cfg.Village,
		Locale:        datefmt.ParseLocale(cfg.Locale),
		TimezoneLabel: cfg.Timezone.Label,
	}
}

func (c Composer) LongDate(t *time.Time) string {
	return datefmt.LongDate(t, c.Locale)
}

func (c Composer) WeekdayName(t *time.Time) string {
	return datefmt.WeekdayName(t, c.Locale)
}

// PlaceAndDateOfBirth joins place and date of birth; empty if either is missing.
func (c Composer) PlaceAndDateOfBirth(place string, dob *time.Time) string {
	if strings.TrimSpace(place) == "" || dob == nil {
		return ""
	}
	return place + ", " + c.LongDate(dob)
}

// AddressSuffix is the fixed village/district/regency tail of every address.
func (c Composer) AddressSuffix() string {
	return fmt.Sprintf(", Desa %s, Kecamatan %s, Kabupaten %s.", c.Village.Name, c.Village.District, c.Village.Regency)
}

func (c Composer) FullAddress(freeText string) string {
	return freeText + c.AddressSuffix()
}

// ResolvedPurpose picks the manual text when the "manual" option is selected.
func (c Composer) ResolvedPurpose(selected, manual string) string {
	switch {
	case selected == models.PurposeManual:
		return OrPlaceholder(manual, models.FieldKeperluan)
	case strings.TrimSpace(selected) != "":
		return selected
	default:
		return Placeholder(models.FieldKeperluan)
	}
}

// TimeOfDeathLabel suffixes a half-hour slot with the timezone label. An
// empty slot stays empty.
func (c Composer) TimeOfDeathLabel(slot string) string {
	if slot == "" {
		return ""
	}
	return slot + " " + c.TimezoneLabel
}

// TimeSlots lists the selectable half-hour slots of a day.
func TimeSlots() []string {
	slots := make([]string, 0, 48)
	for hour := 0; hour < 24; hour++ {
		for minute := 0; minute < 60; minute += 30 {
			slots = append(slots, fmt.Sprintf("%02d:%02d", hour, minute))
		}
	}
	return slots
}

// IsTimeSlot reports whether s is one of TimeSlots.
func IsTimeSlot(s string) bool {
	t, err := time.Parse("15:04", s)
	if err != nil || t.Format("15:04") != s {
		return false
	}
	return t.Minute() == 0 || t.Minute() == 30
}
