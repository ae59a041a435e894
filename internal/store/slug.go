package store

import (
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

const DateLayout = "2006-01-02"

// PersonSlug replaces every space in name with an underscore.
func PersonSlug(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

// SlugsCollide reports whether two distinct names would share a directory.
// Comparison ignores case so the projection stays usable on case-insensitive
// filesystems.
func SlugsCollide(a, b string) bool {
	return a != b && strings.EqualFold(PersonSlug(a), PersonSlug(b))
}

// InteractionSlug is the bare date for the first interaction on a date and
// date_N for the N-th.
func InteractionSlug(date time.Time, seq int) string {
	base := FormatDate(date)
	if seq <= 1 {
		return base
	}
	return base + "_" + strconv.Itoa(seq)
}

// ParseInteractionSlug is the inverse of InteractionSlug.
func ParseInteractionSlug(slug string) (time.Time, int, error) {
	datePart, seqPart, hasSeq := strings.Cut(slug, "_")
	date, err := ParseDate(datePart)
	if err != nil {
		return time.Time{}, 0, err
	}
	if !hasSeq {
		return date, 1, nil
	}
	seq, err := strconv.Atoi(seqPart)
	if err != nil || seq < 2 {
		return time.Time{}, 0, goerr.Wrap(ErrValidation, "invalid interaction slug", goerr.V("slug", slug))
	}
	return date, seq, nil
}

// ParseDate parses YYYY-MM-DD into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, goerr.Wrap(ErrValidation, "invalid date, expected YYYY-MM-DD", goerr.V("date", s))
	}
	return d, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CanonicalPair orders two names so the smaller comes first.
func CanonicalPair(a, b string) Connection {
	if b < a {
		a, b = b, a
	}
	return Connection{PersonA: a, PersonB: b}
}

// Other returns the member of c that is not name.
func (c Connection) Other(name string) string {
	if c.PersonA == name {
		return c.PersonB
	}
	return c.PersonA
}
