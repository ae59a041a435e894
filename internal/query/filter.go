package query

import (
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"rolodex/internal/store"
)

// RawFilter is a filter as typed on a command line or sent by an agent.
type RawFilter struct {
	Tags       []string `json:"tags,omitempty"`
	PersonType string   `json:"type,omitempty"`
	Company    string   `json:"company,omitempty"`
	Industry   string   `json:"industry,omitempty"`
	Person     string   `json:"person,omitempty"`
	DateFrom   string   `json:"from,omitempty"`
	DateTo     string   `json:"to,omitempty"`
	Text       string   `json:"text,omitempty"`
}

// Filter is a validated filter. Zero fields do not constrain.
type Filter struct {
	// Tags match when an interaction carries any of them.
	Tags       []store.Tag
	PersonType store.PersonType
	// Company, Industry and Person are case-insensitive substrings.
	Company  string
	Industry string
	Person   string
	// DateFrom and DateTo are inclusive.
	DateFrom time.Time
	DateTo   time.Time
	Text     string
}

// ParseFilter validates raw input before any store access.
func ParseFilter(raw RawFilter) (Filter, error) {
	var f Filter
	var err error

	if f.Tags, err = store.ParseTags(nonEmpty(raw.Tags)); err != nil {
		return Filter{}, err
	}
	if f.PersonType, err = store.ParsePersonType(raw.PersonType); err != nil {
		return Filter{}, err
	}
	if s := strings.TrimSpace(raw.DateFrom); s != "" {
		if f.DateFrom, err = store.ParseDate(s); err != nil {
			return Filter{}, err
		}
	}
	if s := strings.TrimSpace(raw.DateTo); s != "" {
		if f.DateTo, err = store.ParseDate(s); err != nil {
			return Filter{}, err
		}
	}
	f.Company = strings.TrimSpace(raw.Company)
	f.Industry = strings.TrimSpace(raw.Industry)
	f.Person = strings.TrimSpace(raw.Person)
	f.Text = strings.TrimSpace(raw.Text)

	if err := f.Validate(); err != nil {
		return Filter{}, err
	}
	return f, nil
}

func (f Filter) Validate() error {
	for _, t := range f.Tags {
		if !t.IsValid() {
			return goerr.Wrap(store.ErrValidation, "unknown tag", goerr.V("tag", t))
		}
	}
	if !f.PersonType.IsValid() {
		return goerr.Wrap(store.ErrValidation, "unknown person type", goerr.V("type", f.PersonType))
	}
	if !f.DateFrom.IsZero() && !f.DateTo.IsZero() && f.DateFrom.After(f.DateTo) {
		return goerr.Wrap(store.ErrValidation, "from date is after to date",
			goerr.V("from", store.FormatDate(f.DateFrom)), goerr.V("to", store.FormatDate(f.DateTo)))
	}
	return nil
}

// interactionScoped reports whether f has predicates only an interaction
// can satisfy. Text counts as one: segment aggregation always matches it
// against interaction transcripts and takeaways.
func (f Filter) interactionScoped() bool {
	return len(f.Tags) > 0 || !f.DateFrom.IsZero() || !f.DateTo.IsZero() || f.Text != ""
}

func (f Filter) matchPerson(p *store.Person) bool {
	if f.PersonType != store.PersonTypeUnset && p.Type != f.PersonType {
		return false
	}
	return containsFold(p.CurrentCompany, f.Company) &&
		containsFold(p.CompanyIndustry, f.Industry) &&
		containsFold(p.Name, f.Person)
}

func (f Filter) matchInteraction(i *store.Interaction) bool {
	if len(f.Tags) > 0 && !i.HasTag(f.Tags...) {
		return false
	}
	d := store.DateOf(i.Date)
	if !f.DateFrom.IsZero() && d.Before(f.DateFrom) {
		return false
	}
	if !f.DateTo.IsZero() && d.After(f.DateTo) {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return substr == "" || strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
