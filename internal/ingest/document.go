package ingest

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"rolodex/internal/store"
)

// Document is the finished output of the analysis collaborator for one
// recorded interaction. YAML and JSON are both accepted.
type Document struct {
	Person       string           `yaml:"person"`
	PersonFields *PersonFields    `yaml:"person_fields"`
	Date         string           `yaml:"date"`
	Transcript   store.Transcript `yaml:"transcript"`
	Takeaways    []string         `yaml:"takeaways"`
	Tags         []string         `yaml:"tags"`
	StateOfPlay  string           `yaml:"state_of_play"`
	Delta        string           `yaml:"delta"`
	// Background is applied only when the person has none yet.
	Background string   `yaml:"background"`
	Followups  []string `yaml:"followups"`
}

// PersonFields upserts the person before the interaction is stored.
type PersonFields struct {
	Company    string `yaml:"company"`
	Type       string `yaml:"type"`
	Industry   string `yaml:"industry"`
	Revenue    string `yaml:"revenue"`
	Headcount  string `yaml:"headcount"`
	LinkedIn   string `yaml:"linkedin_url"`
	Background string `yaml:"background"`
}

// ParseDocument decodes a single document, rejecting unknown keys.
func ParseDocument(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, goerr.Wrap(store.ErrValidation, "document is empty")
		}
		return nil, goerr.Wrap(store.ErrValidation, "failed to decode document", goerr.V("cause", err.Error()))
	}
	return &doc, nil
}

// Input converts the document into a store write, validating every field.
func (d *Document) Input(sourceHash string) (store.InteractionInput, error) {
	name := strings.TrimSpace(d.Person)
	if err := store.ValidatePersonName(name); err != nil {
		return store.InteractionInput{}, err
	}
	date, err := store.ParseDate(d.Date)
	if err != nil {
		return store.InteractionInput{}, err
	}
	tags, err := store.ParseTags(d.Tags)
	if err != nil {
		return store.InteractionInput{}, err
	}

	in := store.InteractionInput{
		PersonName: name,
		Date:       date,
		Transcript: d.Transcript,
		Takeaways:  d.Takeaways,
		Tags:       tags,
		SourceHash: sourceHash,
		Followups:  d.Followups,
		Background: strings.TrimSpace(d.Background),
	}
	if d.StateOfPlay != "" || d.Delta != "" {
		in.State = &store.PersonState{StateOfPlay: d.StateOfPlay, LastDelta: d.Delta}
	}
	if err := in.Validate(); err != nil {
		return store.InteractionInput{}, err
	}
	return in, nil
}

// Fields converts person_fields, or returns nil when absent.
func (d *Document) Fields() (*store.PersonFields, error) {
	if d.PersonFields == nil {
		return nil, nil
	}
	pt, err := store.ParsePersonType(d.PersonFields.Type)
	if err != nil {
		return nil, err
	}
	return &store.PersonFields{
		CurrentCompany:   d.PersonFields.Company,
		Type:             pt,
		Background:       d.PersonFields.Background,
		LinkedInURL:      d.PersonFields.LinkedIn,
		CompanyIndustry:  d.PersonFields.Industry,
		CompanyRevenue:   d.PersonFields.Revenue,
		CompanyHeadcount: d.PersonFields.Headcount,
	}, nil
}
