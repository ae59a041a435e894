package store

import "time"

// PersonFields holds the static, user-maintained attributes of a person.
type PersonFields struct {
	CurrentCompany   string     `json:"current_company" yaml:"company"`
	Type             PersonType `json:"type" yaml:"type"`
	Background       string     `json:"background" yaml:"background"`
	LinkedInURL      string     `json:"linkedin_url" yaml:"linkedin_url"`
	CompanyIndustry  string     `json:"company_industry" yaml:"industry"`
	CompanyRevenue   string     `json:"company_revenue" yaml:"revenue"`
	CompanyHeadcount string     `json:"company_headcount" yaml:"headcount"`
}

// Person is a stored person row. Interaction ids and connections are not part
// of the row; they are derived with Reader.InteractionIDs and Reader.Connections.
type Person struct {
	Name string `json:"name"`
	PersonFields
	StateOfPlay string `json:"state_of_play"`
	LastDelta   string `json:"last_delta"`
}

// Slug is the directory name of the person in the path projection.
func (p Person) Slug() string {
	return PersonSlug(p.Name)
}

// PersonState is the AI-maintained pair, always overwritten together.
type PersonState struct {
	StateOfPlay string `json:"state_of_play"`
	LastDelta   string `json:"last_delta"`
}

type Utterance struct {
	Speaker string  `json:"speaker" yaml:"speaker"`
	Text    string  `json:"text" yaml:"text"`
	Start   float64 `json:"start" yaml:"start"`
	End     float64 `json:"end" yaml:"end"`
}

type Transcript struct {
	Text       string      `json:"text" yaml:"text"`
	Utterances []Utterance `json:"utterances" yaml:"utterances"`
}

// Interaction is the list view of an interaction; the transcript is fetched
// separately with Reader.GetTranscript.
type Interaction struct {
	ID         int64     `json:"id"`
	PersonName string    `json:"person_name"`
	Date       time.Time `json:"date"`
	DateSeq    int       `json:"date_seq"`
	Takeaways  []string  `json:"takeaways"`
	Tags       []Tag     `json:"tags"`
	SourceHash string    `json:"source_hash,omitempty"`
}

// Slug is the directory name of the interaction under its person.
func (i Interaction) Slug() string {
	return InteractionSlug(i.Date, i.DateSeq)
}

// HasTag reports whether any of tags is attached to i.
func (i Interaction) HasTag(tags ...Tag) bool {
	for _, have := range i.Tags {
		for _, want := range tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// InteractionInput is what the ingestion collaborator hands to
// CreateInteraction. When State is set, the person's rolling state is
// overwritten in the same transaction.
type InteractionInput struct {
	PersonName string
	Date       time.Time
	Transcript Transcript
	Takeaways  []string
	Tags       []Tag
	SourceHash string
	State      *PersonState
	// Followups are created open in the same write.
	Followups []string
	// Background is stored only when the person has none yet.
	Background string
}

// Connection is stored with PersonA < PersonB.
type Connection struct {
	PersonA string `json:"person_a"`
	PersonB string `json:"person_b"`
}

type Followup struct {
	ID            int64          `json:"id"`
	PersonName    string         `json:"person_name"`
	InteractionID int64          `json:"interaction_id"`
	DateSlug      string         `json:"date_slug"`
	Item          string         `json:"item"`
	Status        FollowupStatus `json:"status"`
}

// DeleteResult counts the rows removed by a cascading delete.
type DeleteResult struct {
	Interactions int64 `json:"interactions"`
	Followups    int64 `json:"followups"`
	Connections  int64 `json:"connections"`
}

// InteractionHit is a text index match for an interaction.
type InteractionHit struct {
	InteractionID int64   `json:"interaction_id"`
	Score         float64 `json:"score"`
	Snippet       string  `json:"snippet"`
}

// PersonHit is a text index match for a person.
type PersonHit struct {
	PersonName string  `json:"person_name"`
	Score      float64 `json:"score"`
	Snippet    string  `json:"snippet"`
}
