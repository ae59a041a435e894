package store

import "context"

// Reader is the read surface of a store. Implementations returned by
// Store.View observe a single consistent snapshot.
type Reader interface {
	GetPerson(ctx context.Context, name string) (*Person, error)
	// ListPersons returns every person ordered by name.
	ListPersons(ctx context.Context) ([]Person, error)
	InteractionIDs(ctx context.Context, personName string) ([]int64, error)
	// Connections returns the names connected to personName, sorted.
	Connections(ctx context.Context, personName string) ([]string, error)
	ListConnections(ctx context.Context) ([]Connection, error)

	GetInteraction(ctx context.Context, id int64) (*Interaction, error)
	// ListInteractions returns the interactions of one person ordered by
	// date, date_seq.
	ListInteractions(ctx context.Context, personName string) ([]Interaction, error)
	ListAllInteractions(ctx context.Context) ([]Interaction, error)
	GetTranscript(ctx context.Context, interactionID int64) (*Transcript, error)
	// SourceHashes maps ingested document hashes to interaction ids.
	SourceHashes(ctx context.Context) (map[string]int64, error)

	// ListFollowups returns followups of one person ordered by id. An empty
	// status returns every status.
	ListFollowups(ctx context.Context, personName string, status FollowupStatus) ([]Followup, error)
	ListAllFollowups(ctx context.Context) ([]Followup, error)

	SearchInteractionText(ctx context.Context, query string) ([]InteractionHit, error)
	SearchPersonText(ctx context.Context, query string) ([]PersonHit, error)
}

// Writer holds the mutations. Each call is atomic.
type Writer interface {
	// CreatePerson fails with ErrConflict when the name exists.
	CreatePerson(ctx context.Context, name string, fields PersonFields) (*Person, error)
	// UpsertPerson overwrites static fields, leaving state and interactions alone.
	UpsertPerson(ctx context.Context, name string, fields PersonFields) (*Person, error)
	SetPersonState(ctx context.Context, name string, state PersonState) error
	SetPersonBackground(ctx context.Context, name, background string) error
	DeletePerson(ctx context.Context, name string) (*DeleteResult, error)

	CreateInteraction(ctx context.Context, in InteractionInput) (*Interaction, error)
	DeleteInteraction(ctx context.Context, id int64) (*DeleteResult, error)

	// Connect reports whether a new row was stored.
	Connect(ctx context.Context, a, b string) (bool, error)
	// Disconnect reports whether a row was removed.
	Disconnect(ctx context.Context, a, b string) (bool, error)

	CreateFollowups(ctx context.Context, personName string, interactionID int64, items []string) ([]Followup, error)
	CompleteFollowup(ctx context.Context, id int64) (*Followup, error)
}

type Store interface {
	Reader
	Writer

	// View runs fn against a consistent snapshot.
	View(ctx context.Context, fn func(r Reader) error) error
	EnsureSchema(ctx context.Context) error
	Close(ctx context.Context) error
}

// SQLRunner is implemented by SQL-backed stores for ad-hoc read queries.
type SQLRunner interface {
	RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}
