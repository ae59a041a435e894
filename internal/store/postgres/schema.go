package postgres

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"rolodex/internal/logging"
)

// The whole script runs in one Exec, which PostgreSQL applies as a single
// implicit transaction. Name columns use the C collation so ordering and the
// canonical-pair check agree with byte-wise comparison in Go.
const ddl = `
CREATE TABLE IF NOT EXISTS persons (
    name              TEXT COLLATE "C" PRIMARY KEY,
    current_company   TEXT NOT NULL DEFAULT '',
    type              TEXT NOT NULL DEFAULT '' CHECK (type IN ('', 'customer', 'investor', 'competitor')),
    background        TEXT NOT NULL DEFAULT '',
    linkedin_url      TEXT NOT NULL DEFAULT '',
    company_industry  TEXT NOT NULL DEFAULT '',
    company_revenue   TEXT NOT NULL DEFAULT '',
    company_headcount TEXT NOT NULL DEFAULT '',
    state_of_play     TEXT NOT NULL DEFAULT '',
    last_delta        TEXT NOT NULL DEFAULT '',
    created_at        TIMESTAMPTZ DEFAULT now(),
    updated_at        TIMESTAMPTZ DEFAULT now(),
    search_vector     TSVECTOR GENERATED ALWAYS AS (
        setweight(to_tsvector('simple', state_of_play), 'A') ||
        setweight(to_tsvector('simple', background), 'B')
    ) STORED
);

CREATE TABLE IF NOT EXISTS interactions (
    id                BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    person_name       TEXT COLLATE "C" NOT NULL REFERENCES persons(name) ON DELETE CASCADE,
    date              DATE NOT NULL,
    date_seq          INTEGER NOT NULL CHECK (date_seq >= 1),
    transcript_text   TEXT NOT NULL DEFAULT '',
    utterances        JSONB NOT NULL DEFAULT '[]',
    transcript_search TEXT NOT NULL DEFAULT '',
    takeaways         TEXT[] NOT NULL DEFAULT '{}',
    takeaways_text    TEXT NOT NULL DEFAULT '',
    tags              TEXT[] NOT NULL DEFAULT '{}',
    source_hash       TEXT NOT NULL DEFAULT '',
    created_at        TIMESTAMPTZ DEFAULT now(),
    search_vector     TSVECTOR GENERATED ALWAYS AS (
        setweight(to_tsvector('simple', transcript_search), 'B') ||
        setweight(to_tsvector('simple', takeaways_text), 'A')
    ) STORED,
    CONSTRAINT uq_interaction_slug UNIQUE (person_name, date, date_seq)
);

CREATE TABLE IF NOT EXISTS connections (
    person_a   TEXT COLLATE "C" NOT NULL REFERENCES persons(name) ON DELETE CASCADE,
    person_b   TEXT COLLATE "C" NOT NULL REFERENCES persons(name) ON DELETE CASCADE,
    created_at TIMESTAMPTZ DEFAULT now(),
    PRIMARY KEY (person_a, person_b),
    CHECK (person_a < person_b)
);

CREATE TABLE IF NOT EXISTS followups (
    id             BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    person_name    TEXT COLLATE "C" NOT NULL REFERENCES persons(name) ON DELETE CASCADE,
    interaction_id BIGINT NOT NULL REFERENCES interactions(id) ON DELETE CASCADE,
    date_slug      TEXT NOT NULL,
    item           TEXT NOT NULL,
    status         TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'complete')),
    created_at     TIMESTAMPTZ DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_persons_search ON persons USING GIN (search_vector);
CREATE INDEX IF NOT EXISTS idx_interactions_search ON interactions USING GIN (search_vector);
CREATE INDEX IF NOT EXISTS idx_interactions_person_date ON interactions (person_name, date);
CREATE INDEX IF NOT EXISTS idx_interactions_tags ON interactions USING GIN (tags);
CREATE INDEX IF NOT EXISTS idx_interactions_source_hash ON interactions (source_hash) WHERE source_hash <> '';
CREATE INDEX IF NOT EXISTS idx_connections_b ON connections (person_b);
CREATE INDEX IF NOT EXISTS idx_followups_person_status ON followups (person_name, status);
CREATE INDEX IF NOT EXISTS idx_followups_interaction ON followups (interaction_id);
`

func (c *Client) EnsureSchema(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, ddl); err != nil {
		return goerr.Wrap(err, "failed to ensure schema")
	}
	logging.Default().Debug("postgres schema ready")
	return nil
}
