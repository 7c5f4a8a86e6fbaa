package pgstore

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// notifyChannel carries the owner id of every changed row.
const notifyChannel = "ledger_changes"

const schema = `
CREATE TABLE IF NOT EXISTS ledger_entries (
	id uuid DEFAULT uuid_generate_v4() PRIMARY KEY,
	owner_id text NOT NULL,
	description text NOT NULL DEFAULT '',
	amount text NOT NULL DEFAULT '',
	type text NOT NULL,
	category text NOT NULL DEFAULT '',
	date text NOT NULL DEFAULT '',
	created_at timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS ledger_entries_owner_idx ON ledger_entries (owner_id);

CREATE OR REPLACE FUNCTION ledger_entries_notify() RETURNS trigger AS $$
BEGIN
	IF TG_OP = 'DELETE' THEN
		PERFORM pg_notify('` + notifyChannel + `', OLD.owner_id);
		RETURN OLD;
	END IF;
	IF TG_OP = 'UPDATE' AND OLD.owner_id <> NEW.owner_id THEN
		PERFORM pg_notify('` + notifyChannel + `', OLD.owner_id);
	END IF;
	PERFORM pg_notify('` + notifyChannel + `', NEW.owner_id);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS ledger_entries_notify ON ledger_entries;
CREATE TRIGGER ledger_entries_notify
	AFTER INSERT OR UPDATE OR DELETE ON ledger_entries
	FOR EACH ROW EXECUTE PROCEDURE ledger_entries_notify();
`

// setup installs extensions, the table and the change trigger.
func setup(db *sqlx.DB) error {
	// install extension for creating UUIDs
	if _, err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`); err != nil {
		return fmt.Errorf("adding UUID extension: %w", err)
	}

	if _, err := db.Exec("SET timezone to 'UTC'"); err != nil {
		return fmt.Errorf("setting database default timezone: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating ledger schema: %w", err)
	}
	return nil
}
