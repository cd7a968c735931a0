package storage

// postgresSchema is applied on connect; every statement is idempotent
const postgresSchema = `
CREATE TABLE IF NOT EXISTS pacts (
	address             TEXT PRIMARY KEY,
	bump                SMALLINT NOT NULL,
	name                TEXT NOT NULL,
	description         TEXT NOT NULL,
	creator             TEXT NOT NULL,
	created_at          TIMESTAMPTZ NOT NULL,
	participants        TEXT[] NOT NULL,
	status              TEXT NOT NULL,
	goal_type           TEXT NOT NULL,
	goal_value          BIGINT NOT NULL,
	verification_type   TEXT NOT NULL,
	comparison_operator TEXT NOT NULL,
	stake               BIGINT NOT NULL,
	prize_pool          BIGINT NOT NULL,
	pact_vault          TEXT NOT NULL,
	pact_vault_bump     SMALLINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pacts_status ON pacts (status, created_at);
CREATE INDEX IF NOT EXISTS idx_pacts_creator ON pacts (creator);

CREATE TABLE IF NOT EXISTS participant_stakes (
	address       TEXT PRIMARY KEY,
	bump          SMALLINT NOT NULL,
	participant   TEXT NOT NULL,
	pact          TEXT NOT NULL,
	has_staked    BOOLEAN NOT NULL DEFAULT FALSE,
	is_eliminated BOOLEAN NOT NULL DEFAULT FALSE,
	eliminated_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_participant_stakes_pact ON participant_stakes (pact);

CREATE TABLE IF NOT EXISTS player_profiles (
	address      TEXT PRIMARY KEY,
	bump         SMALLINT NOT NULL,
	owner        TEXT NOT NULL UNIQUE,
	name         TEXT NOT NULL,
	active_pacts TEXT[] NOT NULL,
	pacts_won    BIGINT NOT NULL DEFAULT 0,
	pacts_lost   BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS account_balances (
	account TEXT PRIMARY KEY,
	amount  BIGINT NOT NULL CHECK (amount >= 0)
);

CREATE TABLE IF NOT EXISTS pact_activities (
	activity_id TEXT PRIMARY KEY,
	pact        TEXT NOT NULL,
	kind        TEXT NOT NULL,
	actor       TEXT NOT NULL,
	amount      BIGINT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	detail      JSONB
);
CREATE INDEX IF NOT EXISTS idx_pact_activities_pact ON pact_activities (pact, occurred_at DESC);
`

// sqliteSchema mirrors postgresSchema. Key lists are JSON arrays and
// timestamps are unix nanoseconds.
var sqliteSchema = []string{
	`PRAGMA journal_mode=WAL;`,
	`PRAGMA synchronous=NORMAL;`,
	`PRAGMA busy_timeout=5000;`,
	`PRAGMA foreign_keys=ON;`,
	`CREATE TABLE IF NOT EXISTS pacts (
		address             TEXT PRIMARY KEY,
		bump                INTEGER NOT NULL,
		name                TEXT NOT NULL,
		description         TEXT NOT NULL,
		creator             TEXT NOT NULL,
		created_at          INTEGER NOT NULL,
		participants        TEXT NOT NULL,
		status              TEXT NOT NULL,
		goal_type           TEXT NOT NULL,
		goal_value          INTEGER NOT NULL,
		verification_type   TEXT NOT NULL,
		comparison_operator TEXT NOT NULL,
		stake               INTEGER NOT NULL,
		prize_pool          INTEGER NOT NULL,
		pact_vault          TEXT NOT NULL,
		pact_vault_bump     INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_pacts_status ON pacts (status, created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_pacts_creator ON pacts (creator);`,
	`CREATE TABLE IF NOT EXISTS participant_stakes (
		address       TEXT PRIMARY KEY,
		bump          INTEGER NOT NULL,
		participant   TEXT NOT NULL,
		pact          TEXT NOT NULL,
		has_staked    INTEGER NOT NULL DEFAULT 0,
		is_eliminated INTEGER NOT NULL DEFAULT 0,
		eliminated_at INTEGER
	);`,
	`CREATE INDEX IF NOT EXISTS idx_participant_stakes_pact ON participant_stakes (pact);`,
	`CREATE TABLE IF NOT EXISTS player_profiles (
		address      TEXT PRIMARY KEY,
		bump         INTEGER NOT NULL,
		owner        TEXT NOT NULL UNIQUE,
		name         TEXT NOT NULL,
		active_pacts TEXT NOT NULL,
		pacts_won    INTEGER NOT NULL DEFAULT 0,
		pacts_lost   INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS account_balances (
		account TEXT PRIMARY KEY,
		amount  INTEGER NOT NULL CHECK (amount >= 0)
	);`,
	`CREATE TABLE IF NOT EXISTS pact_activities (
		activity_id TEXT PRIMARY KEY,
		pact        TEXT NOT NULL,
		kind        TEXT NOT NULL,
		actor       TEXT NOT NULL,
		amount      INTEGER NOT NULL,
		occurred_at INTEGER NOT NULL,
		detail      TEXT
	);`,
	`CREATE INDEX IF NOT EXISTS idx_pact_activities_pact ON pact_activities (pact, occurred_at DESC);`,
}
