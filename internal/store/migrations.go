package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS emails (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	sender_id       INTEGER NOT NULL REFERENCES users(id),
	recipient_email TEXT NOT NULL,
	subject         TEXT NOT NULL DEFAULT '',
	body            TEXT NOT NULL DEFAULT '',
	is_draft        INTEGER NOT NULL DEFAULT 0 CHECK(is_draft IN (0, 1)),
	is_read         INTEGER NOT NULL DEFAULT 0 CHECK(is_read IN (0, 1)),
	sent_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_emails_sender_id ON emails(sender_id);
CREATE INDEX IF NOT EXISTS idx_emails_recipient ON emails(recipient_email);
CREATE INDEX IF NOT EXISTS idx_emails_sent_at ON emails(sent_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS user_emails (
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	email   TEXT NOT NULL,
	PRIMARY KEY (user_id, email)
);

CREATE INDEX IF NOT EXISTS idx_user_emails_email ON user_emails(email);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
