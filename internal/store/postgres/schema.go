package postgres

// Schema creates the three tables if they do not exist yet.
// schedules has no foreign key to students: deleting a student leaves its
// schedule row behind and the resolver ignores it.
const Schema = `
CREATE TABLE IF NOT EXISTS domains (
	name      TEXT PRIMARY KEY,
	password  TEXT NOT NULL,
	meet_link TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS students (
	id      TEXT PRIMARY KEY,
	name    TEXT NOT NULL DEFAULT '',
	roll_no TEXT NOT NULL UNIQUE,
	email   TEXT NOT NULL DEFAULT '',
	domains TEXT[] NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS schedules (
	roll_no  TEXT PRIMARY KEY,
	name     TEXT NOT NULL DEFAULT '',
	raw_line TEXT NOT NULL DEFAULT '',
	times    TEXT[] NOT NULL DEFAULT '{}'
);
`

const (
	selectStudent  = `SELECT id, name, roll_no, email, domains FROM students`
	selectDomain   = `SELECT name, password, meet_link FROM domains`
	selectSchedule = `SELECT roll_no, name, raw_line, times FROM schedules`

	saveStudentSQL = `INSERT INTO students (id, name, roll_no, email, domains)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name, roll_no = EXCLUDED.roll_no, email = EXCLUDED.email, domains = EXCLUDED.domains`

	upsertStudentByRollSQL = `INSERT INTO students (id, name, roll_no, email, domains)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (roll_no) DO UPDATE
SET name = EXCLUDED.name, email = EXCLUDED.email, domains = EXCLUDED.domains`

	upsertDomainSQL = `INSERT INTO domains (name, password, meet_link)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE
SET password = EXCLUDED.password, meet_link = EXCLUDED.meet_link`

	upsertScheduleSQL = `INSERT INTO schedules (roll_no, name, raw_line, times)
VALUES ($1, $2, $3, $4)
ON CONFLICT (roll_no) DO UPDATE
SET name = EXCLUDED.name, raw_line = EXCLUDED.raw_line, times = EXCLUDED.times`
)
