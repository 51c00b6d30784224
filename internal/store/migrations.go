package store

const schema = `
-- Device snapshots, insertion-ordered by id (30d retention)
CREATE TABLE IF NOT EXISTS snapshots (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    ts          INTEGER NOT NULL,
    device_id   TEXT    NOT NULL,
    temperature INTEGER NOT NULL,
    memory      INTEGER NOT NULL,
    voltage     REAL    NOT NULL,
    cpu         INTEGER NOT NULL,
    io          INTEGER NOT NULL,
    status      TEXT    NOT NULL
);

-- Alert log (30d retention)
CREATE TABLE IF NOT EXISTS alert_log (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    ts          INTEGER NOT NULL,
    alert_type  TEXT    NOT NULL,
    device_id   TEXT,
    subject     TEXT    NOT NULL,
    message     TEXT    NOT NULL,
    severity    TEXT    NOT NULL
);

-- Secondary indexes
CREATE INDEX IF NOT EXISTS idx_snapshots_device ON snapshots(device_id, id);
CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(ts);
CREATE INDEX IF NOT EXISTS idx_alert_ts ON alert_log(ts);
`
