package sqlite

// schema contains the database schema DDL.
const schema = `
-- Blood pressure readings
CREATE TABLE IF NOT EXISTS bp_reading (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    systolic INTEGER NOT NULL,
    diastolic INTEGER NOT NULL,
    note TEXT,
    recorded_at DATETIME NOT NULL,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bp_reading_user_time ON bp_reading(user_id, recorded_at);

-- Lipid panels (canonical mg/dL)
CREATE TABLE IF NOT EXISTS lipid_panel (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    total_cholesterol REAL NOT NULL,
    hdl REAL NOT NULL,
    ldl_measured REAL,
    triglycerides REAL,
    collected_at DATETIME NOT NULL,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_lipid_panel_user_time ON lipid_panel(user_id, collected_at);

-- Risk profiles, one row per user
CREATE TABLE IF NOT EXISTS risk_profile (
    user_id TEXT PRIMARY KEY,
    age INTEGER NOT NULL,
    sex TEXT NOT NULL,
    on_hypertension_treatment INTEGER NOT NULL DEFAULT 0,
    smoker INTEGER NOT NULL DEFAULT 0,
    diabetic INTEGER NOT NULL DEFAULT 0,
    updated_at DATETIME NOT NULL
);
`
