package repository

const postgresSchema = `
CREATE TABLE IF NOT EXISTS admin_accounts (
    id uuid PRIMARY KEY,
    email text NOT NULL UNIQUE,
    password_hash text NOT NULL DEFAULT '',
    name text NOT NULL,
    role text NOT NULL DEFAULT 'ADMIN',
    admin_id text UNIQUE,
    birthdate timestamptz,
    college text,
    department text,
    position text NOT NULL DEFAULT 'Admin Officer',
    permissions text[] NOT NULL DEFAULT '{}',
    status text NOT NULL DEFAULT 'ACTIVE',
    email_verified_at timestamptz,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS student_accounts (
    id uuid PRIMARY KEY,
    email text NOT NULL UNIQUE,
    password_hash text NOT NULL DEFAULT '',
    name text NOT NULL,
    role text NOT NULL DEFAULT 'USER',
    student_id text NOT NULL UNIQUE,
    birthdate timestamptz,
    college text,
    department text,
    course text,
    email_verified_at timestamptz,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS categories (
    id uuid PRIMARY KEY,
    name text NOT NULL UNIQUE,
    code text NOT NULL UNIQUE,
    description text,
    is_active boolean NOT NULL DEFAULT TRUE,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS theses (
    id uuid PRIMARY KEY,
    title text NOT NULL,
    abstract text NOT NULL,
    author_name text NOT NULL,
    author_email text,
    student_id text,
    advisor_name text NOT NULL,
    department text NOT NULL,
    program text NOT NULL,
    university text NOT NULL,
    degree_level text NOT NULL,
    category_id text NOT NULL,
    language text NOT NULL,
    submission_date timestamptz NOT NULL,
    defense_date timestamptz,
    publication_year integer NOT NULL,
    status text NOT NULL DEFAULT 'PENDING',
    approval_date timestamptz,
    approved_by text,
    rejection_reason text,
    uploaded_by text,
    download_count integer NOT NULL DEFAULT 0,
    view_count integer NOT NULL DEFAULT 0,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS theses_status_idx ON theses (status);
CREATE INDEX IF NOT EXISTS theses_category_idx ON theses (category_id);
`

// SQLite stores timestamps as unix milliseconds and permissions as JSON text.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS admin_accounts (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'ADMIN',
    admin_id TEXT UNIQUE,
    birthdate INTEGER,
    college TEXT,
    department TEXT,
    position TEXT NOT NULL DEFAULT 'Admin Officer',
    permissions TEXT NOT NULL DEFAULT '[]',
    status TEXT NOT NULL DEFAULT 'ACTIVE',
    email_verified_at INTEGER,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS student_accounts (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'USER',
    student_id TEXT NOT NULL UNIQUE,
    birthdate INTEGER,
    college TEXT,
    department TEXT,
    course TEXT,
    email_verified_at INTEGER,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    code TEXT NOT NULL UNIQUE,
    description TEXT,
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS theses (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    abstract TEXT NOT NULL,
    author_name TEXT NOT NULL,
    author_email TEXT,
    student_id TEXT,
    advisor_name TEXT NOT NULL,
    department TEXT NOT NULL,
    program TEXT NOT NULL,
    university TEXT NOT NULL,
    degree_level TEXT NOT NULL,
    category_id TEXT NOT NULL,
    language TEXT NOT NULL,
    submission_date INTEGER NOT NULL,
    defense_date INTEGER,
    publication_year INTEGER NOT NULL,
    status TEXT NOT NULL DEFAULT 'PENDING',
    approval_date INTEGER,
    approved_by TEXT,
    rejection_reason TEXT,
    uploaded_by TEXT,
    download_count INTEGER NOT NULL DEFAULT 0,
    view_count INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS theses_status_idx ON theses (status);
CREATE INDEX IF NOT EXISTS theses_category_idx ON theses (category_id);
`
