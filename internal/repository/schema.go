package repository

import _ "embed"

// Schema creates every table the postgres store needs. Statements are idempotent.
//
//go:embed migrations/001_init.sql
var Schema string
