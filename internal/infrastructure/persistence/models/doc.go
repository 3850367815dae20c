// Package models contains the gorm persistence models. They are kept apart
// from the domain types so the domain stays free of ORM tags; each model
// converts with ToDomain and FromDomain.
//
// Multilingual text, addresses and other nested values are stored as JSON
// columns, which works on PostgreSQL (jsonb) and on SQLite in tests.
package models
