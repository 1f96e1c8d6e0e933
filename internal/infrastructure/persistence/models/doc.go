// Package models contains the GORM persistence models for the batch ledger and
// invoices. Domain entities stay free of ORM tags; each model converts to and
// from its domain type with ToDomain / FromDomain.
//
// Column types are kept portable (uuid as varchar(36), money as decimal(18,4))
// so the same models run on PostgreSQL, MySQL and SQLite.
package models
