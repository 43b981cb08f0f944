// Package models holds the GORM rows behind the catalog and supplier feed
// repositories. Domain types never carry gorm tags; each model converts to
// and from its aggregate with ToDomain and FromDomain.
//
// Product images are stored as a JSON array in a text column so that the same
// model works on postgres and on the sqlite database used by the tests.
package models
