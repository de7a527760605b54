// Package database opens and migrates the SQLite history store.
//
// benchctl appends every capture session, so the store is tuned for a
// single writer: WAL journal, one pooled connection, a busy timeout
// for the odd concurrent reader. The file is created 0600.
//
// Schema migrations are additive-only, embedded in the binary by the
// migrations package at the repository root, and applied on every
// start:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
package database
