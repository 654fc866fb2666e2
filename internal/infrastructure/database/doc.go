// Package database opens the SQLite file that holds the panel's dispatch
// history and applies the embedded schema migrations.
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration files are named VERSION_description.up.sql with an optional
// matching .down.sql, where VERSION is YYYYMMDD_HHMMSS. Versions are
// applied in lexical order.
package database
