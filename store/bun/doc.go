// Package bunstore implements store.Store using the Bun ORM with PostgreSQL
// dialect. Suitable for deployments where job state must survive process
// restarts and be shared across instances.
//
// The caller owns the *bun.DB lifecycle; bunstore never closes it. Pass the
// db handle through the constructor:
//
//	import (
//	    "github.com/uptrace/bun"
//	    "github.com/uptrace/bun/dialect/pgdialect"
//	    "github.com/uptrace/bun/driver/pgdriver"
//	    bunstore "github.com/nicholidev/eco-mentor/store/bun"
//	)
//
//	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
//	db := bun.NewDB(sqldb, pgdialect.New())
//	st := bunstore.New(db)
//	st.Migrate(ctx)
package bunstore
