// Package pg wires the durable session tier to PostgreSQL: pooled
// connections with startup retries, a health check closure, goose schema
// migrations, and error classification helpers for pgx.
//
// # Usage
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, slogger); err != nil {
//		log.Fatal(err)
//	}
//
//	store := session.NewPGDurableStore(pool)
//
// Migrations live in the migrations/ directory at the repository root and
// are applied with goose; PG_MIGRATIONS_PATH points elsewhere when the
// schema is embedded in a larger deployment.
package pg
