// Package postgres stores the ingest run ledger in PostgreSQL through GORM.
//
// The client keeps a single *gorm.DB behind an RWMutex. While the fx
// lifecycle is running, a monitor pings the database periodically and a
// retry loop swaps in a fresh connection after a failed ping.
//
// Basic Usage:
//
//	pg, err := postgres.NewPostgres(cfg, log)
//	if err != nil {
//		return err
//	}
//	defer pg.Close()
//
//	if err := pg.Migrate(ctx, &Run{}); err != nil {
//		return err
//	}
//	err = pg.Create(ctx, &Run{ID: id, Status: "scheduled"})
//
//	var recent []Run
//	err = pg.Query(ctx).Order("created_at DESC").Limit(10).Find(&recent)
//
// Errors from GORM are mapped with TranslateError, so callers can test for
// ErrRecordNotFound and ErrDuplicateKey with errors.Is.
//
// FX Module Integration:
//
//	app := fx.New(
//		fx.Supply(cfg.Postgres),
//		postgres.FXModule,
//	)
//
// Thread Safety:
//
// All methods are safe for concurrent use. A QueryBuilder holds the read
// lock until Find, Count or Done is called, so it must not be shared or
// abandoned.
package postgres
