// Package mongostore persists two-factor records in a MongoDB users collection.
//
// Each update filters on both _id and version and increments version, so a
// concurrent writer that read the same version loses with twofactor.ErrConflict.
// The store also verifies bcrypt password hashes kept in the same document.
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	store := mongostore.New(db)
//	if err := store.EnsureIndexes(ctx); err != nil {
//	    return err
//	}
//	svc := twofactor.NewService(store, store, codec, engine)
//
// Integration tests run against MONGODB_TEST_URL and are skipped when it is unset.
package mongostore
