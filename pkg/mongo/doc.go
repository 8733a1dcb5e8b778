// Package mongo connects to MongoDB with environment driven settings and retries.
//
// # Usage
//
//	cfg, err := config.Load[mongo.Config]()
//	if err != nil {
//		return err
//	}
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
//	health := mongo.Healthcheck(db.Client())
//
// # Error Handling
//
// Connection failures wrap ErrFailedToConnectToMongo together with the last driver
// error; health checks wrap ErrHealthcheckFailed.
package mongo
