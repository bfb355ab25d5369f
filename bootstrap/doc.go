// Package bootstrap runs the service lifecycle.
//
//	app, err := bootstrap.NewApp(cfg)
//	app.RegisterComponent(redisComponent)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*Config]) error {
//	    // wire business services once infrastructure is up
//	    return nil
//	})
//	return app.Run(ctx)
package bootstrap
