// Package logger provides a singleton Zap logger with context-based scoping.
//
// # Design Decisions
//
//   - Singleton: one global instance initialized with Init().
//   - Context scoping: each request can carry its own scoped logger with
//     extra fields (request_id, user_id, provider) without a new core.
//   - Environments: "dev" uses colored console output, "prod" uses JSON.
//   - Levels: debug, info, warn, error.
//
// # Usage
//
// Initialization (once, in main):
//
//	logger.Init(logger.Config{
//	    Env:   cfg.App.Env,
//	    Level: cfg.App.LogLevel,
//	})
//	defer logger.Sync()
//
// In handlers/services (with context):
//
//	log := logger.From(ctx)
//	log.Info("exchange completed", logger.Provider(name), logger.UserID(uid))
//
// Without context (falls back to the singleton):
//
//	logger.L().Info("server started")
package logger
