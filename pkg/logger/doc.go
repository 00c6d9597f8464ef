// Package logger provides a context-aware wrapper around Go's slog package
// adding functional options for configuration, helper attribute constructors,
// and transparent injection of values stored in context.Context.
//
// The single factory New creates a *slog.Logger configured by Option
// functions: output format (text or json), minimum level, static attributes
// applied to every record, and ContextExtractor callbacks that pull
// attributes from a context value each time Handle is invoked.
//
// Helper constructors such as Error, QueueID, WatchID and Object live in
// attr.go and keep attribute naming consistent across the notification
// packages.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithDevelopment("notify-daemon"),
//	    logger.WithContextValue("consumer", ctxKeyConsumer),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "queue created",
//	    logger.QueueID(id),
//	    logger.NoteCount(64),
//	)
//
// Error produces an attribute only when the supplied error is non-nil, so
// calls like log.Info("done", logger.Error(err)) need no nil check.
package logger
