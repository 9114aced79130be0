// Package errors turns autoroute failures into actionable CLI messages.
//
// Every error the CLI reports is classified under a code (e.g. "E120")
// that maps to a short message, a longer explanation and a hint:
//
//	err := errors.FromError(app.Boot(ctx))
//	errors.PrintError(err)
//	// ERROR E120: Unknown handler
//	//
//	//   routes/api/users.toml: registrar: unknown handler: users.index
//	//
//	//   A route names a handler that was never registered.
//	//
//	//   Hint: Register it with autoroute.WithHandler before Boot
//
// # Error Categories
//
//   - discovery: the route tree could not be walked
//   - routefile: a route file could not be decoded or validated
//   - registrar: routes could not be mounted
//   - source: the S3 route source failed
//   - config: autoroute.toml is missing or invalid
//   - cli: command usage errors
package errors
