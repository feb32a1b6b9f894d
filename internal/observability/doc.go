// Package observability builds the service's structured logger.
//
// Logs are written with zap: JSON in deployed environments, a colourised
// console encoder for local development. Request scoped fields such as the
// request id are attached by the HTTP middleware, not here.
package observability
