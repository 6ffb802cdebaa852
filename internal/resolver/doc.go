// Package resolver decides which endpoints to check for an environment.
//
// Resolve walks a fallback chain over the settings document, stopping at
// the first non-empty endpoint list:
//
//  1. <env>.ApiEndpoints
//  2. ApiEndpointsByEnvironment.<env>
//  3. ApiEndpoints at the top level
//  4. ApiEndpoints of the first top-level section that has any
//
// Missing or empty locations are never errors; when every step comes up
// empty the result is an empty list.
package resolver
