// Package authrouter is a pluggable authentication router: it validates
// username/password credentials, registers users into a caller supplied
// storage collection, and issues HMAC signed JWT bearer tokens that gate
// access to per user sub resources.
//
// The storage collection is a collaborator satisfying the narrow UserStore
// interface; the package never implements persistence itself. Signing
// secrets are provisioned lazily per collection namespace through a
// SecretStore, so tokens issued for a given collection keep verifying
// across restarts.
package authrouter
