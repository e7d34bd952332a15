// Package mock provides a stub metaverse account API for unit tests.
//
// The Service simulates the password-grant token endpoint, the profile and
// wallet lookups and the public key upload without real network round-trips;
// tests usually mount it on an httptest server. Every endpoint handler can be
// overridden per test.
package mock
