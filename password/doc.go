// Package password hashes and verifies login credentials with argon2id,
// serialized in PHC string format so cost parameters travel with the hash.
package password
