// Package records implements the relic records workflows on top of gorm:
// client provisioning, relic and image management, adoptions (ownership
// transfers) and the visibility rules that decide which rows a user may see
// or change.
//
// Every function taking an actor treats rows outside the actor's writable
// scope as missing and returns ErrNotFound.
package records
