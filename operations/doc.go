// Package operations routes a contact-flow invocation to one of the CRM
// operations (lookup, create, update, phoneLookup). Raw parameters are decoded
// into a typed message per operation, each served by a go-command Querier, and
// the CRM response is shaped into a result envelope.
package operations
