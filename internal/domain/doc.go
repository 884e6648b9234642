// Package domain contains shared domain types used across entity sub-packages.
// Entity-specific types live in sub-packages (domain/ordering, domain/presence,
// domain/document). This root package holds sentinel errors, validation types,
// and the Action interface used to stage store writes.
package domain
