// Package models contains GORM persistence models that map to database tables.
// Domain types carry no ORM tags; each model converts to and from its domain
// type with ToDomain / FromDomain.
//
// - base.go: BaseModel and AggregateModel (optimistic version column)
// - catalog.go: products, brands, categories
// - order.go: orders and their line items
package models
