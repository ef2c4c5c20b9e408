// Package services holds client use cases that span more than one store.
//
// HistoryService moves the in-memory clipboard history to and from the local
// database. Content is sealed with the shared key before it reaches disk.
package services
