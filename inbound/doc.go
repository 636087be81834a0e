// Package inbound adapts Amazon Connect contact-flow Lambda events to the
// operation dispatcher.
package inbound
