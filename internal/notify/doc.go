// Package notify delivers login links by email.
//
// NotifyClient posts to the GC Notify email API. LogSender writes a masked
// record to the log instead and is meant for development.
package notify
