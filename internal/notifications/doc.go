// Package notifications mails the outcome of a run together with its
// diagnostics.
//
// The Dispatcher builds a plain-text body from the recorder's error and
// informational streams, attaches the newest log artifacts, and hands the
// message to a Transport: the mail(1) binary by default, or an SMTP relay.
// When mail is disabled NewTransport returns a no-op transport, so workflow
// code only ever depends on the Transport interface.
package notifications
