// Package publisher runs the connect, publish, and disconnect sequence against
// an MQTT broker and condenses it into a Report.
//
// The broker transport is abstracted behind Dialer and Conn so the session
// logic is independent of the client library. Connect failures are
// classified (unreachable, authentication, timeout, other) for diagnostics;
// every failure is converted to Report state rather than returned.
package publisher
