// Package broker implements publisher.Dialer on top of the Eclipse Paho MQTT
// client.
//
// Paho's asynchronous tokens are bridged to blocking waits bounded by the
// configured connect and acknowledgment timeouts. Auto-reconnect and connect
// retry are disabled: a run opens exactly one session.
package broker
