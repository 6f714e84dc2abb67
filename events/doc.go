// Package events provides a per-document event bus for streaming agent
// progress to clients and external systems.
//
// Agents publish lifecycle events (queued, running, completed, failed)
// keyed by document ID; the bus fans each event out to every sink
// registered for that document. Delivery is serialized per document so
// sinks observe events in publish order, and a failing or panicking sink
// never disturbs delivery to other sinks.
//
// Built-in sinks cover the common transports: ChannelSink backs the
// in-process subscribe API, SSEHandler and WebSocketHandler stream to
// browsers, NATSSink publishes to a message bus, and ExportSink batches
// events to an HTTP collector.
package events
