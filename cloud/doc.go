// Package cloud forwards recorded device messages to the ingestion
// websocket. The forwarder drains a queue, awaits a receipt per message,
// probes the connection when sends fail and reconnects until a terminal
// stop message has been acknowledged.
package cloud
