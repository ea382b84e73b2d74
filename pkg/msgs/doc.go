// Package msgs defines the messages published by the capture service.
//
// Snapshot is protobuf encoded (see snapshot.proto), Meta is JSON so it
// can be read with any MQTT client.
package msgs
