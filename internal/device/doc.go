// Package device provides a transport-neutral abstraction over the BLE
// backend: scanning, advertisements, and GATT client connections.
//
// The goble subpackage implements these interfaces on top of go-ble/ble.
// Higher layers (hood, scanner, the CLI) depend only on this package, which
// keeps the BLE backend swappable and the domain logic testable without a
// radio.
package device
