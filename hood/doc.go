// Package hood implements the wire protocol and device handle for
// Fjäråskupan kitchen extractor hoods.
//
// The hoods expose a single GATT service. Commands are fixed-width ASCII
// strings prefixed with a four byte keycode and written to the RX
// characteristic. Device state is reported both through the TX
// characteristic and through broadcast manufacturer data, so a hood can be
// observed without connecting to it.
package hood
