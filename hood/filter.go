package hood

import (
	"github.com/elupus/fjaraskupan-go/internal/device"
)

var normalizedServiceUUID = device.NormalizeUUID(ServiceUUID)

// DeviceFilter reports whether an advertisement belongs to a hood.
// A device matches on any of: the advertised control service, the known
// local name, or the manufacturer data announce prefix.
func DeviceFilter(adv device.Advertisement) bool {
	for _, svc := range adv.Services() {
		if device.NormalizeUUID(svc) == normalizedServiceUUID {
			return true
		}
	}

	if adv.LocalName() == DeviceName {
		return true
	}

	return HasAnnouncePrefix(adv.ManufacturerData())
}
