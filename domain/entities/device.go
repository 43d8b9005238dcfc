package entities

// Device describes the viewport a probe renders in
type Device struct {
	Name              string
	Width             int
	Height            int
	DeviceScaleFactor float64
	IsMobile          bool
	HasTouch          bool
	UserAgent         string
}

// DesktopDevice is used when a probe names no device
var DesktopDevice = Device{
	Name:              "Desktop Chrome",
	Width:             1280,
	Height:            720,
	DeviceScaleFactor: 1,
}

// devices mirrors the descriptors of the browser vendors' device registries
var devices = map[string]Device{
	"iPhone 11": {
		Name:              "iPhone 11",
		Width:             414,
		Height:            715,
		DeviceScaleFactor: 2,
		IsMobile:          true,
		HasTouch:          true,
		UserAgent:         "Mozilla/5.0 (iPhone; CPU iPhone OS 12_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/13.0 Mobile/15E148 Safari/604.1",
	},
	"Pixel 5": {
		Name:              "Pixel 5",
		Width:             393,
		Height:            727,
		DeviceScaleFactor: 2.75,
		IsMobile:          true,
		HasTouch:          true,
		UserAgent:         "Mozilla/5.0 (Linux; Android 11; Pixel 5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
	},
	"Desktop Chrome": DesktopDevice,
}

// LookupDevice - returns the descriptor for a device name
func LookupDevice(name string) (Device, bool) {
	if name == "" {
		return DesktopDevice, true
	}
	d, ok := devices[name]
	return d, ok
}
