package bluez

const (
	BusName = "org.bluez"

	Device1Interface  = "org.bluez.Device1"
	Adapter1Interface = "org.bluez.Adapter1"

	ObjectManagerInterface = "org.freedesktop.DBus.ObjectManager"
	InterfacesAdded        = ObjectManagerInterface + ".InterfacesAdded"
	InterfacesRemoved      = ObjectManagerInterface + ".InterfacesRemoved"

	PropertiesInterface = "org.freedesktop.DBus.Properties"
	PropertiesChanged   = PropertiesInterface + ".PropertiesChanged"
)

// The Bluetooth profile of interest to us.
const (
	HIDProfileShort    = 0x1124
	HIDProfileUUIDStrU = "00001124-0000-1000-8000-00805F9B34FB"
	HIDProfileUUIDStrL = "00001124-0000-1000-8000-00805f9b34fb"
)
