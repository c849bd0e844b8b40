package bluez

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"

	"github.com/riking/wiimote/wmpc"
)

// Notification is sent when a Wii Remote connects or disconnects.
type Notification struct {
	Path      dbus.ObjectPath
	MAC       [6]byte
	MACString string
	Connected bool
}

// ops are the BlueZ method calls the Manager makes on a device.
type ops interface {
	setTrusted(path dbus.ObjectPath) error
	pair(path dbus.ObjectPath) error
	connect(path dbus.ObjectPath) error
	setDiscovery(adapter dbus.ObjectPath, on bool) error
}

type Manager struct {
	// write-once
	conn    *dbus.Conn
	ops     ops
	notify  chan Notification
	signals chan *dbus.Signal
	log     *slog.Logger
	async   func(func())

	// protected by mu
	mu               sync.Mutex
	discoveryEnabled bool
	adapterPaths     []dbus.ObjectPath
	devicePaths      map[dbus.ObjectPath]deviceInfo
}

type dbusObjectNotify map[string]map[string]dbus.Variant

func newManager(o ops) *Manager {
	return &Manager{
		ops:         o,
		notify:      make(chan Notification, 16),
		log:         wmpc.Logger(wmpc.ComponentBluez),
		async:       func(f func()) { go f() },
		devicePaths: make(map[dbus.ObjectPath]deviceInfo),
	}
}

// New connects to the system bus.  Call InitialScan to start watching.
func New() (*Manager, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, errors.Wrap(err, "connect system bus")
	}
	m := newManager(busOps{conn})
	m.conn = conn
	m.signals = make(chan *dbus.Signal, 16)
	conn.Signal(m.signals)
	go m.handleChangeSignals()
	return m, nil
}

func (m *Manager) NotifyChannel() <-chan Notification {
	return m.notify
}

func (m *Manager) Close() error {
	if m.conn == nil {
		return nil
	}
	return m.conn.Close()
}

// InitialScan subscribes to BlueZ object changes and checks every object
// BlueZ already knows.
func (m *Manager) InitialScan() error {
	err := m.conn.AddMatchSignal(
		dbus.WithMatchSender(BusName),
		dbus.WithMatchInterface(ObjectManagerInterface),
		dbus.WithMatchObjectPath("/"),
	)
	if err != nil {
		return errors.Wrap(err, "subscribe to updates")
	}
	err = m.conn.AddMatchSignal(
		dbus.WithMatchSender(BusName),
		dbus.WithMatchInterface(PropertiesInterface),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchPathNamespace("/org/bluez"),
	)
	if err != nil {
		return errors.Wrap(err, "subscribe to updates")
	}

	var objects map[dbus.ObjectPath]dbusObjectNotify
	err = m.conn.Object(BusName, "/").
		Call(ObjectManagerInterface+".GetManagedObjects", 0).
		Store(&objects)
	if err != nil {
		return errors.Wrap(err, "get current objects")
	}
	for path, v := range objects {
		m.checkNewObject(path, v)
	}
	return nil
}

func (m *Manager) handleChangeSignals() {
	for sig := range m.signals {
		m.handleSignal(sig)
	}
}

func (m *Manager) handleSignal(sig *dbus.Signal) {
	switch sig.Name {
	case InterfacesAdded:
		var path dbus.ObjectPath
		var data dbusObjectNotify
		if err := dbus.Store(sig.Body, &path, &data); err != nil {
			m.log.Warn("bad InterfacesAdded signal", "err", err)
			return
		}
		m.checkNewObject(path, data)
	case InterfacesRemoved:
		var path dbus.ObjectPath
		var ifaces []string
		if err := dbus.Store(sig.Body, &path, &ifaces); err != nil {
			m.log.Warn("bad InterfacesRemoved signal", "err", err)
			return
		}
		m.processRemoval(path, ifaces)
	case PropertiesChanged:
		var iface string
		var changed map[string]dbus.Variant
		var invalidated []string
		if err := dbus.Store(sig.Body, &iface, &changed, &invalidated); err != nil {
			m.log.Warn("bad PropertiesChanged signal", "err", err)
			return
		}
		if iface == Device1Interface {
			m.checkDevice(sig.Path, changed)
		}
	default:
		m.log.Debug("unhandled dbus signal", "name", sig.Name, "path", sig.Path)
	}
}

func (m *Manager) checkNewObject(path dbus.ObjectPath, data dbusObjectNotify) {
	if _, ok := data[Adapter1Interface]; ok {
		m.mu.Lock()
		found := false
		for _, v := range m.adapterPaths {
			if v == path {
				found = true
				break
			}
		}
		if !found {
			m.adapterPaths = append(m.adapterPaths, path)
		}
		m.mu.Unlock()
		m.log.Info("found adapter", "path", path)
	}
	if props, ok := data[Device1Interface]; ok {
		m.checkDevice(path, props)
	}
}

func (m *Manager) processRemoval(path dbus.ObjectPath, ifaces []string) {
	for _, iface := range ifaces {
		switch iface {
		case Adapter1Interface:
			m.mu.Lock()
			for i, v := range m.adapterPaths {
				if v == path {
					m.adapterPaths = append(m.adapterPaths[:i], m.adapterPaths[i+1:]...)
					break
				}
			}
			m.mu.Unlock()
			m.log.Info("removed adapter", "path", path)
		case Device1Interface:
			m.mu.Lock()
			info := m.devicePaths[path]
			delete(m.devicePaths, path)
			m.mu.Unlock()

			if info.IsWiimote && info.Connected {
				m.emitNotify(path, false)
			}
		}
	}
}

func (m *Manager) checkDevice(path dbus.ObjectPath, props map[string]dbus.Variant) {
	m.mu.Lock()
	prev := m.devicePaths[path]
	cur := prev.merge(props)
	m.devicePaths[path] = cur
	discovering := m.discoveryEnabled
	m.mu.Unlock()

	if !cur.IsWiimote {
		return
	}
	if prev.Connected != cur.Connected {
		m.log.Info("wii remote connection changed", "path", path, "connected", cur.Connected)
		m.emitNotify(path, cur.Connected)
	}
	for _, a := range plan(prev, cur, discovering) {
		m.run(path, a)
	}
}

func (m *Manager) run(path dbus.ObjectPath, a action) {
	m.async(func() {
		var err error
		switch a {
		case actTrust:
			err = m.ops.setTrusted(path)
		case actPair:
			err = m.ops.pair(path)
		case actConnect:
			err = m.ops.connect(path)
		}
		if err != nil {
			m.log.Info("bluetooth request failed", "action", a, "device", strings.TrimPrefix(string(path), "/org/bluez/"), "err", err)
			return
		}
		m.log.Debug("bluetooth request done", "action", a, "path", path)
	})
}

func (m *Manager) emitNotify(path dbus.ObjectPath, connected bool) {
	n := Notification{Path: path, Connected: connected}
	var ok bool
	n.MAC, n.MACString, ok = parseMACPath(path)
	if !ok {
		m.log.Warn("could not parse device MAC", "path", path)
		return
	}
	select {
	case m.notify <- n:
	default:
		m.log.Warn("notification dropped", "path", path)
	}
}

// StartDiscovery asks every adapter to scan and connects every known remote
// that is paired but not connected.
func (m *Manager) StartDiscovery() {
	m.setDiscovery(true)

	m.mu.Lock()
	var deviceList []dbus.ObjectPath
	for path, info := range m.devicePaths {
		if info.IsWiimote && info.Paired && !info.Connected {
			deviceList = append(deviceList, path)
		}
	}
	m.mu.Unlock()
	for _, path := range deviceList {
		m.run(path, actConnect)
	}
}

func (m *Manager) StopDiscovery() {
	m.setDiscovery(false)
}

func (m *Manager) setDiscovery(on bool) {
	m.mu.Lock()
	m.discoveryEnabled = on
	adapterList := append([]dbus.ObjectPath(nil), m.adapterPaths...)
	m.mu.Unlock()

	for _, path := range adapterList {
		if err := m.ops.setDiscovery(path, on); err != nil {
			m.log.Warn("bluetooth discovery request failed", "adapter", path, "on", on, "err", err)
		}
	}
}

// Returns whether the manager object thinks Bluetooth discovery is enabled.
func (m *Manager) IsDiscoveryEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.discoveryEnabled
}

// busOps makes the calls on the system bus.
type busOps struct {
	conn *dbus.Conn
}

func (b busOps) setTrusted(path dbus.ObjectPath) error {
	return b.conn.Object(BusName, path).SetProperty(Device1Interface+".Trusted", dbus.MakeVariant(true))
}

func (b busOps) pair(path dbus.ObjectPath) error {
	return b.conn.Object(BusName, path).Call(Device1Interface+".Pair", 0).Err
}

func (b busOps) connect(path dbus.ObjectPath) error {
	return b.conn.Object(BusName, path).Call(Device1Interface+".ConnectProfile", 0, HIDProfileUUIDStrU).Err
}

func (b busOps) setDiscovery(adapter dbus.ObjectPath, on bool) error {
	method := Adapter1Interface + ".StopDiscovery"
	if on {
		method = Adapter1Interface + ".StartDiscovery"
	}
	return b.conn.Object(BusName, adapter).Call(method, 0).Err
}
