// Package bluez watches BlueZ over the system D-Bus for Wii Remotes and
// keeps them connected.
//
// When a Device1 with a Wii Remote name is found or changes:
//  1. if it is not Trusted, set Trusted=true so it can reconnect on its own
//  2. if discovery is on and it is not Paired, call Pair()
//  3. if it is Paired but not Connected, ConnectProfile(HID)
//  4. every change of Connected is sent on the notification channel, so the
//     caller can rescan for new HID devices.
//
// PIN exchange is left to BlueZ's own wiimote plugin.
//
// errors from ConnectProfile():
// already connected: "device busy"
// generic (not in range..): "i/o error (36)"
package bluez
