package entity

import "strings"

// Method - a connection method the user can pick. Only MethodWebRTC is backed by a real link.
type Method string

const (
	MethodNone      Method = ""
	MethodWebRTC    Method = "webrtc"
	MethodBluetooth Method = "bluetooth"
	MethodHotspot   Method = "hotspot"
	MethodQR        Method = "qr"
)

var Methods = []Method{MethodWebRTC, MethodBluetooth, MethodHotspot, MethodQR}

func ParseMethod(raw string) (Method, bool) {
	method := Method(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Methods {
		if method == known {
			return method, true
		}
	}

	return MethodNone, false
}

// IsDirect - reports whether the method opens a real peer link.
func (that Method) IsDirect() bool {
	return that == MethodWebRTC
}

func (that Method) DisplayName() string {
	switch that {
	case MethodWebRTC:
		return "WebRTC"
	case MethodBluetooth:
		return "Bluetooth"
	case MethodHotspot:
		return "WiFi Hotspot"
	case MethodQR:
		return "QR Code"
	default:
		return string(that)
	}
}
