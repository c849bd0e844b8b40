package wmpc

import "fmt"

const (
	VENDOR_NINTENDO       = 0x057e
	WIIMOTE_PRODUCT       = 0x0306 // RVL-CNT-01
	WIIMOTE_PRODUCT_TR    = 0x0330 // RVL-CNT-01-TR
	WIIMOTE_NAME          = "Nintendo RVL-CNT-01"
	WIIMOTE_NAME_TR       = "Nintendo RVL-CNT-01-TR"
	MaxPayloadSize        = 21
	MemoryChunkSize       = 16
	CalibrationMagic byte = 0x55
)

// HID transaction headers.  Every report handled by the engine carries one of
// these in byte 0; the transports strip or add it as the OS requires.
const (
	HIDInputTag  byte = 0xa1
	HIDOutputTag byte = 0xa2

	// framing tag + report identity
	HeaderSize = 2
	// smallest buffer a transport may hand us
	MinReportSize = 4
)

// ReportID is the second byte of every report.
type ReportID byte

// Host -> remote.
const (
	OutputRumble         ReportID = 0x10
	OutputLEDs           ReportID = 0x11
	OutputReportMode     ReportID = 0x12
	OutputIRLogicEnable  ReportID = 0x13
	OutputSpeakerEnable  ReportID = 0x14
	OutputRequestStatus  ReportID = 0x15
	OutputWriteData      ReportID = 0x16
	OutputReadData       ReportID = 0x17
	OutputSpeakerData    ReportID = 0x18
	OutputSpeakerMute    ReportID = 0x19
	OutputIRLogicEnable2 ReportID = 0x1a
)

// Remote -> host.
const (
	InputStatus        ReportID = 0x20
	InputReadDataReply ReportID = 0x21
	InputAck           ReportID = 0x22

	ReportCore              ReportID = 0x30
	ReportCoreAccel         ReportID = 0x31
	ReportCoreExt8          ReportID = 0x32
	ReportCoreAccelIR12     ReportID = 0x33
	ReportCoreExt19         ReportID = 0x34
	ReportCoreAccelExt16    ReportID = 0x35
	ReportCoreIR10Ext9      ReportID = 0x36
	ReportCoreAccelIR10Ext6 ReportID = 0x37
	ReportExt21             ReportID = 0x3d
	ReportInterleave1       ReportID = 0x3e
	ReportInterleave2       ReportID = 0x3f

	// Not a real identity; used as "mode never set".
	ReportDisabled ReportID = 0x00
)

// IsDataReport reports whether id belongs to the core-data family.
func (id ReportID) IsDataReport() bool {
	return id >= ReportCore && id <= ReportInterleave2
}

var reportNames = map[ReportID]string{
	OutputRumble:            "Rumble",
	OutputLEDs:              "LEDs",
	OutputReportMode:        "ReportMode",
	OutputIRLogicEnable:     "IRLogicEnable",
	OutputSpeakerEnable:     "SpeakerEnable",
	OutputRequestStatus:     "RequestStatus",
	OutputWriteData:         "WriteData",
	OutputReadData:          "ReadData",
	OutputSpeakerData:       "SpeakerData",
	OutputSpeakerMute:       "SpeakerMute",
	OutputIRLogicEnable2:    "IRLogicEnable2",
	InputStatus:             "Status",
	InputReadDataReply:      "ReadDataReply",
	InputAck:                "Ack",
	ReportCore:              "Core",
	ReportCoreAccel:         "CoreAccel",
	ReportCoreExt8:          "CoreExt8",
	ReportCoreAccelIR12:     "CoreAccelIR12",
	ReportCoreExt19:         "CoreExt19",
	ReportCoreAccelExt16:    "CoreAccelExt16",
	ReportCoreIR10Ext9:      "CoreIR10Ext9",
	ReportCoreAccelIR10Ext6: "CoreAccelIR10Ext6",
	ReportExt21:             "Ext21",
	ReportInterleave1:       "Interleave1",
	ReportInterleave2:       "Interleave2",
}

func (id ReportID) String() string {
	if s, ok := reportNames[id]; ok {
		return s
	}
	return fmt.Sprintf("Report(0x%02x)", byte(id))
}

// AddressSpace selects between the onboard EEPROM and the peripheral bus.
// It is the 2-bit field at bits 2-3 of the first request byte, so the
// peripheral bus goes on the wire as 0x04.
type AddressSpace byte

const (
	SpaceEEPROM AddressSpace = 0x00
	SpaceI2CBus AddressSpace = 0x01
)

// Peripheral bus slave addresses.
const (
	SlaveSpeaker          byte = 0x51
	SlaveExtension        byte = 0x52
	SlaveMotionPlusActive byte = 0x52 // an active M+ takes over the extension address
	SlaveMotionPlus       byte = 0x53
	SlaveCamera           byte = 0x58
)

// ErrorCode is the result byte carried by Ack and ReadDataReply reports.
type ErrorCode byte

const (
	ErrorSuccess        ErrorCode = 0
	ErrorBusy           ErrorCode = 4
	ErrorInvalidSpace   ErrorCode = 6
	ErrorNACK           ErrorCode = 7
	ErrorInvalidAddress ErrorCode = 8
)

func (e ErrorCode) Error() string {
	switch e {
	case ErrorSuccess:
		return "success"
	case ErrorBusy:
		return "peripheral busy"
	case ErrorInvalidSpace:
		return "invalid address space"
	case ErrorNACK:
		return "peripheral did not acknowledge"
	case ErrorInvalidAddress:
		return "invalid address"
	}
	return fmt.Sprintf("peripheral error 0x%02x", byte(e))
}

// Err returns nil for ErrorSuccess and e otherwise.
func (e ErrorCode) Err() error {
	if e == ErrorSuccess {
		return nil
	}
	return e
}
