package wmpc

// ButtonState holds the two core button bytes exactly as they arrive on the
// wire.  Bits 5 and 6 of each byte carry accelerometer LSBs and are masked off
// by ButtonsFromSlice.
type ButtonState [2]byte

type ButtonID int16

// First byte of ButtonState.
const (
	Button_Left ButtonID = 0x000 + (1 << iota)
	Button_Right
	Button_Down
	Button_Up
	Button_Plus
)

// Second byte of ButtonState.
const (
	Button_Two ButtonID = 0x100 + (1 << iota)
	Button_One
	Button_B
	Button_A
	Button_Minus
	_
	_
	Button_Home
)

const (
	coreButtonMask0 = byte(Button_Left | Button_Right | Button_Down | Button_Up | Button_Plus)
	coreButtonMask1 = byte((Button_Two | Button_One | Button_B | Button_A | Button_Minus | Button_Home) & 0xFF)
)

var ButtonList = []ButtonID{
	Button_A,
	Button_B,
	Button_One,
	Button_Two,
	Button_Minus,
	Button_Plus,
	Button_Home,
}

var DPadList = []ButtonID{
	Button_Up,
	Button_Down,
	Button_Left,
	Button_Right,
}

var buttonNameMap = map[ButtonID]string{
	Button_A:     "A",
	Button_B:     "B",
	Button_One:   "1",
	Button_Two:   "2",
	Button_Minus: "-",
	Button_Plus:  "+",
	Button_Home:  "HOME",
	Button_Up:    "Up",
	Button_Down:  "Down",
	Button_Left:  "Left",
	Button_Right: "Right",
}

func (b ButtonID) String() string {
	return buttonNameMap[b]
}

// ButtonsFromSlice copies the core button bytes from the start of a report
// payload, dropping the accelerometer bits.
func ButtonsFromSlice(b []byte) ButtonState {
	var result ButtonState
	result[0] = b[0] & coreButtonMask0
	result[1] = b[1] & coreButtonMask1
	return result
}

// Get the state of a single ButtonID.
func (b ButtonState) Get(i ButtonID) bool {
	return b[(i&0x0100)>>8]&byte(i&0xFF) != 0
}

func (b ButtonState) Set(i ButtonID, state bool) ButtonState {
	b[(i&0x0100)>>8] &^= byte(i & 0xFF)
	if state {
		b[(i&0x0100)>>8] |= byte(i & 0xFF)
	}
	return b
}

// Union returns a ButtonState with all 'on' positions contained in either argument.
func (b ButtonState) Union(other ButtonState) ButtonState {
	return ButtonState{b[0] | other[0], b[1] | other[1]}
}

// DiffMask returns a ButtonState with a '1' bit everywhere that this state differs from `other`.
func (b ButtonState) DiffMask(other ButtonState) ButtonState {
	return ButtonState{b[0] ^ other[0], b[1] ^ other[1]}
}

func (b ButtonState) HasAny(mask ButtonState) bool {
	return b[0]&mask[0] != 0 || b[1]&mask[1] != 0
}

// NunchukButton bits are reported active-low in byte 5 of the Nunchuk payload;
// NunchukState stores them active-high.
type NunchukButton byte

const (
	Nunchuk_Z NunchukButton = 1 << iota
	Nunchuk_C
)

// ClassicButton is a mask over the two (inverted) button bytes of the
// Classic Controller payload, byte 4 in the low half.
type ClassicButton uint16

const (
	_ ClassicButton = 1 << iota
	Classic_R
	Classic_Plus
	Classic_Home
	Classic_Minus
	Classic_L
	Classic_Down
	Classic_Right
	Classic_Up
	Classic_Left
	Classic_ZR
	Classic_X
	Classic_A
	Classic_Y
	Classic_B
	Classic_ZL
)

var ClassicButtonList = []ClassicButton{
	Classic_A, Classic_B, Classic_X, Classic_Y,
	Classic_ZL, Classic_ZR, Classic_Minus, Classic_Plus, Classic_Home,
}

var ClassicDPadList = []ClassicButton{
	Classic_Up, Classic_Down, Classic_Left, Classic_Right,
}

var classicNameMap = map[ClassicButton]string{
	Classic_A:     "A",
	Classic_B:     "B",
	Classic_X:     "X",
	Classic_Y:     "Y",
	Classic_ZL:    "ZL",
	Classic_ZR:    "ZR",
	Classic_L:     "L",
	Classic_R:     "R",
	Classic_Minus: "-",
	Classic_Plus:  "+",
	Classic_Home:  "HOME",
	Classic_Up:    "Up",
	Classic_Down:  "Down",
	Classic_Left:  "Left",
	Classic_Right: "Right",
}

func (b ClassicButton) String() string {
	return classicNameMap[b]
}
