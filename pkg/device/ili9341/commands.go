package ili9341

const (
	cmdSoftwareReset        = 0x01
	cmdReadID               = 0x04
	cmdStatusInfo           = 0x09
	cmdSleepModeOn          = 0x10
	cmdSleepModeOff         = 0x11
	cmdInvertOff            = 0x20
	cmdInvertOn             = 0x21
	cmdDisplayOff           = 0x28
	cmdDisplayOn            = 0x29
	cmdColumnAddressSet     = 0x2A
	cmdPageAddressSet       = 0x2B
	cmdMemoryWrite          = 0x2C
	cmdVerticalScrollDefine = 0x33
	cmdMemoryAccessControl  = 0x36
	cmdVerticalScrollAddr   = 0x37
	cmdIdleModeOff          = 0x38
	cmdIdleModeOn           = 0x39
	cmdPixelFormatSet       = 0x3A
	cmdSetBrightness        = 0x51
	cmdAdaptiveBrightness   = 0x55
	cmdNormalModeFrameRate  = 0xB1
	cmdIdleModeFrameRate    = 0xB2
)

// 16 bits per pixel on both the RGB and MCU interface.
const pixelFormat16 = 0x55

type AdaptiveBrightness uint8

const (
	AdaptiveOff           AdaptiveBrightness = 0x00
	AdaptiveUserInterface AdaptiveBrightness = 0x01
	AdaptiveStillPicture  AdaptiveBrightness = 0x02
	AdaptiveMovingImage   AdaptiveBrightness = 0x03
)

type ClockDivision uint8

const (
	Fosc     ClockDivision = 0x00
	FoscDiv2 ClockDivision = 0x01
	FoscDiv4 ClockDivision = 0x02
	FoscDiv8 ClockDivision = 0x03
)

// FrameRate values are for Fosc division; the name is the rate in Hz.
type FrameRate uint8

const (
	FrameRate119 FrameRate = 0x10 + iota
	FrameRate112
	FrameRate106
	FrameRate100
	FrameRate95
	FrameRate90
	FrameRate86
	FrameRate83
	FrameRate79
	FrameRate76
	FrameRate73
	FrameRate70
	FrameRate68
	FrameRate65
	FrameRate63
	FrameRate61
)

func packRange(start, end uint16) []byte {
	return []byte{byte(start >> 8), byte(start), byte(end >> 8), byte(end)}
}
