package remote

import "strings"

// CaptionCodes toggles closed captions
var CaptionCodes = []string{"CC_OFF", "CC_ON"}

// AspectCodes select the aspect ratio directly
var AspectCodes = []string{
	"ASPECT_CORRECTION_ZOOM",
	"ASPECT_CORRECTION_PANEL",
	"ASPECT_CORRECTION_FULL",
	"ASPECT_CORRECTION_WIDE_ZOOM",
}

// VideoModeCodes switch the output video mode
var VideoModeCodes = []string{
	"VIDEO_MODE_FIXED_480i",
	"VIDEO_MODE_FIXED_480p",
	"VIDEO_MODE_FIXED_720p",
	"VIDEO_MODE_FIXED_1080i",
	"VIDEO_MODE_HYBRID",
	"VIDEO_MODE_HYBRID_720p",
	"VIDEO_MODE_HYBRID_1080i",
	"VIDEO_MODE_NATIVE",
}

// Buttons maps remote button names to IRCODE tokens
var Buttons = map[string]string{
	"TiVo":        "TIVO",
	"Info":        "INFO",
	"LiveTv":      "LIVETV",
	"Back":        "BACK",
	"Guide":       "GUIDE",
	"Up":          "UP",
	"Left":        "LEFT",
	"Right":       "RIGHT",
	"Down":        "DOWN",
	"Select":      "SELECT",
	"ThumbsDown":  "THUMBSDOWN",
	"ThumbsUp":    "THUMBSUP",
	"ChannelUp":   "CHANNELUP",
	"ChannelDown": "CHANNELDOWN",
	"Play":        "PLAY",
	"Reverse":     "REVERSE",
	"Pause":       "PAUSE",
	"Forward":     "FORWARD",
	"Replay":      "REPLAY",
	"Slow":        "SLOW",
	"Advance":     "ADVANCE",
	"A":           "ACTION_A",
	"B":           "ACTION_B",
	"C":           "ACTION_C",
	"D":           "ACTION_D",
	"Clear":       "CLEAR",
	"Enter":       "ENTER",
	"Num0":        "NUM0",
	"Num1":        "NUM1",
	"Num2":        "NUM2",
	"Num3":        "NUM3",
	"Num4":        "NUM4",
	"Num5":        "NUM5",
	"Num6":        "NUM6",
	"Num7":        "NUM7",
	"Num8":        "NUM8",
	"Num9":        "NUM9",
}

// CommandAliases maps host media-center command names onto button names
var CommandAliases = map[string]string{
	"Home":           "TiVo",
	"FastForward":    "Forward",
	"BigStepForward": "Advance",
	"Rewind":         "Reverse",
	"BigStepBack":    "Replay",
}

// KeyboardCodes maps unshifted characters to key tokens
var KeyboardCodes = map[rune]string{
	' ':  "SPACE",
	'-':  "MINUS",
	'=':  "EQUALS",
	'[':  "LBRACKET",
	']':  "RBRACKET",
	'\\': "BACKSLASH",
	';':  "SEMICOLON",
	'\'': "QUOTE",
	',':  "COMMA",
	'.':  "PERIOD",
	'/':  "SLASH",
	'`':  "BACKQUOTE",
	'1':  "NUM1",
	'2':  "NUM2",
	'3':  "NUM3",
	'4':  "NUM4",
	'5':  "NUM5",
	'6':  "NUM6",
	'7':  "NUM7",
	'8':  "NUM8",
	'9':  "NUM9",
	'0':  "NUM0",
}

// ShiftedKeyboardCodes maps shifted characters to the key pressed with LSHIFT
var ShiftedKeyboardCodes = map[rune]string{
	'_': "MINUS",
	'+': "EQUALS",
	'{': "LBRACKET",
	'}': "RBRACKET",
	'|': "BACKSLASH",
	':': "SEMICOLON",
	'"': "QUOTE",
	'<': "COMMA",
	'>': "PERIOD",
	'?': "SLASH",
	'~': "BACKQUOTE",
	'!': "NUM1",
	'@': "NUM2",
	'#': "NUM3",
	'$': "NUM4",
	'%': "NUM5",
	'^': "NUM6",
	'&': "NUM7",
	'*': "NUM8",
	'(': "NUM9",
	')': "NUM0",
}

// ShiftToken is sent before a shifted key or an uppercase letter
const ShiftToken = "LSHIFT"

// numericCodes is the digits-and-space subset used by LayoutNumeric
var numericCodes = func() map[rune]string {
	m := map[rune]string{' ': "SPACE"}
	for ch := '0'; ch <= '9'; ch++ {
		m[ch] = KeyboardCodes[ch]
	}
	return m
}()

// lookup indexes for case-insensitive resolution
var (
	buttonIndex = lowerIndex(Buttons)
	aliasIndex  = lowerIndex(CommandAliases)
)

func lowerIndex(m map[string]string) map[string]string {
	idx := make(map[string]string, len(m))
	for k, v := range m {
		idx[strings.ToLower(k)] = v
	}
	return idx
}

// LookupButton resolves a button or alias name (case-insensitive) to its token
func LookupButton(name string) (string, bool) {
	key := strings.ToLower(name)
	if target, ok := aliasIndex[key]; ok {
		key = strings.ToLower(target)
	}
	token, ok := buttonIndex[key]
	return token, ok
}
