package remote

// Toggle cycles through a fixed list of tokens, one step per press.
//
// The box is never asked for its current mode, so the cursor is the only
// record of it and drifts if a press is lost on the way.
type Toggle struct {
	name   string
	codes  []string
	cursor int

	// preAdvance moves the cursor before choosing the token (captions);
	// otherwise the token under the cursor is sent first (aspect, video mode)
	preAdvance bool
}

// NewCaptionToggle alternates CC_ON and CC_OFF, starting with CC_ON
func NewCaptionToggle() *Toggle {
	return &Toggle{name: "captions", codes: CaptionCodes, preAdvance: true}
}

// NewAspectToggle cycles the four aspect correction modes, starting with ZOOM
func NewAspectToggle() *Toggle {
	return &Toggle{name: "aspect", codes: AspectCodes}
}

// NewVideoModeToggle cycles the eight video modes, starting with FIXED_480i
func NewVideoModeToggle() *Toggle {
	return &Toggle{name: "video_mode", codes: VideoModeCodes}
}

// Name identifies the toggle in logs
func (t *Toggle) Name() string {
	return t.name
}

// Cursor returns the current position in the code list
func (t *Toggle) Cursor() int {
	return t.cursor
}

// Len returns the number of states
func (t *Toggle) Len() int {
	return len(t.codes)
}

// Peek returns the token the next Advance would emit without moving the cursor
func (t *Toggle) Peek() string {
	token, _ := t.step()
	return token
}

// Advance moves to the next state and returns the token to send
func (t *Toggle) Advance() string {
	token, next := t.step()
	t.cursor = next
	return token
}

// Reset returns the toggle to its initial state
func (t *Toggle) Reset() {
	t.cursor = 0
}

func (t *Toggle) step() (string, int) {
	n := len(t.codes)
	if t.preAdvance {
		next := (t.cursor + 1) % n
		return t.codes[next], next
	}
	return t.codes[t.cursor], (t.cursor + 1) % n
}
