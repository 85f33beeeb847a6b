// Package remote is a network remote control client for TiVo boxes.
//
// A Client owns one TCP connection to the box and turns host commands into
// IRCODE and KEYBOARD lines. It keeps three toggle cursors (closed captions,
// aspect ratio, video mode) that model buttons cycling through fixed modes, and
// a StatusReader can read what the box reports back on the same socket.
//
// # Connection Lifecycle
//
//	client := remote.NewClient("192.168.1.20", remote.DefaultPort)
//	if err := client.Connect(ctx); err != nil {
//	    // remote.IsConnectionError(err) / remote.IsTimeout(err)
//	}
//	defer client.Disconnect()
//
// Sends never reconnect by themselves. Without a live socket they return an
// error for which IsNotConnected is true and nothing is written. A failed write
// drops the socket; call Connect or Reconnect to continue.
//
// # Commands
//
// SendCommand resolves host command names in three steps:
//
//  1. The button table and the media-center aliases (Home, FastForward,
//     BigStepForward, Rewind, BigStepBack), matched case-insensitively.
//  2. Toggle actions: ShowSubtitles, FullScreen and VideoMode.
//  3. Anything else is capitalized and sent verbatim. This pass-through keeps
//     codes missing from the tables usable and is not an error.
//
// Lower level, SendIR and SendKeyboard accept tokens and nested sequences:
//
//	client.SendIR(remote.Token("UP"), remote.Tokens("DOWN", "DOWN"))
//	// IRCODE UP\r IRCODE DOWN\r IRCODE DOWN\r
//
// # Text Entry
//
// SendText types free text in one of three ways: walking an on-screen A-Z grid
// with arrow keys, direct IRCODE letters and symbols, or KEYBOARD commands on
// newer hardware. See TextOptions.
//
// # Status
//
//	client.OnStatus(func(s remote.Status) { fmt.Println(s.Text) })
//	reader := client.NewStatusReader(remote.StatusText)
//	if err := reader.Start(ctx); err != nil {
//	    return err
//	}
//	defer reader.Stop()
//
// A reader uses either text or packet framing for its whole session.
//
// # Thread Safety
//
// One sender and one StatusReader may use a Client concurrently. Senders must
// be serialized by the caller.
package remote
