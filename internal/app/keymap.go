package app

// Key binding constants used in handleKey.
const (
	KeyQuit        = "q"
	KeyQuitUpper   = "Q"
	KeyCtrlC       = "ctrl+c"
	KeyTab         = "tab"
	KeyShiftTab    = "shift+tab"
	KeyUp          = "up"
	KeyDown        = "down"
	KeyLeft        = "left"
	KeyRight       = "right"
	KeyEnter       = "enter"
	KeyEsc         = "esc"
	KeyBackspace   = "backspace"
	KeyOpen        = "o"
	KeyGenerate    = "g"
	KeySpectrogram = "s"
	KeyPlayback    = "p"
	KeyDownload    = "d"
	KeyClassify    = "c"
	KeyPolarMode   = "m"
	KeyRecurrence  = "e"
	KeyStatistics  = "t"
	KeyInspect     = "a"
	KeyReset       = "r"
	KeyExport      = "x"
)
