package bridge

// Op names a bridge operation. Call ops are methods on Bridge with the
// same name; notification ops are events emitted to the surface.
type Op string

// Kind separates request/acknowledge calls from fire-and-forget messages
type Kind int

const (
	KindCall Kind = iota
	KindFireAndForget
	KindNotification
)

func (k Kind) String() string {
	switch k {
	case KindCall:
		return "call"
	case KindFireAndForget:
		return "fire-and-forget"
	case KindNotification:
		return "notification"
	default:
		return "unknown"
	}
}

const (
	OpGetAppVersion        Op = "GetAppVersion"
	OpMinimizeWindow       Op = "MinimizeWindow"
	OpToggleMaximizeWindow Op = "ToggleMaximizeWindow"
	OpCloseWindow          Op = "CloseWindow"
	OpGetSetting           Op = "GetSetting"
	OpSetSetting           Op = "SetSetting"
	OpGetAllSettings       Op = "GetAllSettings"
	OpOpenSettings         Op = "OpenSettings"
	OpCloseSettings        Op = "CloseSettings"
	OpUpdateHotkey         Op = "UpdateHotkey"
	OpUpdateMicrophone     Op = "UpdateMicrophone"
	OpCheckForUpdates      Op = "CheckForUpdates"
	OpRetryConnection      Op = "RetryConnection"
	OpGetErrorDetails      Op = "GetErrorDetails"
	OpLog                  Op = "Log"

	// core -> surface
	OpHotkeyTriggered   Op = "hotkey:triggered"
	OpMicrophoneChanged Op = "microphone:changed"
)

// Entry describes one row of the operation table
type Entry struct {
	Op   Op
	Kind Kind
}

var table = []Entry{
	{OpGetAppVersion, KindCall},
	{OpMinimizeWindow, KindFireAndForget},
	{OpToggleMaximizeWindow, KindFireAndForget},
	{OpCloseWindow, KindFireAndForget},
	{OpGetSetting, KindCall},
	{OpSetSetting, KindCall},
	{OpGetAllSettings, KindCall},
	{OpOpenSettings, KindFireAndForget},
	{OpCloseSettings, KindFireAndForget},
	{OpUpdateHotkey, KindCall},
	{OpUpdateMicrophone, KindCall},
	{OpCheckForUpdates, KindCall},
	{OpRetryConnection, KindCall},
	{OpGetErrorDetails, KindCall},
	{OpLog, KindFireAndForget},
	{OpHotkeyTriggered, KindNotification},
	{OpMicrophoneChanged, KindNotification},
}

// Ops returns the full operation table
func Ops() []Entry {
	return append([]Entry(nil), table...)
}

// Lookup returns the table entry for op
func Lookup(op Op) (Entry, bool) {
	for _, e := range table {
		if e.Op == op {
			return e, true
		}
	}
	return Entry{}, false
}
