package window

// Role identifies what a window is for
type Role string

const (
	RoleMain     Role = "main"
	RoleSettings Role = "settings"
)

// ContentMode is what the main window currently displays
type ContentMode int

const (
	ContentNone ContentMode = iota
	ContentRemote
	ContentFallback
)

func (c ContentMode) String() string {
	switch c {
	case ContentRemote:
		return "remote"
	case ContentFallback:
		return "fallback"
	default:
		return "none"
	}
}

// Options describe a window to create. Windows are always created hidden.
type Options struct {
	Role      Role
	Title     string
	Width     int
	Height    int
	MinWidth  int
	MinHeight int
	Modal     bool
}

// Host is the platform windowing layer
type Host interface {
	Create(opts Options) (Native, error)
	OpenExternal(url string) error
}

// Native is one platform window
type Native interface {
	Show()
	Focus()
	Hide()
	Minimize()
	ToggleMaximize()
	IsMaximized() bool
	Close()
	LoadURL(url string) error
	LoadFallback() error
	Emit(event string, payload any)
}

// Lifecycle is the platform convention for closing the main window
type Lifecycle struct {
	// HideOnClose hides the app on close; only an explicit quit ends it
	HideOnClose bool
	// QuitOnLastClose ends the process once no window is left
	QuitOnLastClose bool
}

// LifecycleFor returns the close convention of goos. macOS apps outlive
// their windows; everywhere else closing the main window quits.
func LifecycleFor(goos string) Lifecycle {
	if goos == "darwin" {
		return Lifecycle{HideOnClose: true}
	}
	return Lifecycle{QuitOnLastClose: true}
}
