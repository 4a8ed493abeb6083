package utils

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procMessageBoxW         = user32.NewProc("MessageBoxW")
	procGetForegroundWindow = user32.NewProc("GetForegroundWindow")
	procSetForegroundWindow = user32.NewProc("SetForegroundWindow")
)

const mbIconError = 0x00000010

// ShowDialog pops a blocking native message box. Used only for fatal startup
// errors, before the logger or dashboard are available.
func ShowDialog(title, message string) {
	t, _ := syscall.UTF16PtrFromString(title)
	m, _ := syscall.UTF16PtrFromString(message)
	procMessageBoxW.Call(0, uintptr(unsafe.Pointer(m)), uintptr(unsafe.Pointer(t)), mbIconError)
}

// ForegroundWindow returns the handle of the currently focused window.
func ForegroundWindow() uintptr {
	hwnd, _, _ := procGetForegroundWindow.Call()
	return hwnd
}

// FocusWindow brings the given window to the foreground. Returns false when
// the OS refuses the focus change (e.g. foreground lock timeout).
func FocusWindow(hwnd uintptr) bool {
	if ForegroundWindow() == hwnd {
		return true
	}
	ok, _, _ := procSetForegroundWindow.Call(hwnd)
	return ok != 0
}
