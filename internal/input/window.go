package input

import (
	"context"
	"fmt"
	"log/slog"
	"syscall"
	"time"

	"github.com/lxn/win"

	"github.com/kaelthys/atreia/internal/config"
	"github.com/kaelthys/atreia/internal/utils"
)

const (
	keyPressMeanTime = 65 // ms, humanized around the mean by utils.Sleep
	clickGapMinTime  = 60
	clickGapMaxTime  = 140
)

// WindowDispatcher delivers primitive actions to the game window through
// window messages, so the game receives input without the cursor leaving the
// player's control. Coordinates are client-area relative.
type WindowDispatcher struct {
	hwnd   win.HWND
	logger *slog.Logger
}

// NewWindowDispatcher resolves the game window by title.
func NewWindowDispatcher(windowTitle string, logger *slog.Logger) (*WindowDispatcher, error) {
	title, err := syscall.UTF16PtrFromString(windowTitle)
	if err != nil {
		return nil, err
	}
	hwnd := win.FindWindow(nil, title)
	if hwnd == 0 {
		return nil, fmt.Errorf("game window %q not found", windowTitle)
	}
	if !utils.FocusWindow(uintptr(hwnd)) {
		logger.Warn("Could not bring game window to foreground", slog.String("window", windowTitle))
	}
	return &WindowDispatcher{hwnd: hwnd, logger: logger}, nil
}

// Dispatch executes the actions in order. Cancellation is observed between
// actions; a single click or key press is never interrupted halfway. The
// first failure aborts the rest of the sequence.
func (d *WindowDispatcher) Dispatch(ctx context.Context, actions ...Action) error {
	for _, a := range actions {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch act := a.(type) {
		case Click:
			d.click(act)
		case PressKey:
			if err := d.pressKey(act); err != nil {
				return err
			}
		case Wait:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(act.Duration):
			}
		default:
			return fmt.Errorf("unknown action type %T", a)
		}
	}
	return nil
}

func (d *WindowDispatcher) click(c Click) {
	lParam := uintptr(c.Y<<16 | c.X)
	buttonDown := uint32(win.WM_LBUTTONDOWN)
	buttonUp := uint32(win.WM_LBUTTONUP)
	if c.Button == RightButton {
		buttonDown = win.WM_RBUTTONDOWN
		buttonUp = win.WM_RBUTTONUP
	}

	count := c.Count
	if count <= 0 {
		count = 1
	}

	win.PostMessage(d.hwnd, win.WM_MOUSEMOVE, 0, lParam)
	for i := 0; i < count; i++ {
		win.SendMessage(d.hwnd, buttonDown, 1, lParam)
		utils.Sleep(keyPressMeanTime)
		win.SendMessage(d.hwnd, buttonUp, 1, lParam)
		if i < count-1 {
			time.Sleep(utils.RandomDurationMs(clickGapMinTime, clickGapMaxTime))
		}
	}
}

func (d *WindowDispatcher) pressKey(p PressKey) error {
	vk, err := virtualKey(p.Key)
	if err != nil {
		return err
	}

	keyDown := uint32(win.WM_KEYDOWN)
	keyUp := uint32(win.WM_KEYUP)

	switch p.Key.Mod {
	case config.ModAlt:
		// Alt-modified keys travel as system key messages.
		win.SendMessage(d.hwnd, win.WM_SYSKEYDOWN, uintptr(win.VK_MENU), 0)
		keyDown = win.WM_SYSKEYDOWN
		keyUp = win.WM_SYSKEYUP
	case config.ModCtrl:
		win.SendMessage(d.hwnd, win.WM_KEYDOWN, uintptr(win.VK_CONTROL), 0)
	}

	win.SendMessage(d.hwnd, keyDown, uintptr(vk), 0)
	if p.Hold > 0 {
		time.Sleep(p.Hold)
	} else {
		utils.Sleep(keyPressMeanTime)
	}
	win.SendMessage(d.hwnd, keyUp, uintptr(vk), 0)

	switch p.Key.Mod {
	case config.ModAlt:
		win.SendMessage(d.hwnd, win.WM_SYSKEYUP, uintptr(win.VK_MENU), 0)
	case config.ModCtrl:
		win.SendMessage(d.hwnd, win.WM_KEYUP, uintptr(win.VK_CONTROL), 0)
	}

	return nil
}

// virtualKey maps a keybind's base key to its Windows virtual-key code.
func virtualKey(kb config.Keybind) (uint32, error) {
	switch {
	case kb.Key >= '0' && kb.Key <= '9':
		return uint32(kb.Key), nil
	case kb.Key == '-':
		return win.VK_OEM_MINUS, nil
	case kb.Key == '=':
		return win.VK_OEM_PLUS, nil
	}
	return 0, fmt.Errorf("keybind %q has no virtual key mapping", kb)
}
