// Package tray provides the system tray color picker using getlantern/systray.
package tray

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"screenprobe/internal/pixel"
)

// MenuItem represents a menu item
type MenuItem struct {
	ID       int
	Title    string
	Callback func()
	item     *systray.MenuItem
}

// Tray manages the system tray icon and menu
type Tray struct {
	items   []*MenuItem
	onReady func()
	onExit  func()
	readyCh chan struct{}
	quitCh  chan struct{}
	pokeCh  chan chan pixel.Sample

	mu   sync.Mutex
	last pixel.Sample
}

// New creates a new system tray
func New(tooltip string) *Tray {
	t := &Tray{
		items:   make([]*MenuItem, 0),
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
		pokeCh:  make(chan chan pixel.Sample),
	}

	t.onReady = func() {
		systray.SetTitle("screenprobe")
		systray.SetTooltip(tooltip)
		systray.SetIcon(iconFor(pixel.RGB{}))
		close(t.readyCh)
	}

	t.onExit = func() {
		close(t.quitCh)
	}

	return t
}

// AddMenuItem adds a menu item to the tray
func (t *Tray) AddMenuItem(title string, callback func()) int {
	id := len(t.items)
	t.items = append(t.items, &MenuItem{
		ID:       id,
		Title:    title,
		Callback: callback,
	})
	return id
}

// AddSeparator adds a separator to the menu
func (t *Tray) AddSeparator() {
	t.items = append(t.items, nil) // nil indicates separator
}

// Run starts the tray event loop (blocks)
func (t *Tray) Run() {
	systray.Run(t.setupMenu, t.onExit)
}

// setupMenu is called when systray is ready
func (t *Tray) setupMenu() {
	t.onReady()
	<-t.readyCh

	for _, menuItem := range t.items {
		if menuItem == nil {
			systray.AddSeparator()
			continue
		}
		menuItem.item = systray.AddMenuItem(menuItem.Title, "")

		if menuItem.Callback != nil {
			go func(mi *MenuItem) {
				for {
					select {
					case <-mi.item.ClickedCh:
						mi.Callback()
					case <-t.quitCh:
						return
					}
				}
			}(menuItem)
		}
	}
}

// Follow refreshes the tray with sample() every interval until the tray
// exits. sample is only ever called from this goroutine.
func (t *Tray) Follow(interval time.Duration, sample func() pixel.Sample) {
	select {
	case <-t.readyCh:
	case <-t.quitCh:
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var shown string
	show := func(s pixel.Sample) {
		t.setLast(s)
		title := Title(s)
		if title == shown {
			return
		}
		shown = title
		systray.SetTitle(title)
		systray.SetTooltip(Tooltip(s))
		systray.SetIcon(iconFor(s.RGB()))
	}

	for {
		select {
		case <-ticker.C:
			show(sample())

		case reply := <-t.pokeCh:
			s := sample()
			show(s)
			reply <- s

		case <-t.quitCh:
			return
		}
	}
}

// SampleNow asks Follow for a fresh sample without waiting for the next
// tick. It reports false once the tray has exited.
func (t *Tray) SampleNow() (pixel.Sample, bool) {
	reply := make(chan pixel.Sample, 1)
	select {
	case t.pokeCh <- reply:
	case <-t.quitCh:
		return pixel.Sample{}, false
	}
	select {
	case s := <-reply:
		return s, true
	case <-t.quitCh:
		return pixel.Sample{}, false
	}
}

func (t *Tray) setLast(s pixel.Sample) {
	t.mu.Lock()
	t.last = s
	t.mu.Unlock()
}

// Last returns the most recent sample shown
func (t *Tray) Last() pixel.Sample {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// Stop stops the tray
func (t *Tray) Stop() {
	systray.Quit()
}

// Title is the tray label for a sample
func Title(s pixel.Sample) string {
	if s.HasError() {
		return "--"
	}
	return s.Hex()
}

// Tooltip describes a sample in full
func Tooltip(s pixel.Sample) string {
	if s.HasError() {
		return fmt.Sprintf("(%d, %d) unavailable: %s", s.X(), s.Y(), s.ErrorCode())
	}
	c := s.RGB()
	return fmt.Sprintf("(%d, %d) %s rgb(%d, %d, %d)", s.X(), s.Y(), s.Hex(), c.R, c.G, c.B)
}

const iconSide = 16

// iconFor returns a 16x16 32-bit ICO filled with c
func iconFor(c pixel.RGB) []byte {
	const (
		headerSize = 6 + 16
		dibSize    = 40
		pixelBytes = iconSide * iconSide * 4
		maskBytes  = iconSide * 4 // 1bpp rows padded to 32 bits
		imageSize  = dibSize + pixelBytes + maskBytes
	)
	icon := make([]byte, headerSize+imageSize)

	// ICO header: reserved, type 1 (icon), one image
	binary.LittleEndian.PutUint16(icon[2:], 1)
	binary.LittleEndian.PutUint16(icon[4:], 1)

	// Directory entry
	dir := icon[6:22]
	dir[0], dir[1] = iconSide, iconSide
	binary.LittleEndian.PutUint16(dir[4:], 1)  // planes
	binary.LittleEndian.PutUint16(dir[6:], 32) // bpp
	binary.LittleEndian.PutUint32(dir[8:], imageSize)
	binary.LittleEndian.PutUint32(dir[12:], headerSize)

	// DIB header; height is doubled to cover the AND mask
	dib := icon[headerSize : headerSize+dibSize]
	binary.LittleEndian.PutUint32(dib[0:], dibSize)
	binary.LittleEndian.PutUint32(dib[4:], iconSide)
	binary.LittleEndian.PutUint32(dib[8:], iconSide*2)
	binary.LittleEndian.PutUint16(dib[12:], 1)
	binary.LittleEndian.PutUint16(dib[14:], 32)
	binary.LittleEndian.PutUint32(dib[20:], pixelBytes+maskBytes)

	// Pixels are BGRA; the mask stays zero (opaque)
	px := icon[headerSize+dibSize : headerSize+dibSize+pixelBytes]
	for i := 0; i < len(px); i += 4 {
		px[i], px[i+1], px[i+2], px[i+3] = c.B, c.G, c.R, 0xFF
	}
	return icon
}
