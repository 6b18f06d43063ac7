package adapter

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/gousb"
	"github.com/rs/zerolog"

	"github.com/nixxel-company-limited/escp-print/logging"
)

// Interface class codes
// Reference: http://www.usb.org/developers/defined_class
const (
	IfaceClassPrinter = 0x07
)

// Oki ML-3390
const (
	DefaultVendorID  = 0x06bc
	DefaultProductID = 0x0031
)

// EventType represents device events
type EventType int

const (
	EventConnect EventType = iota
	EventData
	EventClose
)

// Event represents a device event
type Event struct {
	Type   EventType
	Device *gousb.Device
	Data   []byte
	Error  error
}

// Selector describes which device, interface and endpoint to use
type Selector struct {
	VendorID  uint16
	ProductID uint16
	// Serial selects the device by serial number instead of VID/PID
	Serial string
	// Interface is the interface number to claim, or -1 to use the
	// first interface of the printer class
	Interface int
	// Endpoint is the OUT endpoint number, or -1 to use the first OUT
	// endpoint of the interface
	Endpoint int
}

// DefaultSelector returns the selector for the default printer on
// interface 0, endpoint 1
func DefaultSelector() Selector {
	return Selector{
		VendorID:  DefaultVendorID,
		ProductID: DefaultProductID,
		Interface: 0,
		Endpoint:  1,
	}
}

func (s Selector) String() string {
	if s.Serial != "" {
		return fmt.Sprintf("serial %q", s.Serial)
	}
	return fmt.Sprintf("%04x:%04x", s.VendorID, s.ProductID)
}

// USBAdapter manages USB printer communication
type USBAdapter struct {
	device         *gousb.Device
	ctx            *gousb.Context
	cfg            *gousb.Config
	iface          *gousb.Interface
	outEndpoint    *gousb.OutEndpoint
	selector       Selector
	eventListeners map[EventType][]func(Event)
	listenersMutex sync.RWMutex
	isOpen         bool
	closed         bool
	mu             sync.Mutex
}

func logger() zerolog.Logger {
	return logging.GetLogger("usb")
}

// NewUSBAdapter finds the device described by sel. When no serial number is
// given and the VID/PID pair is not attached, the first printer-class device
// is used instead.
func NewUSBAdapter(sel Selector) (*USBAdapter, error) {
	ctx := gousb.NewContext()
	adapter := &USBAdapter{
		ctx:            ctx,
		selector:       sel,
		eventListeners: make(map[EventType][]func(Event)),
	}

	if sel.Serial != "" {
		device, err := GetDeviceBySerial(ctx, sel.Serial)
		if err != nil {
			ctx.Close()
			return nil, err
		}
		adapter.device = device
		return adapter, nil
	}

	device, err := GetDeviceByVIDPID(ctx, sel.VendorID, sel.ProductID)
	if err != nil {
		logger().Debug().Err(err).Stringer("device", sel).Msg("Device not found, searching for printers")

		// Try to find any printer device
		devices := FindPrinters(ctx)
		if len(devices) == 0 {
			ctx.Close()
			return nil, fmt.Errorf("cannot find printer %s", sel)
		}
		for _, d := range devices[1:] {
			d.Close()
		}
		device = devices[0]
	}
	adapter.device = device

	return adapter, nil
}

// IsPrinter checks if a device is a printer
func IsPrinter(dev *gousb.Device) bool {
	if dev == nil {
		return false
	}

	cfg, err := dev.ActiveConfigNum()
	if err != nil {
		return false
	}

	cfgDesc, err := dev.Config(cfg)
	if err != nil {
		return false
	}
	defer cfgDesc.Close()

	return printerInterface(cfgDesc.Desc) >= 0
}

// printerInterface returns the number of the first printer-class interface
func printerInterface(desc gousb.ConfigDesc) int {
	for _, iface := range desc.Interfaces {
		for _, alt := range iface.AltSettings {
			if alt.Class == IfaceClassPrinter {
				return iface.Number
			}
		}
	}
	return -1
}

// FindPrinters returns all USB printer devices
func FindPrinters(ctx *gousb.Context) []*gousb.Device {
	var printers []*gousb.Device

	devices, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return true // Check all devices
	})

	if err != nil {
		logger().Debug().Err(err).Msg("Some devices could not be opened")
	}

	for _, dev := range devices {
		logger().Trace().Stringer("desc", dev.Desc).Msg("Found device")
		if IsPrinter(dev) {
			printers = append(printers, dev)
		} else {
			dev.Close()
		}
	}

	return printers
}

// GetDeviceByVIDPID opens a device by VID and PID
func GetDeviceByVIDPID(ctx *gousb.Context, vid, pid uint16) (*gousb.Device, error) {
	device, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, errors.New("device not found")
	}
	return device, nil
}

// GetDeviceBySerial opens a device by serial number
func GetDeviceBySerial(ctx *gousb.Context, serial string) (*gousb.Device, error) {
	devices, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return true
	})
	if err != nil && len(devices) == 0 {
		return nil, err
	}

	for i, dev := range devices {
		s, err := dev.SerialNumber()
		if err == nil && s == serial {
			// Close other devices
			for _, d := range devices[i+1:] {
				d.Close()
			}
			return dev, nil
		}
		dev.Close()
	}

	return nil, errors.New("device with serial number not found")
}

// On adds an event listener
func (a *USBAdapter) On(eventType EventType, handler func(Event)) {
	a.listenersMutex.Lock()
	defer a.listenersMutex.Unlock()

	a.eventListeners[eventType] = append(a.eventListeners[eventType], handler)
}

// emit triggers an event
func (a *USBAdapter) emit(event Event) {
	a.listenersMutex.RLock()
	defer a.listenersMutex.RUnlock()

	if listeners, ok := a.eventListeners[event.Type]; ok {
		for _, handler := range listeners {
			go handler(event)
		}
	}
}

// Open claims the selected interface and OUT endpoint
func (a *USBAdapter) Open() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.isOpen {
		return errors.New("device already open")
	}

	if a.device == nil || a.closed {
		return errors.New("device not found")
	}

	// Set auto-detach kernel driver on Linux
	if runtime.GOOS == "linux" {
		if err := a.device.SetAutoDetach(true); err != nil {
			logger().Debug().Err(err).Msg("Kernel driver auto-detach unavailable")
		}
	}

	// Get active configuration
	cfgNum, err := a.device.ActiveConfigNum()
	if err != nil {
		return fmt.Errorf("failed to get active config: %w", err)
	}

	cfg, err := a.device.Config(cfgNum)
	if err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	}

	ifaceNum := a.selector.Interface
	if ifaceNum < 0 {
		ifaceNum = printerInterface(cfg.Desc)
		if ifaceNum < 0 {
			cfg.Close()
			return errors.New("no printer interface found")
		}
	}

	// Claim interface
	iface, err := cfg.Interface(ifaceNum, 0)
	if err != nil {
		cfg.Close()
		return fmt.Errorf("failed to claim interface %d: %w", ifaceNum, err)
	}

	epNum := a.selector.Endpoint
	if epNum < 0 {
		for _, epDesc := range iface.Setting.Endpoints {
			if epDesc.Direction == gousb.EndpointDirectionOut {
				epNum = epDesc.Number
				break
			}
		}
	}

	ep, err := iface.OutEndpoint(epNum)
	if err != nil {
		iface.Close()
		cfg.Close()
		return fmt.Errorf("cannot find output endpoint %d: %w", epNum, err)
	}

	a.cfg = cfg
	a.iface = iface
	a.outEndpoint = ep
	a.isOpen = true
	logger().Info().
		Stringer("device", a.device.Desc).
		Int("interface", ifaceNum).
		Int("endpoint", epNum).
		Msg("Printer opened")
	a.emit(Event{Type: EventConnect, Device: a.device})

	return nil
}

// Write sends data to the printer
func (a *USBAdapter) Write(data []byte) (int, error) {
	return a.WriteContext(context.Background(), data)
}

// WriteContext sends data to the printer, bounded by ctx
func (a *USBAdapter) WriteContext(ctx context.Context, data []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return 0, errors.New("device not open")
	}

	if a.outEndpoint == nil {
		return 0, errors.New("output endpoint not available")
	}

	a.emit(Event{Type: EventData, Device: a.device, Data: data})

	n, err := a.outEndpoint.WriteContext(ctx, data)
	if err != nil {
		return n, fmt.Errorf("write failed: %w", err)
	}

	return n, nil
}

// Close releases the interface and closes the USB device
func (a *USBAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}

	var errs []error

	if a.iface != nil {
		a.iface.Close()
		a.iface = nil
		a.outEndpoint = nil
	}

	if a.cfg != nil {
		if err := a.cfg.Close(); err != nil {
			errs = append(errs, err)
		}
		a.cfg = nil
	}

	if a.device != nil {
		if err := a.device.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if a.ctx != nil {
		if err := a.ctx.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	wasOpen := a.isOpen
	a.isOpen = false
	a.closed = true
	if wasOpen {
		a.emit(Event{Type: EventClose, Device: a.device})
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %w", errors.Join(errs...))
	}

	return nil
}

// IsOpen returns whether the device is open
func (a *USBAdapter) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isOpen
}

// GetDevice returns the underlying USB device
func (a *USBAdapter) GetDevice() *gousb.Device {
	return a.device
}

// PrinterInfo describes an attached printer-class device
type PrinterInfo struct {
	VendorID     uint16
	ProductID    uint16
	Bus          int
	Address      int
	Manufacturer string
	Product      string
	Serial       string
}

// ListPrinters describes every attached printer-class device
func ListPrinters() []PrinterInfo {
	ctx := gousb.NewContext()
	defer ctx.Close()

	var infos []PrinterInfo
	for _, dev := range FindPrinters(ctx) {
		info := PrinterInfo{
			VendorID:  uint16(dev.Desc.Vendor),
			ProductID: uint16(dev.Desc.Product),
			Bus:       dev.Desc.Bus,
			Address:   dev.Desc.Address,
		}
		// String descriptors are optional
		info.Manufacturer, _ = dev.Manufacturer()
		info.Product, _ = dev.Product()
		info.Serial, _ = dev.SerialNumber()
		dev.Close()
		infos = append(infos, info)
	}
	return infos
}
