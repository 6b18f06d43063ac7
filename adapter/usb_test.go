package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/google/gousb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSelector(t *testing.T) {
	sel := DefaultSelector()
	assert.Equal(t, uint16(0x06bc), sel.VendorID)
	assert.Equal(t, uint16(0x0031), sel.ProductID)
	assert.Equal(t, 0, sel.Interface)
	assert.Equal(t, 1, sel.Endpoint)
	assert.Equal(t, "06bc:0031", sel.String())

	sel.Serial = "ABC123"
	assert.Equal(t, `serial "ABC123"`, sel.String())
}

func TestPrinterInterface(t *testing.T) {
	desc := gousb.ConfigDesc{
		Interfaces: []gousb.InterfaceDesc{
			{Number: 0, AltSettings: []gousb.InterfaceSetting{{Class: gousb.ClassHID}}},
			{Number: 2, AltSettings: []gousb.InterfaceSetting{{Class: gousb.ClassVendorSpec}, {Class: IfaceClassPrinter}}},
		},
	}
	assert.Equal(t, 2, printerInterface(desc))
	assert.Equal(t, -1, printerInterface(gousb.ConfigDesc{}))
}

func TestNewUSBAdapter(t *testing.T) {
	adapter, err := NewUSBAdapter(DefaultSelector())
	if err != nil {
		t.Skip("No USB printer found, skipping test")
	}
	defer adapter.Close()

	assert.NotNil(t, adapter)
	assert.NotNil(t, adapter.ctx)
	assert.NotNil(t, adapter.device)
	assert.NotNil(t, adapter.eventListeners)
}

func TestNewUSBAdapterUnknownSerial(t *testing.T) {
	sel := DefaultSelector()
	sel.Serial = "INVALID_SERIAL_NUMBER"

	_, err := NewUSBAdapter(sel)
	assert.Error(t, err)
}

func TestFindPrinters(t *testing.T) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	printers := FindPrinters(ctx)

	if len(printers) == 0 {
		t.Skip("No USB printers found")
	}

	t.Logf("Found %d printer(s)", len(printers))
	for _, printer := range printers {
		assert.True(t, IsPrinter(printer))
		printer.Close()
	}
}

func TestIsPrinter(t *testing.T) {
	t.Run("NilDevice", func(t *testing.T) {
		assert.False(t, IsPrinter(nil))
	})

	t.Run("RealDevice", func(t *testing.T) {
		ctx := gousb.NewContext()
		defer ctx.Close()

		devices := FindPrinters(ctx)
		if len(devices) == 0 {
			t.Skip("No USB printers found")
		}

		for _, dev := range devices {
			defer dev.Close()
			assert.True(t, IsPrinter(dev))
		}
	})
}

func TestListPrinters(t *testing.T) {
	printers := ListPrinters()
	if len(printers) == 0 {
		t.Skip("No USB printers found")
	}
	for _, p := range printers {
		assert.NotZero(t, p.VendorID)
	}
}

func TestUSBAdapterOpenClose(t *testing.T) {
	adapter, err := NewUSBAdapter(DefaultSelector())
	if err != nil {
		t.Skip("No USB printer found, skipping test")
	}
	defer adapter.Close()

	// Test initial state
	assert.False(t, adapter.IsOpen())

	// Test Open
	err = adapter.Open()
	require.NoError(t, err)
	assert.True(t, adapter.IsOpen())

	// Test double open
	err = adapter.Open()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already open")

	// Test Close
	err = adapter.Close()
	require.NoError(t, err)
	assert.False(t, adapter.IsOpen())

	// Test double close (should not error)
	err = adapter.Close()
	assert.NoError(t, err)

	// A closed adapter cannot be reopened
	assert.Error(t, adapter.Open())
}

func TestUSBAdapterWrite(t *testing.T) {
	adapter, err := NewUSBAdapter(DefaultSelector())
	if err != nil {
		t.Skip("No USB printer found, skipping test")
	}
	defer adapter.Close()

	// Test write without opening
	_, err = adapter.Write([]byte("test"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not open")

	// Open device
	err = adapter.Open()
	require.NoError(t, err)

	// Test write with valid data
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	testData := []byte{0x1B, 0x40} // ESC @ (Initialize printer)
	n, err := adapter.WriteContext(ctx, testData)
	assert.NoError(t, err)
	assert.Equal(t, len(testData), n)
}

func TestUSBAdapterEventListeners(t *testing.T) {
	adapter, err := NewUSBAdapter(DefaultSelector())
	if err != nil {
		t.Skip("No USB printer found, skipping test")
	}
	defer adapter.Close()

	events := make(chan EventType, 3)
	for _, et := range []EventType{EventConnect, EventData, EventClose} {
		adapter.On(et, func(e Event) {
			events <- e.Type
		})
	}

	// Open should trigger connect event
	err = adapter.Open()
	require.NoError(t, err)

	// Write should trigger data event
	_, err = adapter.Write([]byte{0x1B, 0x40})
	assert.NoError(t, err)

	// Close should trigger close event
	err = adapter.Close()
	require.NoError(t, err)

	seen := map[EventType]bool{}
	assert.Eventually(t, func() bool {
		for {
			select {
			case et := <-events:
				seen[et] = true
			default:
				return len(seen) == 3
			}
		}
	}, time.Second, 10*time.Millisecond, "All events should have been triggered")
}

func TestGetDeviceByVIDPID(t *testing.T) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	// Test with invalid VID/PID
	_, err := GetDeviceByVIDPID(ctx, 0xFFFF, 0xFFFF)
	assert.Error(t, err)

	printers := FindPrinters(ctx)
	if len(printers) == 0 {
		t.Skip("No USB printers found")
	}

	desc := printers[0].Desc
	for _, p := range printers {
		p.Close()
	}

	device, err := GetDeviceByVIDPID(ctx, uint16(desc.Vendor), uint16(desc.Product))
	if err == nil {
		defer device.Close()
		assert.NotNil(t, device)
	}
}

func TestGetDeviceBySerial(t *testing.T) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	// Test with invalid serial
	_, err := GetDeviceBySerial(ctx, "INVALID_SERIAL_NUMBER")
	assert.Error(t, err)

	printers := FindPrinters(ctx)
	if len(printers) == 0 {
		t.Skip("No USB printers found")
	}

	serial, err := printers[0].SerialNumber()

	for _, p := range printers {
		p.Close()
	}

	if err != nil || serial == "" {
		t.Skip("Printer doesn't have a serial number")
	}

	device, err := GetDeviceBySerial(ctx, serial)
	if err == nil {
		defer device.Close()
		assert.NotNil(t, device)
	}
}
