package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nixxel-company-limited/escp-print/adapter"
	"github.com/nixxel-company-limited/escp-print/transfer"
)

// MockAdapter is a mock implementation of the Adapter interface for testing.
// It accepts at most limit bytes per write when limit is set.
type MockAdapter struct {
	mu        sync.Mutex
	open      bool
	limit     int
	err       error
	writeData []byte
}

func (m *MockAdapter) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = true
	return nil
}

func (m *MockAdapter) Write(data []byte) (int, error) {
	return m.WriteContext(context.Background(), data)
}

func (m *MockAdapter) WriteContext(ctx context.Context, data []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	n := len(data)
	if m.limit > 0 && n > m.limit {
		n = m.limit
	}
	m.writeData = append(m.writeData, data[:n]...)
	return n, nil
}

func (m *MockAdapter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = false
	return nil
}

func (m *MockAdapter) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

func (m *MockAdapter) Data() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.writeData...)
}

var _ adapter.Adapter = (*MockAdapter)(nil)

func TestNewServer(t *testing.T) {
	mockAdapter := &MockAdapter{}
	address := "localhost:9100"

	server := New(mockAdapter, address)

	assert.NotNil(t, server)
	assert.Equal(t, address, server.Address())
	assert.False(t, server.IsRunning())
	assert.Equal(t, mockAdapter, server.GetAdapter())
}

func TestServerStartStop(t *testing.T) {
	mockAdapter := &MockAdapter{}
	address := "localhost:9101"

	server := New(mockAdapter, address)

	// Test start async (non-blocking)
	err := server.StartAsync()
	require.NoError(t, err)
	assert.True(t, server.IsRunning())
	assert.True(t, mockAdapter.IsOpen())

	// Test double start
	err = server.StartAsync()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	// Test stop
	err = server.Stop()
	require.NoError(t, err)
	assert.False(t, server.IsRunning())
	assert.False(t, mockAdapter.IsOpen())

	// Test double stop (should not error)
	err = server.Stop()
	assert.NoError(t, err)
}

func TestServerConnection(t *testing.T) {
	mockAdapter := &MockAdapter{limit: 3}
	address := "localhost:9102"

	server := New(mockAdapter, address, transfer.WithTimeout(time.Second))

	err := server.StartAsync()
	require.NoError(t, err)
	defer server.Stop()

	conn, err := net.Dial("tcp", address)
	require.NoError(t, err)
	defer conn.Close()

	testData := []byte("\x1bEHello, Printer!\x1bF")
	n, err := conn.Write(testData)
	require.NoError(t, err)
	assert.Equal(t, len(testData), n)

	// Short writes are completed by the transfer loop
	assert.Eventually(t, func() bool {
		return string(mockAdapter.Data()) == string(testData)
	}, time.Second, 10*time.Millisecond)
}

func TestServerMultipleConnections(t *testing.T) {
	mockAdapter := &MockAdapter{}
	address := "localhost:9103"

	server := New(mockAdapter, address)

	err := server.StartAsync()
	require.NoError(t, err)
	defer server.Stop()

	// Jobs run one at a time, so each connection is closed after sending
	numConnections := 3
	for i := 0; i < numConnections; i++ {
		conn, err := net.Dial("tcp", address)
		require.NoError(t, err)

		_, err = conn.Write([]byte{byte(i + 1)})
		require.NoError(t, err)
		conn.Close()
	}

	assert.Eventually(t, func() bool {
		return len(mockAdapter.Data()) == numConnections
	}, time.Second, 10*time.Millisecond)
}

func TestServerWriteErrorEndsJob(t *testing.T) {
	mockAdapter := &MockAdapter{err: errors.New("stalled")}
	address := "localhost:9106"

	server := New(mockAdapter, address)
	require.NoError(t, server.StartAsync())
	defer server.Stop()

	conn, err := net.Dial("tcp", address)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("data"))
	require.NoError(t, err)

	// The server hangs up on a failed job
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = conn.Read(make([]byte, 1))
	assert.Error(t, err)
	assert.Empty(t, mockAdapter.Data())
}

func TestServerStopClosesClients(t *testing.T) {
	mockAdapter := &MockAdapter{}
	address := "localhost:9107"

	server := New(mockAdapter, address)
	require.NoError(t, server.StartAsync())

	conn, err := net.Dial("tcp", address)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("x"))
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		return len(mockAdapter.Data()) == 1
	}, time.Second, 10*time.Millisecond)

	stopped := make(chan error)
	go func() {
		stopped <- server.Stop()
	}()

	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() blocked on an idle client")
	}
}

func TestServerWithRealUSBAdapter(t *testing.T) {
	usbAdapter, err := adapter.NewUSBAdapter(adapter.DefaultSelector())
	if err != nil {
		t.Skip("No USB printer found, skipping test")
	}
	defer usbAdapter.Close()

	address := "localhost:9104"
	server := New(usbAdapter, address)

	err = server.StartAsync()
	require.NoError(t, err)
	defer server.Stop()

	conn, err := net.Dial("tcp", address)
	require.NoError(t, err)
	defer conn.Close()

	// Send initialization command
	initCmd := []byte{0x1B, 0x40} // ESC @
	n, err := conn.Write(initCmd)
	require.NoError(t, err)
	assert.Equal(t, len(initCmd), n)

	// Give time for printer to process
	time.Sleep(100 * time.Millisecond)
}

func TestServerAddress(t *testing.T) {
	mockAdapter := &MockAdapter{}
	testCases := []string{
		"localhost:9100",
		"0.0.0.0:9100",
		":9100",
	}

	for _, addr := range testCases {
		t.Run(addr, func(t *testing.T) {
			server := New(mockAdapter, addr)
			assert.Equal(t, addr, server.Address())
		})
	}
}

func TestServerInvalidAddress(t *testing.T) {
	mockAdapter := &MockAdapter{}
	server := New(mockAdapter, "invalid:address:9100")

	err := server.StartAsync()
	assert.Error(t, err)
	assert.False(t, server.IsRunning())
}

func TestServerStartBlocking(t *testing.T) {
	mockAdapter := &MockAdapter{}
	address := "localhost:9105"

	server := New(mockAdapter, address)

	// Start server in a goroutine since it blocks
	started := make(chan error)
	go func() {
		started <- server.Start()
	}()

	assert.Eventually(t, server.IsRunning, time.Second, 10*time.Millisecond)

	conn, err := net.Dial("tcp", address)
	require.NoError(t, err)

	testData := []byte("Blocking test")
	_, err = conn.Write(testData)
	require.NoError(t, err)
	conn.Close()

	assert.Eventually(t, func() bool {
		return string(mockAdapter.Data()) == string(testData)
	}, time.Second, 10*time.Millisecond)

	err = server.Stop()
	require.NoError(t, err)

	// Wait for Start() to return
	select {
	case err := <-started:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start() did not return after Stop()")
	}
}
