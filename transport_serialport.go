package serialio

import (
	"errors"
	"io"
	"sync"

	"go.bug.st/serial"
)

// serialTransport implements Transport over a real go.bug.st/serial
// port. It lives in the root package rather than its own
// transport/serialport subpackage to avoid an import cycle: the package
// needs to default-construct one from New(portPath, ...) without
// importing a package that in turn imports serialio.
type serialTransport struct {
	portName string
	baudRate int

	mu     sync.Mutex
	port   serial.Port
	events chan Event
	readWG sync.WaitGroup
}

func newSerialTransport(portName string, baudRate int) *serialTransport {
	return &serialTransport{portName: portName, baudRate: baudRate}
}

func (t *serialTransport) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port != nil {
		return errors.New("serial transport: already open")
	}

	mode := &serial.Mode{BaudRate: t.baudRate}
	port, err := serial.Open(t.portName, mode)
	if err != nil {
		return err
	}

	t.port = port
	t.events = make(chan Event, 16)
	t.readWG.Add(1)
	go t.readLoop(port, t.events)

	return nil
}

func (t *serialTransport) readLoop(port serial.Port, events chan<- Event) {
	defer t.readWG.Done()
	// When the read stream ends on its own (not through Close), release
	// the port so a later Open, such as the engine's reopen loop, can
	// succeed instead of failing with "already open".
	defer func() {
		t.mu.Lock()
		if t.port == port {
			t.port = nil
			_ = port.Close()
		}
		t.mu.Unlock()
	}()
	buf := make([]byte, 4096)

	for {
		n, err := port.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			events <- Event{Kind: EventData, Data: chunk}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				events <- Event{Kind: EventClose, Err: nil}
			} else {
				events <- Event{Kind: EventClose, Err: err}
			}
			return
		}
		if n == 0 {
			// go.bug.st/serial returns (0, nil) at EOF on some platforms
			// when the port has been closed out from under the reader.
			events <- Event{Kind: EventClose, Err: nil}
			return
		}
	}
}

func (t *serialTransport) Close() error {
	t.mu.Lock()
	port := t.port
	t.port = nil
	t.mu.Unlock()

	if port == nil {
		return nil
	}
	err := port.Close()
	t.readWG.Wait()
	return err
}

func (t *serialTransport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

func (t *serialTransport) Write(p []byte) (int, error) {
	t.mu.Lock()
	port := t.port
	t.mu.Unlock()
	if port == nil {
		return 0, ErrNotOpen
	}
	return port.Write(p)
}

func (t *serialTransport) Drain() error {
	t.mu.Lock()
	port := t.port
	t.mu.Unlock()
	if port == nil {
		return ErrNotOpen
	}
	return port.Drain()
}

func (t *serialTransport) Events() <-chan Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.events
}

// ListPorts returns the names of serial ports currently present on the
// system, e.g. "/dev/ttyUSB0".
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
