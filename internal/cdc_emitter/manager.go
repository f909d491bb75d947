package cdc_emitter

import (
	"context"
	"errors"
	"fmt"
	v1 "github.com/litetable/litetable-cdc/go/v1"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"net"
	"sync"
	"time"
)

const defaultBufferSize = 100000

type Config struct {
	Address string
	// Port 0 picks a free port.
	Port       int
	BufferSize int
}

func (c *Config) validate() error {
	var errGrp []error
	if c.Port < 0 {
		errGrp = append(errGrp, fmt.Errorf("invalid port: %d", c.Port))
	}
	if c.Address == "" {
		errGrp = append(errGrp, fmt.Errorf("invalid address: %s", c.Address))
	}
	if c.BufferSize < 0 {
		errGrp = append(errGrp, fmt.Errorf("invalid buffer size: %d", c.BufferSize))
	}
	return errors.Join(errGrp...)
}

// Manager streams committed cells to gRPC CDC subscribers.
type Manager struct {
	v1.UnimplementedCDCServiceServer

	port     int
	address  string
	server   *grpc.Server
	listener net.Listener

	emitChan   chan *CDCParams
	procCtx    context.Context
	procCancel context.CancelFunc
	done       chan struct{}

	streams    map[string]v1.CDCService_CDCStreamServer
	streamsMux sync.Mutex
}

func New(cfg *Config) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	bufferSize := cfg.BufferSize
	if bufferSize == 0 {
		bufferSize = defaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		port:       cfg.Port,
		address:    cfg.Address,
		emitChan:   make(chan *CDCParams, bufferSize),
		procCtx:    ctx,
		procCancel: cancel,
		done:       make(chan struct{}),
		streams:    make(map[string]v1.CDCService_CDCStreamServer),
	}

	srv := grpc.NewServer()
	v1.RegisterCDCServiceServer(srv, m)
	m.server = srv

	return m, nil
}

func (m *Manager) Start() error {
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", m.address, m.port))
	if err != nil {
		return fmt.Errorf("failed to listen on %s:%d: %w", m.address, m.port, err)
	}
	m.listener = lis

	log.Info().Msgf("CDC gRPC server listening at %s", lis.Addr().String())

	go m.dispatchLoop()

	errCh := make(chan error, 1)
	go func() {
		if err := m.server.Serve(lis); err != nil {
			log.Error().Err(err).Msg("CDC gRPC server failed")
			errCh <- err
		}
	}()

	// Block briefly for error or nil return
	select {
	case err := <-errCh:
		return err
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Stop drains pending events to subscribers and shuts the server down.
func (m *Manager) Stop() error {
	if m.procCancel != nil {
		m.procCancel()
	}
	if m.listener != nil {
		<-m.done
	}
	if m.server != nil {
		m.server.GracefulStop()
	}
	return nil
}

func (m *Manager) Name() string {
	return "CDC Emitter"
}

// Addr returns the listening address once started.
func (m *Manager) Addr() string {
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

// CDCStream registers a subscriber and blocks until it disconnects or the emitter stops.
func (m *Manager) CDCStream(req *v1.CDCSubscriptionRequest,
	stream v1.CDCService_CDCStreamServer) error {
	id := req.GetClientId()
	if id == "" {
		return errors.New("client id is required")
	}

	m.registerStream(id, stream)
	defer m.unregisterStream(id)

	log.Info().Str("client", id).Msg("CDC subscriber connected")

	select {
	case <-stream.Context().Done():
	case <-m.procCtx.Done():
	}

	log.Info().Str("client", id).Msg("CDC subscriber disconnected")
	return nil
}

func (m *Manager) registerStream(clientID string, stream v1.CDCService_CDCStreamServer) {
	m.streamsMux.Lock()
	defer m.streamsMux.Unlock()
	m.streams[clientID] = stream
}

func (m *Manager) unregisterStream(clientID string) {
	m.streamsMux.Lock()
	defer m.streamsMux.Unlock()
	delete(m.streams, clientID)
}

func (m *Manager) subscriberCount() int {
	m.streamsMux.Lock()
	defer m.streamsMux.Unlock()
	return len(m.streams)
}
