package cdc_emitter

import (
	"context"
	"errors"
	v1 "github.com/litetable/litetable-cdc/go/v1"
	"github.com/litetable/litetable-extract/internal/litetable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"sync"
	"testing"
	"time"
)

type fakeStream struct {
	grpc.ServerStream
	ctx     context.Context
	sendErr error

	mu   sync.Mutex
	sent []*v1.CDCEvent
}

func (f *fakeStream) Send(e *v1.CDCEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, e)
	return nil
}

func (f *fakeStream) Context() context.Context {
	return f.ctx
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()
		got, err := New(&Config{Port: -1})
		require.Error(t, err)
		require.Nil(t, got)
		require.Equal(t, "invalid port: -1\ninvalid address: ", err.Error())
	})

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()
		got, err := New(&Config{
			Port:    32496,
			Address: "127.0.0.1",
		})
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, defaultBufferSize, cap(got.emitChan))
	})

	t.Run("Test Name", func(t *testing.T) {
		m := &Manager{}
		require.Equal(t, "CDC Emitter", m.Name())
	})

	t.Run("Stop before Start", func(t *testing.T) {
		m, err := New(&Config{Address: "127.0.0.1"})
		require.NoError(t, err)
		assert.Nil(t, m.Stop())
	})
}

func TestManager_raiseCDCEvent(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		params        *CDCParams
		sendErrors    []error
		expectRemoved []bool
	}{
		"single client successful write": {
			params: &CDCParams{
				Operation: litetable.OperationWrite,
				RowKey:    "John Doe",
				Family:    "derived",
				Qualifier: "city",
				Column: litetable.TimestampedValue{
					Value:     []byte("Springfield"),
					Timestamp: time.Now().UnixNano(),
				},
			},
			sendErrors:    []error{nil},
			expectRemoved: []bool{false},
		},
		"some clients with send errors": {
			params: &CDCParams{
				Operation: litetable.OperationWrite,
				RowKey:    "Jane Roe",
				Family:    "derived",
				Qualifier: "zip",
				Column: litetable.TimestampedValue{
					Value:     []byte("62704"),
					Timestamp: time.Now().UnixNano(),
				},
			},
			sendErrors:    []error{nil, errors.New("stream closed"), nil},
			expectRemoved: []bool{false, true, false},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			m := &Manager{streams: make(map[string]v1.CDCService_CDCStreamServer)}

			fakes := make([]*fakeStream, len(tc.sendErrors))
			ids := []string{"a", "b", "c"}
			for i, sendErr := range tc.sendErrors {
				fakes[i] = &fakeStream{ctx: context.Background(), sendErr: sendErr}
				m.registerStream(ids[i], fakes[i])
			}

			m.raiseCDCEvent(tc.params)

			for i, f := range fakes {
				_, exists := m.streams[ids[i]]
				assert.Equal(t, !tc.expectRemoved[i], exists)
				if tc.expectRemoved[i] {
					continue
				}
				require.Len(t, f.sent, 1)
				got := f.sent[0]
				require.Equal(t, v1.LitetableOperation_WRITE, got.GetOperation())
				require.Equal(t, tc.params.RowKey, got.GetRowKey())
				require.Equal(t, tc.params.Family, got.GetFamily())
				require.Equal(t, tc.params.Qualifier, got.GetQualifier())
				require.Equal(t, tc.params.Column.Value, got.GetValue())
				require.Equal(t, tc.params.Column.Timestamp, got.GetTimestampUnix())
			}
		})
	}
}

func TestManager_CDCStreamRequiresClientID(t *testing.T) {
	t.Parallel()
	m, err := New(&Config{Address: "127.0.0.1"})
	require.NoError(t, err)

	err = m.CDCStream(&v1.CDCSubscriptionRequest{}, &fakeStream{ctx: context.Background()})
	require.Error(t, err)
}

func TestManager_Stream(t *testing.T) {
	m, err := New(&Config{Address: "127.0.0.1", BufferSize: 16})
	require.NoError(t, err)
	require.NoError(t, m.Start())
	defer m.Stop()

	conn, err := grpc.NewClient(m.Addr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := v1.NewCDCServiceClient(conn).CDCStream(ctx, &v1.CDCSubscriptionRequest{
		ClientId: "extract-test",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return m.subscriberCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	m.Emit(&CDCParams{
		Operation: litetable.OperationWrite,
		RowKey:    "John Doe",
		Family:    "derived",
		Qualifier: "addr_line_1",
		Column:    litetable.TimestampedValue{Value: []byte("123 Main St"), Timestamp: 42},
	})

	event, err := stream.Recv()
	require.NoError(t, err)
	require.Equal(t, "John Doe", event.GetRowKey())
	require.Equal(t, "addr_line_1", event.GetQualifier())
	require.Equal(t, []byte("123 Main St"), event.GetValue())
	require.Equal(t, int64(42), event.GetTimestampUnix())
}
