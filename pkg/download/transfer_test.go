package download

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/glorpus-work/fetchd/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func newTestTelemetry(rec *recordingObserver) *telemetry {
	clock := newFakeClock()
	return newTelemetry("t", rec.hooks(), clock.Now, time.Hour)
}

func TestTransfer_CopiesInChunks(t *testing.T) {
	payload := strings.Repeat("x", 1000)
	var dst bytes.Buffer
	rec := &recordingObserver{}
	st := &transferState{total: int64(len(payload))}

	err := transfer(context.Background(), strings.NewReader(payload), &dst, 64, nil, st, newTestTelemetry(rec))

	require.NoError(t, err)
	assert.Equal(t, payload, dst.String())
	assert.Equal(t, int64(1000), st.downloaded)
	require.NotEmpty(t, rec.progress)
	assert.Equal(t, 100, rec.progress[len(rec.progress)-1].Percent)
}

func TestTransfer_WriteFailureIsIO(t *testing.T) {
	st := &transferState{}
	err := transfer(context.Background(), strings.NewReader("data"), failingWriter{err: io.ErrShortWrite}, 8, nil, st, newTestTelemetry(&recordingObserver{}))

	require.Error(t, err)
	assert.Equal(t, errors.KindIO, errors.KindOf(err))
	assert.ErrorIs(t, err, io.ErrShortWrite)
	assert.Zero(t, st.downloaded)
}

func TestTransfer_ReadFailureIsTransfer(t *testing.T) {
	boom := stderrors.New("connection reset")
	var dst bytes.Buffer
	st := &transferState{}
	body := &failingReader{data: []byte("partial"), err: boom}

	err := transfer(context.Background(), body, &dst, 4, nil, st, newTestTelemetry(&recordingObserver{}))

	require.Error(t, err)
	assert.Equal(t, errors.KindTransfer, errors.KindOf(err))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "partial", dst.String())
	assert.Equal(t, int64(7), st.downloaded)
}

func TestTransfer_CancelledBeforeWrite(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(errors.ErrCancelled)

	var dst bytes.Buffer
	err := transfer(ctx, strings.NewReader("data"), &dst, 8, nil, &transferState{}, newTestTelemetry(&recordingObserver{}))

	require.Error(t, err)
	assert.Equal(t, errors.KindCancelled, errors.KindOf(err))
	assert.Zero(t, dst.Len())
}

func TestTransfer_CancelWinsOverReadError(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(errors.ErrCancelled)

	body := &failingReader{err: context.Canceled}
	err := transfer(ctx, body, io.Discard, 8, nil, &transferState{}, newTestTelemetry(&recordingObserver{}))

	assert.Equal(t, errors.KindCancelled, errors.KindOf(err))
	assert.ErrorIs(t, err, errors.ErrCancelled)
}

func TestTransfer_RateLimited(t *testing.T) {
	payload := bytes.Repeat([]byte("a"), 300)
	limiter := newLimiter(1000, 100)
	require.NotNil(t, limiter)

	start := time.Now()
	err := transfer(context.Background(), bytes.NewReader(payload), io.Discard, 100, limiter, &transferState{}, newTestTelemetry(&recordingObserver{}))
	require.NoError(t, err)

	// the first chunk uses the burst, the other two wait ~100ms each
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestNewLimiter_Disabled(t *testing.T) {
	assert.Nil(t, newLimiter(0, 1024))
	assert.Nil(t, newLimiter(-5, 1024))
}

func TestInterrupted(t *testing.T) {
	foreign := stderrors.New("shutting down")

	tests := []struct {
		name      string
		ctx       func() context.Context
		wantKind  errors.Kind
		wantCause error
	}{
		{
			name: "engine cancellation",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancelCause(context.Background())
				cancel(errors.ErrCancelled)
				return ctx
			},
			wantKind: errors.KindCancelled,
		},
		{
			name: "parent cancellation",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			wantKind:  errors.KindCancelled,
			wantCause: context.Canceled,
		},
		{
			name: "deadline",
			ctx: func() context.Context {
				ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
				t.Cleanup(cancel)
				<-ctx.Done()
				return ctx
			},
			wantKind:  errors.KindTransfer,
			wantCause: context.DeadlineExceeded,
		},
		{
			name: "foreign cause",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancelCause(context.Background())
				cancel(foreign)
				return ctx
			},
			wantKind:  errors.KindTransfer,
			wantCause: foreign,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := interrupted(tt.ctx(), "read")
			assert.Equal(t, tt.wantKind, errors.KindOf(err))
			if tt.wantCause != nil {
				assert.ErrorIs(t, err, tt.wantCause)
			}
			assert.Equal(t, tt.wantKind == errors.KindCancelled, stderrors.Is(err, errors.ErrCancelled))
		})
	}
}

func TestTransfer_DeadlineIsFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	err := transfer(ctx, strings.NewReader("data"), io.Discard, 8, nil, &transferState{}, newTestTelemetry(&recordingObserver{}))

	assert.Equal(t, errors.KindTransfer, errors.KindOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, errors.ErrCancelled)
}

func TestTransfer_RateWaitBeyondDeadlineFails(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// one byte per second: the second chunk cannot be granted before the deadline
	limiter := newLimiter(1, 100)
	payload := bytes.Repeat([]byte("a"), 200)
	st := &transferState{}

	err := transfer(ctx, bytes.NewReader(payload), io.Discard, 100, limiter, st, newTestTelemetry(&recordingObserver{}))

	assert.Equal(t, errors.KindTransfer, errors.KindOf(err))
	assert.Contains(t, err.Error(), "rate")
	assert.Equal(t, int64(100), st.downloaded)
}
