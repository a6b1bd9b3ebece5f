package download

import (
	"context"
	stderrors "errors"
	"io"

	"github.com/glorpus-work/fetchd/pkg/errors"
	"golang.org/x/time/rate"
)

// transfer copies body to dst in chunks of at most chunkSize bytes.
//
// Before each chunk is written the context is checked, so a cancellation takes effect
// at the next chunk boundary and leaves the bytes written so far on disk. A write
// failure is reported as errors.KindIO and a read failure as errors.KindTransfer; an
// ended context wins over both and is reported by interrupted. When limiter is non-nil
// every chunk waits for its bytes to become available.
func transfer(ctx context.Context, body io.Reader, dst io.Writer, chunkSize int, limiter *rate.Limiter, st *transferState, tel *telemetry) error {
	buf := make([]byte, chunkSize)
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if ctx.Err() != nil {
				return interrupted(ctx, "write")
			}
			if limiter != nil {
				if err := limiter.WaitN(ctx, n); err != nil {
					if ctx.Err() != nil {
						return interrupted(ctx, "rate")
					}
					// the wait would outlast the deadline
					return errors.NewDownloadError(errors.KindTransfer, "rate", err)
				}
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				return errors.NewDownloadError(errors.KindIO, "write", err)
			}
			st.downloaded += int64(n)
			tel.observe(st)
		}

		if rerr == io.EOF {
			tel.finish(st)
			return nil
		}
		if rerr != nil {
			if ctx.Err() != nil {
				return interrupted(ctx, "read")
			}
			return errors.NewDownloadError(errors.KindTransfer, "read", rerr)
		}
	}
}

// newLimiter returns nil when bytesPerSecond disables throttling. The burst equals
// the chunk size so a full chunk can always be granted.
func newLimiter(bytesPerSecond int64, chunkSize int) *rate.Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(bytesPerSecond), chunkSize)
}

// cancelledByCaller reports whether ctx ended through a cancellation, as opposed to a
// deadline or a foreign cause.
func cancelledByCaller(ctx context.Context) bool {
	if ctx.Err() == nil {
		return false
	}
	cause := context.Cause(ctx)
	return cause == nil || stderrors.Is(cause, errors.ErrCancelled) || stderrors.Is(cause, context.Canceled)
}

// interrupted converts the end of ctx into an error. A cancellation becomes
// errors.KindCancelled; anything else, a deadline included, fails op with
// errors.KindTransfer and keeps the cause.
func interrupted(ctx context.Context, op string) error {
	cause := context.Cause(ctx)
	if !cancelledByCaller(ctx) {
		return errors.NewDownloadError(errors.KindTransfer, op, cause)
	}
	if stderrors.Is(cause, errors.ErrCancelled) {
		return errors.NewDownloadError(errors.KindCancelled, "", nil)
	}
	return errors.NewDownloadError(errors.KindCancelled, "", cause)
}
