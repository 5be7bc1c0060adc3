package connect

import (
	"context"
	"time"

	"connectrpc.com/connect"
	zlog "github.com/rs/zerolog/log"
)

// NewLoggingInterceptor creates an interceptor that logs unary calls.
// Client errors are logged at debug, server errors at error.
func NewLoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			res, err := next(ctx, req)
			elapsed := time.Since(start)

			procedure := req.Spec().Procedure
			if err == nil {
				zlog.Debug().Msgf("rpc: procedure=%s peer=%s elapsed=%v", procedure, req.Peer().Addr, elapsed)
				return res, nil
			}

			code := connect.CodeOf(err)
			switch code {
			case connect.CodeInternal, connect.CodeUnknown, connect.CodeDataLoss:
				zlog.Error().Msgf("rpc failed: procedure=%s code=%s elapsed=%v error=%v", procedure, code, elapsed, err)
			default:
				zlog.Debug().Msgf("rpc rejected: procedure=%s code=%s elapsed=%v error=%v", procedure, code, elapsed, err)
			}
			return res, err
		}
	}
}
