package grpccodec

import (
	"errors"
	"strconv"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"xdao.co/codec/codecerr"
)

// ErrorDomain is the ErrorInfo domain attached to codec failures.
const ErrorDomain = "codec.xdao.co"

// toStatus maps a codec failure onto a gRPC status carrying an ErrorInfo
// detail, so clients can rebuild the *codecerr.Error.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	var ce *codecerr.Error
	if !errors.As(err, &ce) {
		return status.Error(codes.Internal, err.Error())
	}

	code := codes.InvalidArgument
	if ce.Kind == codecerr.KindInputTooLarge {
		code = codes.ResourceExhausted
	}
	st := status.New(code, ce.Message)
	withInfo, derr := st.WithDetails(&errdetails.ErrorInfo{
		Reason: ce.RuleID,
		Domain: ErrorDomain,
		Metadata: map[string]string{
			"kind":   string(ce.Kind),
			"codec":  ce.Codec,
			"offset": strconv.Itoa(ce.Offset),
		},
	})
	if derr != nil {
		return st.Err()
	}
	return withInfo.Err()
}

// fromStatus rebuilds a *codecerr.Error from a status produced by toStatus.
// Other errors are returned unchanged.
func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != ErrorDomain {
			continue
		}
		md := info.GetMetadata()
		kind, ok := codecerr.ParseKind(md["kind"])
		if !ok {
			continue
		}
		offset, perr := strconv.Atoi(md["offset"])
		if perr != nil {
			offset = -1
		}
		return &codecerr.Error{
			Kind:    kind,
			RuleID:  info.GetReason(),
			Codec:   md["codec"],
			Offset:  offset,
			Message: st.Message(),
		}
	}
	return err
}
