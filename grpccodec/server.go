package grpccodec

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/codec/registry"
)

// Server exposes registered codecs over the Codec gRPC service.
type Server struct {
	codecs  []registry.Codec
	handles map[string]registry.TextCodec
}

// OptionsFor returns the options a codec is opened with.
type OptionsFor func(codec string) registry.Options

// Uniform opens every codec with the same options.
func Uniform(opts registry.Options) OptionsFor {
	return func(string) registry.Options { return opts }
}

// NewServer opens each codec with its options. Register the result with
// RegisterCodecServer(s, srv, srv.Codecs()).
func NewServer(codecs []registry.Codec, opts OptionsFor) *Server {
	s := &Server{
		codecs:  append([]registry.Codec(nil), codecs...),
		handles: make(map[string]registry.TextCodec, len(codecs)),
	}
	for _, c := range codecs {
		s.handles[c.Name] = c.Open(opts(c.Name))
	}
	return s
}

// Codecs returns the codecs served, in the order given to NewServer.
func (s *Server) Codecs() []registry.Codec {
	return append([]registry.Codec(nil), s.codecs...)
}

func (s *Server) handle(codec string) (registry.TextCodec, error) {
	if s == nil || s.handles == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing codecs")
	}
	h, ok := s.handles[codec]
	if !ok {
		return nil, status.Errorf(codes.Unimplemented, "codec %q not served", codec)
	}
	return h, nil
}

func (s *Server) Encode(ctx context.Context, codec string, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	_ = ctx
	h, err := s.handle(codec)
	if err != nil {
		return nil, err
	}
	out, err := h.Encode(in.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.String(out), nil
}

func (s *Server) Decode(ctx context.Context, codec string, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	_ = ctx
	h, err := s.handle(codec)
	if err != nil {
		return nil, err
	}
	out, err := h.Decode(in.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bytes(out), nil
}
