package grpccodec

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/codec/registry"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "xdao.codec.v1.Codec"

// CodecServer is the server API for the Codec gRPC service.
//
// The service carries one Encode<Method> and one Decode<Method> RPC per
// registered codec, using protobuf well-known wrapper types so no protoc
// toolchain is needed:
//
//	rpc EncodeBase32(google.protobuf.BytesValue) returns (google.protobuf.StringValue);
//	rpc DecodeBase32(google.protobuf.StringValue) returns (google.protobuf.BytesValue);
type CodecServer interface {
	Encode(ctx context.Context, codec string, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
	Decode(ctx context.Context, codec string, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
}

// EncodeMethod returns the full RPC name of the Encode method for a codec.
func EncodeMethod(method string) string { return "/" + ServiceName + "/Encode" + method }

// DecodeMethod returns the full RPC name of the Decode method for a codec.
func DecodeMethod(method string) string { return "/" + ServiceName + "/Decode" + method }

// RegisterCodecServer registers the Codec service on a gRPC server, with one
// method pair per codec.
func RegisterCodecServer(s grpc.ServiceRegistrar, srv CodecServer, codecs []registry.Codec) {
	desc := ServiceDesc(codecs)
	s.RegisterService(&desc, srv)
}

// ServiceDesc builds the grpc.ServiceDesc for the given codecs.
func ServiceDesc(codecs []registry.Codec) grpc.ServiceDesc {
	methods := make([]grpc.MethodDesc, 0, 2*len(codecs))
	for _, c := range codecs {
		methods = append(methods,
			grpc.MethodDesc{MethodName: "Encode" + c.Method, Handler: encodeHandler(c.Name, EncodeMethod(c.Method))},
			grpc.MethodDesc{MethodName: "Decode" + c.Method, Handler: decodeHandler(c.Name, DecodeMethod(c.Method))},
		)
	}
	return grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*CodecServer)(nil),
		Methods:     methods,
		Streams:     []grpc.StreamDesc{},
		Metadata:    "codec.proto",
	}
}

func encodeHandler(codec, fullMethod string) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(wrapperspb.BytesValue)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return srv.(CodecServer).Encode(ctx, codec, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.(CodecServer).Encode(ctx, codec, req.(*wrapperspb.BytesValue))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func decodeHandler(codec, fullMethod string) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(wrapperspb.StringValue)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return srv.(CodecServer).Decode(ctx, codec, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.(CodecServer).Decode(ctx, codec, req.(*wrapperspb.StringValue))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// CodecClient is the client API for the Codec gRPC service.
type CodecClient interface {
	Encode(ctx context.Context, method string, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	Decode(ctx context.Context, method string, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type codecClient struct{ cc grpc.ClientConnInterface }

func NewCodecClient(cc grpc.ClientConnInterface) CodecClient { return &codecClient{cc: cc} }

func (c *codecClient) Encode(ctx context.Context, method string, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	err := c.cc.Invoke(ctx, EncodeMethod(method), in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *codecClient) Decode(ctx context.Context, method string, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	err := c.cc.Invoke(ctx, DecodeMethod(method), in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}
