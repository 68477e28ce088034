package grpccodec

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/codec/registry"
)

var errNoClient = errors.New("grpccodec: client not connected")

// Client talks to a Codec gRPC service.
type Client struct {
	cc     *grpc.ClientConn
	client CodecClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int

	// Extra is appended to the default dial options (e.g. a context dialer).
	Extra []grpc.DialOption
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}
	dialOpts = append(dialOpts, opts.Extra...)

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: NewCodecClient(cc)}, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

// Codec returns a registry.TextCodec that runs the named codec remotely.
// The name is resolved to its RPC method through the local registry.
func (c *Client) Codec(name string) (registry.TextCodec, error) {
	reg, ok := registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", registry.ErrUnknownCodec, name)
	}
	return c.Method(reg.Method), nil
}

// Method returns a registry.TextCodec bound to the Encode<method> and
// Decode<method> RPCs.
func (c *Client) Method(method string) registry.TextCodec {
	return remoteCodec{c: c, method: method}
}

func (c *Client) Encode(method string, src []byte) (string, error) {
	if c == nil || c.client == nil {
		return "", errNoClient
	}
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.Encode(ctx, method, wrapperspb.Bytes(src))
	if err != nil {
		return "", fromStatus(err)
	}
	return reply.GetValue(), nil
}

func (c *Client) Decode(method string, s string) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, errNoClient
	}
	ctx, cancel := c.ctx()
	defer cancel()

	reply, err := c.client.Decode(ctx, method, wrapperspb.String(s))
	if err != nil {
		return nil, fromStatus(err)
	}
	b := reply.GetValue()
	if b == nil {
		b = []byte{}
	}
	return b, nil
}

func (c *Client) ctx() (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), c.Timeout)
}

type remoteCodec struct {
	c      *Client
	method string
}

func (r remoteCodec) Encode(src []byte) (string, error) { return r.c.Encode(r.method, src) }
func (r remoteCodec) Decode(s string) ([]byte, error)   { return r.c.Decode(r.method, s) }
