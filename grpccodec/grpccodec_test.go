package grpccodec

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/codec/basen"
	"xdao.co/codec/codecerr"
	"xdao.co/codec/codectest"
	"xdao.co/codec/conformance"
	_ "xdao.co/codec/punycode"
	"xdao.co/codec/registry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startServer(t *testing.T, opts registry.Options) (*Client, *observer.ObservedLogs) {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	core, logs := observer.New(zapcore.DebugLevel)
	srv := grpc.NewServer(grpc.UnaryInterceptor(UnaryLoggingInterceptor(zap.New(core))))
	codecSrv := NewServer(registry.List(), Uniform(opts))
	RegisterCodecServer(srv, codecSrv, codecSrv.Codecs())

	go func() {
		_ = srv.Serve(lis)
	}()

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.Dial() }
	client, err := Dial("bufnet", DialOptions{Extra: []grpc.DialOption{grpc.WithContextDialer(dialer)}})
	if err != nil {
		srv.Stop()
		t.Fatalf("Dial: %v", err)
	}
	client.Timeout = 2 * time.Second

	t.Cleanup(func() {
		_ = client.Close()
		srv.Stop()
	})
	return client, logs
}

func TestGRPCCodec_Conformance(t *testing.T) {
	client, _ := startServer(t, registry.Options{})
	for _, name := range registry.Names() {
		name := name
		t.Run(name, func(t *testing.T) {
			codectest.RunTextCodecConformance(t, codectest.SuiteFor(name, func(t *testing.T) registry.TextCodec {
				c, err := client.Codec(name)
				if err != nil {
					t.Fatalf("Codec(%q): %v", name, err)
				}
				return c
			}))
		})
	}
}

func TestGRPCCodec_Vectors(t *testing.T) {
	client, _ := startServer(t, registry.Options{})
	vectors, err := conformance.Load(filepath.Join("..", "testdata", "conformance", "xdao-codec-1", "vectors.tsv"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rep := conformance.Verify(vectors, client.Codec)
	for _, f := range rep.Failures {
		t.Errorf("%s", f)
	}
	if rep.Passed != len(vectors) {
		t.Fatalf("passed %d of %d", rep.Passed, len(vectors))
	}
}

func TestGRPCCodec_ErrorsMatchLocal(t *testing.T) {
	client, logs := startServer(t, registry.Options{})
	remote, err := client.Codec("base32")
	if err != nil {
		t.Fatalf("Codec: %v", err)
	}

	for _, in := range []string{"1234567", "ABCDEFG!", ""} {
		_, localErr := basen.Base32.DecodeString(in)
		_, remoteErr := remote.Decode(in)

		var want, got *codecerr.Error
		if !errors.As(localErr, &want) {
			t.Fatalf("local %q: expected *codecerr.Error, got %v", in, localErr)
		}
		if !errors.As(remoteErr, &got) {
			t.Fatalf("remote %q: expected *codecerr.Error, got %v", in, remoteErr)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("remote error for %q differs (-local +remote):\n%s", in, diff)
		}
	}

	rejected := logs.FilterMessage("codec rpc rejected")
	if rejected.Len() != 3 {
		t.Fatalf("logged %d rejections, want 3", rejected.Len())
	}
	if got := rejected.All()[0].ContextMap()["rule_id"]; got != "B32-LEN-001" {
		t.Fatalf("rule_id = %v", got)
	}
}

func TestGRPCCodec_StatusCodes(t *testing.T) {
	client, _ := startServer(t, registry.Options{MaxInput: 4})

	_, err := client.client.Decode(context.Background(), "Base64", wrapperspb.String("TWF"))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("Decode code = %v, want InvalidArgument", status.Code(err))
	}

	_, err = client.client.Encode(context.Background(), "Base64", wrapperspb.Bytes([]byte("hello")))
	if status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("Encode code = %v, want ResourceExhausted", status.Code(err))
	}
	if !codecerr.IsKind(fromStatus(err), codecerr.KindInputTooLarge) {
		t.Fatalf("expected InputTooLarge, got %v", fromStatus(err))
	}

	_, err = client.Method("Nope").Encode([]byte("x"))
	if status.Code(err) != codes.Unimplemented {
		t.Fatalf("unknown method code = %v, want Unimplemented", status.Code(err))
	}
	if codecerr.KindOf(err) != "" {
		t.Fatalf("unknown method should not map to a codec error: %v", err)
	}
}

func TestGRPCCodec_UnknownCodecName(t *testing.T) {
	client, _ := startServer(t, registry.Options{})
	if _, err := client.Codec("base99"); !registry.IsUnknownCodec(err) {
		t.Fatalf("expected ErrUnknownCodec, got %v", err)
	}
}

func TestServiceDesc_Methods(t *testing.T) {
	desc := ServiceDesc([]registry.Codec{{Name: "base32", Method: "Base32"}, {Name: "punycode", Method: "Punycode"}})
	var got []string
	for _, m := range desc.Methods {
		got = append(got, m.MethodName)
	}
	want := []string{"EncodeBase32", "DecodeBase32", "EncodePunycode", "DecodePunycode"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("methods (-want +got):\n%s", diff)
	}
	if desc.ServiceName != ServiceName {
		t.Fatalf("service name = %q", desc.ServiceName)
	}
	if EncodeMethod("Base32") != "/xdao.codec.v1.Codec/EncodeBase32" {
		t.Fatalf("EncodeMethod = %q", EncodeMethod("Base32"))
	}
}

func TestNilClient(t *testing.T) {
	var c *Client
	if _, err := c.Encode("Base32", []byte("x")); err == nil {
		t.Fatalf("expected error from nil client")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close on nil client: %v", err)
	}
}

func TestSetLogger_Concurrent(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	core, logs := observer.New(zapcore.InfoLevel)
	want := zap.New(core)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetLogger(want)
		}()
		go func() {
			defer wg.Done()
			if Logger() == nil {
				t.Errorf("Logger returned nil")
			}
		}()
	}
	wg.Wait()

	Logger().Info("after swap")
	if logs.FilterMessage("after swap").Len() != 1 {
		t.Fatalf("installed logger not used")
	}

	SetLogger(nil)
	if Logger() == want {
		t.Fatalf("SetLogger(nil) kept the previous logger")
	}
}
