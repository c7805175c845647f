// pkg/protocol/protocol.go
//
// Messages and service definition for the rollsim.Similarity gRPC service.
// Messages are plain structs carried by the "json" codec registered below.
package protocol

import (
	"context"

	json "github.com/goccy/go-json"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

/* ------------------------------------------------------------------------ */
/* messages                                                                 */
/* ------------------------------------------------------------------------ */

type CompareRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

type CompareResponse struct {
	Ok    bool    `json:"ok"`
	Error string  `json:"error,omitempty"`
	Score float64 `json:"score"`
	SetA  int     `json:"set_a"`
	SetB  int     `json:"set_b"`
}

type FingerprintRequest struct {
	Path string `json:"path"`
}

type FingerprintResponse struct {
	Ok       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
	Bytes    int64  `json:"bytes"`
	Windows  int64  `json:"windows"`
	Selected int    `json:"selected"`
}

/* ------------------------------------------------------------------------ */
/* codec                                                                    */
/* ------------------------------------------------------------------------ */

// CodecName is the content-subtype clients must select with
// grpc.CallContentSubtype (done by NewSimilarityClient).
const CodecName = "json"

type codec struct{}

func (codec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (codec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (codec) Name() string                       { return CodecName }

func init() {
	encoding.RegisterCodec(codec{})
}

/* ------------------------------------------------------------------------ */
/* server                                                                   */
/* ------------------------------------------------------------------------ */

const ServiceName = "rollsim.Similarity"

type SimilarityServer interface {
	Compare(context.Context, *CompareRequest) (*CompareResponse, error)
	Fingerprint(context.Context, *FingerprintRequest) (*FingerprintResponse, error)
}

func RegisterSimilarityServer(s grpc.ServiceRegistrar, srv SimilarityServer) {
	s.RegisterService(&similarityServiceDesc, srv)
}

func compareHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CompareRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SimilarityServer).Compare(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Compare"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SimilarityServer).Compare(ctx, req.(*CompareRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func fingerprintHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(FingerprintRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SimilarityServer).Fingerprint(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Fingerprint"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SimilarityServer).Fingerprint(ctx, req.(*FingerprintRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var similarityServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SimilarityServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Compare", Handler: compareHandler},
		{MethodName: "Fingerprint", Handler: fingerprintHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rollsim/similarity",
}

/* ------------------------------------------------------------------------ */
/* client                                                                   */
/* ------------------------------------------------------------------------ */

type SimilarityClient interface {
	Compare(ctx context.Context, in *CompareRequest, opts ...grpc.CallOption) (*CompareResponse, error)
	Fingerprint(ctx context.Context, in *FingerprintRequest, opts ...grpc.CallOption) (*FingerprintResponse, error)
}

type similarityClient struct {
	cc grpc.ClientConnInterface
}

func NewSimilarityClient(cc grpc.ClientConnInterface) SimilarityClient {
	return &similarityClient{cc: cc}
}

func (c *similarityClient) Compare(ctx context.Context, in *CompareRequest, opts ...grpc.CallOption) (*CompareResponse, error) {
	out := new(CompareResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Compare", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *similarityClient) Fingerprint(ctx context.Context, in *FingerprintRequest, opts ...grpc.CallOption) (*FingerprintResponse, error) {
	out := new(FingerprintResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Fingerprint", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
