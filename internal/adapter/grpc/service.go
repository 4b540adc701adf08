package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "portfolio.history.v1.HistoryService"

const (
	HistoryService_CalculateRange_FullMethodName  = "/" + ServiceName + "/CalculateRange"
	HistoryService_ResumeJob_FullMethodName       = "/" + ServiceName + "/ResumeJob"
	HistoryService_ValueOn_FullMethodName         = "/" + ServiceName + "/ValueOn"
	HistoryService_ListDailyValues_FullMethodName = "/" + ServiceName + "/ListDailyValues"
	HistoryService_GetJob_FullMethodName          = "/" + ServiceName + "/GetJob"
)

// HistoryServiceServer is the server API for HistoryService
type HistoryServiceServer interface {
	CalculateRange(*CalculateRangeRequest, HistoryService_RangeServer) error
	ResumeJob(*ResumeJobRequest, HistoryService_RangeServer) error
	ValueOn(context.Context, *ValueOnRequest) (*DailyValue, error)
	ListDailyValues(context.Context, *ListDailyValuesRequest) (*ListDailyValuesResponse, error)
	GetJob(context.Context, *GetJobRequest) (*Job, error)
}

// HistoryService_RangeServer is the server side of a CalculateRange or ResumeJob stream
type HistoryService_RangeServer interface {
	Send(*RangeEvent) error
	grpc.ServerStream
}

type historyServiceRangeServer struct {
	grpc.ServerStream
}

func (x *historyServiceRangeServer) Send(m *RangeEvent) error {
	return x.ServerStream.SendMsg(m)
}

// RegisterHistoryServiceServer registers srv on s
func RegisterHistoryServiceServer(s grpc.ServiceRegistrar, srv HistoryServiceServer) {
	s.RegisterService(&HistoryService_ServiceDesc, srv)
}

func _HistoryService_CalculateRange_Handler(srv any, stream grpc.ServerStream) error {
	m := new(CalculateRangeRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(HistoryServiceServer).CalculateRange(m, &historyServiceRangeServer{stream})
}

func _HistoryService_ResumeJob_Handler(srv any, stream grpc.ServerStream) error {
	m := new(ResumeJobRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(HistoryServiceServer).ResumeJob(m, &historyServiceRangeServer{stream})
}

func _HistoryService_ValueOn_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ValueOnRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(HistoryServiceServer).ValueOn(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HistoryService_ValueOn_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(HistoryServiceServer).ValueOn(ctx, req.(*ValueOnRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _HistoryService_ListDailyValues_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListDailyValuesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(HistoryServiceServer).ListDailyValues(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HistoryService_ListDailyValues_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(HistoryServiceServer).ListDailyValues(ctx, req.(*ListDailyValuesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _HistoryService_GetJob_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetJobRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(HistoryServiceServer).GetJob(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HistoryService_GetJob_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(HistoryServiceServer).GetJob(ctx, req.(*GetJobRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// HistoryService_ServiceDesc is the grpc.ServiceDesc for HistoryService
var HistoryService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*HistoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ValueOn", Handler: _HistoryService_ValueOn_Handler},
		{MethodName: "ListDailyValues", Handler: _HistoryService_ListDailyValues_Handler},
		{MethodName: "GetJob", Handler: _HistoryService_GetJob_Handler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "CalculateRange", Handler: _HistoryService_CalculateRange_Handler, ServerStreams: true},
		{StreamName: "ResumeJob", Handler: _HistoryService_ResumeJob_Handler, ServerStreams: true},
	},
	Metadata: "portfolio/history/v1/history.proto",
}

// HistoryServiceClient is the client API for HistoryService.
// Calls are sent with the JSON content-subtype.
type HistoryServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewHistoryServiceClient creates a client on cc
func NewHistoryServiceClient(cc grpc.ClientConnInterface) *HistoryServiceClient {
	return &HistoryServiceClient{cc: cc}
}

// HistoryService_RangeClient is the client side of a CalculateRange or ResumeJob stream
type HistoryService_RangeClient interface {
	Recv() (*RangeEvent, error)
	grpc.ClientStream
}

type historyServiceRangeClient struct {
	grpc.ClientStream
}

func (x *historyServiceRangeClient) Recv() (*RangeEvent, error) {
	m := new(RangeEvent)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// CalculateRange starts a range calculation and streams its progress
func (c *HistoryServiceClient) CalculateRange(ctx context.Context, in *CalculateRangeRequest, opts ...grpc.CallOption) (HistoryService_RangeClient, error) {
	return c.openRange(ctx, 0, HistoryService_CalculateRange_FullMethodName, in, opts)
}

// ResumeJob continues a job and streams its progress
func (c *HistoryServiceClient) ResumeJob(ctx context.Context, in *ResumeJobRequest, opts ...grpc.CallOption) (HistoryService_RangeClient, error) {
	return c.openRange(ctx, 1, HistoryService_ResumeJob_FullMethodName, in, opts)
}

func (c *HistoryServiceClient) openRange(ctx context.Context, index int, method string, in any, opts []grpc.CallOption) (HistoryService_RangeClient, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &HistoryService_ServiceDesc.Streams[index], method, opts...)
	if err != nil {
		return nil, err
	}
	x := &historyServiceRangeClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// ValueOn values and stores one day
func (c *HistoryServiceClient) ValueOn(ctx context.Context, in *ValueOnRequest, opts ...grpc.CallOption) (*DailyValue, error) {
	out := new(DailyValue)
	if err := c.invoke(ctx, HistoryService_ValueOn_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// ListDailyValues lists stored records
func (c *HistoryServiceClient) ListDailyValues(ctx context.Context, in *ListDailyValuesRequest, opts ...grpc.CallOption) (*ListDailyValuesResponse, error) {
	out := new(ListDailyValuesResponse)
	if err := c.invoke(ctx, HistoryService_ListDailyValues_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// GetJob fetches a calculation job
func (c *HistoryServiceClient) GetJob(ctx context.Context, in *GetJobRequest, opts ...grpc.CallOption) (*Job, error) {
	out := new(Job)
	if err := c.invoke(ctx, HistoryService_GetJob_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HistoryServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

// UnimplementedHistoryServiceServer can be embedded to have forward compatible implementations
type UnimplementedHistoryServiceServer struct{}

func (UnimplementedHistoryServiceServer) CalculateRange(*CalculateRangeRequest, HistoryService_RangeServer) error {
	return status.Error(codes.Unimplemented, "method CalculateRange not implemented")
}
func (UnimplementedHistoryServiceServer) ResumeJob(*ResumeJobRequest, HistoryService_RangeServer) error {
	return status.Error(codes.Unimplemented, "method ResumeJob not implemented")
}
func (UnimplementedHistoryServiceServer) ValueOn(context.Context, *ValueOnRequest) (*DailyValue, error) {
	return nil, status.Error(codes.Unimplemented, "method ValueOn not implemented")
}
func (UnimplementedHistoryServiceServer) ListDailyValues(context.Context, *ListDailyValuesRequest) (*ListDailyValuesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListDailyValues not implemented")
}
func (UnimplementedHistoryServiceServer) GetJob(context.Context, *GetJobRequest) (*Job, error) {
	return nil, status.Error(codes.Unimplemented, "method GetJob not implemented")
}
