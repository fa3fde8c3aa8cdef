package interp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"github.com/jhump/protoreflect/grpcreflect"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	rpb "google.golang.org/grpc/reflection/grpc_reflection_v1alpha"
)

// ---------------------------------------------------------------------------
// Remote messaging. RemoteHost talks to any gRPC server that exposes
// the reflection service: no generated bindings, method and message
// descriptors are resolved at call time and payloads travel as JSON
// text or as field-name/value pair arrays (rpc_convert.go). Every
// failure here is a primitive failure with a cause, so language code
// can rescue by overriding the kernel fallbacks.
// ---------------------------------------------------------------------------

// remoteClient wraps a live connection plus its reflection client.
// Instances of RemoteHost hold one in their handle slot, boxed as a
// Native value.
type remoteClient struct {
	conn      *grpc.ClientConn
	refClient *grpcreflect.Client
	target    string
	closed    atomic.Bool
	mu        sync.Mutex
}

func (in *Interp) installRemoteKernel() {
	in.prims[800] = primRemoteConnect
	in.prims[801] = primRemoteCall
	in.prims[802] = primRemoteServices
	in.prims[803] = primRemoteMethods
	in.prims[804] = primRemoteClose

	host := in.RemoteHostClass
	host.AddClassMethod(primMethod("connectTo:", []string{"target"}, 800))
	host.AddMethod(primMethod("call:with:", []string{"method", "payload"}, 801))
	host.AddMethod(primMethod("services", nil, 802))
	host.AddMethod(primMethod("methodsOf:", []string{"serviceName"}, 803))
	host.AddMethod(primMethod("close", nil, 804))
}

// remoteClientOf unboxes the client behind a RemoteHost instance.
func (in *Interp) remoteClientOf(recv Value) (*remoteClient, error) {
	inst, ok := recv.(*Instance)
	if !ok || !inst.Class().InheritsFrom(in.RemoteHostClass) {
		return nil, Fail(ErrTypeMismatch)
	}
	idx := in.RemoteHostClass.InstVarIndex("handle")
	nat, ok := inst.GetSlot(idx).(*Native)
	if !ok {
		return nil, Fail(errors.New("host has no connection"))
	}
	rc, ok := nat.Obj.(*remoteClient)
	if !ok {
		return nil, Fail(errors.New("host has no connection"))
	}
	if rc.closed.Load() {
		return nil, Fail(errors.New("connection closed"))
	}
	return rc, nil
}

// resolveRemoteMethod turns "package.Service/Method" into its
// descriptor via server reflection.
func resolveRemoteMethod(rc *remoteClient, fullMethod string) (*desc.MethodDescriptor, error) {
	parts := strings.Split(fullMethod, "/")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid method %q (expected 'service/method')", fullMethod)
	}
	svcDesc, err := rc.refClient.ResolveService(parts[0])
	if err != nil {
		return nil, fmt.Errorf("cannot resolve service %s: %w", parts[0], err)
	}
	md := svcDesc.FindMethodByName(parts[1])
	if md == nil {
		return nil, fmt.Errorf("method %s not found in service %s", parts[1], parts[0])
	}
	return md, nil
}

func primRemoteConnect(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 1 {
		return nil, Fail(ErrBadArgumentCount)
	}
	cls, ok := recv.(*Class)
	if !ok || !cls.InheritsFrom(in.RemoteHostClass) {
		return nil, Fail(ErrNotAClass)
	}
	target, ok := f.ArgumentAt(0).(*String)
	if !ok {
		return nil, Fail(ErrTypeMismatch)
	}
	conn, err := grpc.Dial(target.Text(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, Fail(fmt.Errorf("dial %s: %w", target.Text(), err))
	}
	rc := &remoteClient{
		conn:      conn,
		refClient: grpcreflect.NewClientV1Alpha(context.Background(), rpb.NewServerReflectionClient(conn)),
		target:    target.Text(),
	}
	inst := NewInstance(cls)
	inst.SetSlot(in.RemoteHostClass.InstVarIndex("handle"),
		&Native{TypeName: "grpc.client", Obj: rc})
	return inst, nil
}

func primRemoteCall(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 2 {
		return nil, Fail(ErrBadArgumentCount)
	}
	rc, err := in.remoteClientOf(recv)
	if err != nil {
		return nil, err
	}
	method, ok := f.ArgumentAt(0).(*String)
	if !ok {
		return nil, Fail(ErrTypeMismatch)
	}
	payload := f.ArgumentAt(1)
	switch payload.(type) {
	case *String, *Array:
	default:
		return nil, Fail(ErrTypeMismatch)
	}
	md, err := resolveRemoteMethod(rc, method.Text())
	if err != nil {
		return nil, Fail(err)
	}
	if md.IsServerStreaming() || md.IsClientStreaming() {
		return nil, Fail(fmt.Errorf("method %s is streaming", method.Text()))
	}
	var req *dynamic.Message
	if js, ok := payload.(*String); ok {
		req = dynamic.NewMessage(md.GetInputType())
		if err := req.UnmarshalJSON(js.Val); err != nil {
			return nil, Fail(fmt.Errorf("request conversion: %w", err))
		}
	} else {
		req, err = pairsToProto(payload.(*Array), md.GetInputType())
		if err != nil {
			return nil, Fail(fmt.Errorf("request conversion: %w", err))
		}
	}
	resp := dynamic.NewMessage(md.GetOutputType())
	if err := rc.conn.Invoke(context.Background(), "/"+method.Text(), req, resp); err != nil {
		return nil, Fail(fmt.Errorf("call failed: %w", err))
	}
	out, err := resp.MarshalJSON()
	if err != nil {
		return nil, Fail(fmt.Errorf("response conversion: %w", err))
	}
	return &String{Val: out}, nil
}

func primRemoteServices(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 0 {
		return nil, Fail(ErrBadArgumentCount)
	}
	rc, err := in.remoteClientOf(recv)
	if err != nil {
		return nil, err
	}
	services, err := rc.refClient.ListServices()
	if err != nil {
		return nil, Fail(fmt.Errorf("list services: %w", err))
	}
	var names []Value
	for _, svc := range services {
		// The reflection service itself is not interesting to callers.
		if strings.HasPrefix(svc, "grpc.reflection") {
			continue
		}
		names = append(names, NewString(svc))
	}
	return &Array{Elems: names}, nil
}

func primRemoteMethods(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 1 {
		return nil, Fail(ErrBadArgumentCount)
	}
	rc, err := in.remoteClientOf(recv)
	if err != nil {
		return nil, err
	}
	svcName, ok := f.ArgumentAt(0).(*String)
	if !ok {
		return nil, Fail(ErrTypeMismatch)
	}
	svcDesc, err := rc.refClient.ResolveService(svcName.Text())
	if err != nil {
		return nil, Fail(fmt.Errorf("cannot resolve service %s: %w", svcName.Text(), err))
	}
	methods := svcDesc.GetMethods()
	arr := NewArray(len(methods))
	for i, md := range methods {
		arr.Elems[i] = NewString(md.GetName())
	}
	return arr, nil
}

func primRemoteClose(in *Interp, recv Value, f *Frame, m *Method) (Value, error) {
	if len(m.Params) != 0 {
		return nil, Fail(ErrBadArgumentCount)
	}
	inst, ok := recv.(*Instance)
	if !ok || !inst.Class().InheritsFrom(in.RemoteHostClass) {
		return nil, Fail(ErrTypeMismatch)
	}
	idx := in.RemoteHostClass.InstVarIndex("handle")
	nat, ok := inst.GetSlot(idx).(*Native)
	if !ok {
		return recv, nil
	}
	rc, ok := nat.Obj.(*remoteClient)
	if !ok {
		return recv, nil
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if !rc.closed.Load() {
		rc.closed.Store(true)
		rc.refClient.Reset()
		rc.conn.Close()
	}
	return recv, nil
}
