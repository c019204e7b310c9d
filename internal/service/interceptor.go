package service

import (
	"context"
	"fmt"
	"time"

	"github.com/GoPolymarket/calllog/internal/model"
	"github.com/GoPolymarket/calllog/internal/pkg/logger"
	"github.com/GoPolymarket/calllog/internal/pkg/traceid"
)

// Submitter accepts logging work; *Dispatcher is the production implementation.
type Submitter interface {
	Submit(traceID string, task Task) bool
}

// Interceptor wraps observed calls. The calling goroutine only captures
// context; serialization and output happen on the dispatcher.
type Interceptor struct {
	dispatcher Submitter
	recorder   *Recorder
	now        func() time.Time
}

func NewInterceptor(dispatcher Submitter, recorder *Recorder) *Interceptor {
	return &Interceptor{
		dispatcher: dispatcher,
		recorder:   recorder,
		now:        time.Now,
	}
}

// Observe runs fn and logs the call according to policy. The value, error or
// panic produced by fn reaches the caller unchanged. A nil interceptor or nil
// policy means the call is not observed and fn runs bare.
func Observe[T any](ctx context.Context, in *Interceptor, policy *model.Policy, call model.Call, fn func(context.Context) (T, error)) (result T, err error) {
	if in == nil || policy == nil {
		return fn(ctx)
	}

	cc := in.capture(ctx, call)
	defer func() {
		p := recover()
		var outcome any
		switch {
		case p != nil:
			outcome = fmt.Sprint(p)
		case err != nil:
			// 抛出, 交给业务处理; 日志里只记录错误信息
			outcome = errMessage(err)
		default:
			outcome = result
		}
		in.finish(ctx, policy, cc, outcome)
		if p != nil {
			panic(p)
		}
	}()

	return fn(ctx)
}

// errMessage is err.Error() for errors whose Error method may panic, typically
// a nil pointer behind the error interface.
func errMessage(err error) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			msg = fmt.Sprintf("%T: error message unavailable: %v", err, r)
		}
	}()
	return err.Error()
}

// capture reads the ambient request. Whatever cannot be read stays empty.
func (in *Interceptor) capture(ctx context.Context, call model.Call) (cc model.CallContext) {
	call.Args = append([]any(nil), call.Args...)
	cc = model.CallContext{Call: call, Start: in.now()}
	defer func() {
		if r := recover(); r != nil {
			logger.Trace(ctx, nil, "request context unavailable", "call", call.ClassMethod(), "panic", r)
		}
	}()

	req := RequestFrom(ctx)
	if req == nil {
		return cc
	}
	cc.HTTPMethod = req.Method()
	cc.URL = req.URL()
	cc.URI = req.URI()
	cc.IP = req.ClientIP()
	return cc
}

// finish snapshots the outcome with the caller's trace id and submits it.
func (in *Interceptor) finish(ctx context.Context, policy *model.Policy, cc model.CallContext, outcome any) {
	defer func() {
		if r := recover(); r != nil {
			logger.Trace(ctx, nil, "record log failed", "call", cc.ClassMethod(), "panic", r)
		}
	}()

	traceID, _ := traceid.Current(ctx)
	snap := &Snapshot{
		Policy:  policy,
		Call:    cc,
		Finish:  in.now(),
		Result:  outcome,
		TraceID: traceID,
	}
	in.dispatcher.Submit(traceID, func(ctx context.Context) {
		in.recorder.Record(ctx, snap)
	})
}
