package copypaste

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Benny93/graphclip/internal/graph"
)

// Hooks receives per-element lifecycle callbacks.
//
// BeforeCopy runs on the live element before it is captured, so it may
// stash transient data into the element that the capture should carry.
// AfterCopy runs on the same live element when the Snapshot is closed.
// AfterPaste runs on every element created by a reconstruction.
type Hooks interface {
	BeforeCopy(e graph.Element) error
	AfterCopy(e graph.Element) error
	AfterPaste(e graph.Element) error
}

// NopHooks is a Hooks that does nothing.
type NopHooks struct{}

func (NopHooks) BeforeCopy(graph.Element) error { return nil }
func (NopHooks) AfterCopy(graph.Element) error  { return nil }
func (NopHooks) AfterPaste(graph.Element) error { return nil }

// HookFuncs adapts plain functions to Hooks. Nil functions are skipped.
type HookFuncs struct {
	BeforeCopyFunc func(graph.Element) error
	AfterCopyFunc  func(graph.Element) error
	AfterPasteFunc func(graph.Element) error
}

func (h HookFuncs) BeforeCopy(e graph.Element) error { return call(h.BeforeCopyFunc, e) }
func (h HookFuncs) AfterCopy(e graph.Element) error  { return call(h.AfterCopyFunc, e) }
func (h HookFuncs) AfterPaste(e graph.Element) error { return call(h.AfterPasteFunc, e) }

func call(fn func(graph.Element) error, e graph.Element) error {
	if fn == nil {
		return nil
	}
	return fn(e)
}

// invokeHook runs one hook and logs its failure. Panics are recovered.
func invokeHook(logger *zap.Logger, name string, e graph.Element, fn func(graph.Element) error) {
	defer func() {
		if r := recover(); r != nil {
			logHookFailure(logger, name, e, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := fn(e); err != nil {
		logHookFailure(logger, name, e, err)
	}
}

func logHookFailure(logger *zap.Logger, name string, e graph.Element, err error) {
	logger.Warn("element hook failed",
		zap.String("hook", name),
		zap.String("kind", string(e.Kind())),
		zap.Stringer("element", e.ElementID()),
		zap.Error(err),
	)
}

// Option configures Build and Reconstruct.
type Option func(*options)

type options struct {
	hooks          Hooks
	logger         *zap.Logger
	destGroup      graph.ID
	placematPrefix bool
}

func newOptions(opts []Option) *options {
	o := &options{hooks: NopHooks{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithHooks sets the element lifecycle hooks.
func WithHooks(h Hooks) Option {
	return func(o *options) {
		if h != nil {
			o.hooks = h
		}
	}
}

// WithLogger sets the logger used to report hook failures.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDestinationGroup pastes groups and declarations into the given group
// instead of the section they were copied from.
func WithDestinationGroup(id graph.ID) Option {
	return func(o *options) { o.destGroup = id }
}

// WithPlacematPrefix titles pasted placemats "Copy of <title>".
func WithPlacematPrefix() Option {
	return func(o *options) { o.placematPrefix = true }
}
