package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/weisyn/zkreceipt/internal/core/guest"
	"github.com/weisyn/zkreceipt/pkg/interfaces/zkvm"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// GuestFunc 进程内访客入口，签名与 wasip1 访客的 main 一致
type GuestFunc func(stdin io.Reader, stdout io.Writer) int

// DefaultGuestName 内置访客名
const DefaultGuestName = "zkguest"

var (
	nativeMu     sync.RWMutex
	nativeGuests = map[string]GuestFunc{
		DefaultGuestName: guest.Run,
	}
)

// RegisterNative 注册进程内访客
func RegisterNative(name string, fn GuestFunc) {
	nativeMu.Lock()
	defer nativeMu.Unlock()
	nativeGuests[name] = fn
}

func lookupNative(name string) (GuestFunc, bool) {
	nativeMu.RLock()
	defer nativeMu.RUnlock()
	fn, ok := nativeGuests[name]
	return fn, ok
}

// DefaultNativeImage 内置访客的镜像
func DefaultNativeImage() types.GuestImage {
	return types.NativeImage(DefaultGuestName)
}

// nativeSandbox 进程内沙箱
//
// 访客在独立 goroutine 中运行，panic 视为陷阱；上下文取消时放弃等待（粗粒度取消）。
type nativeSandbox struct {
	fn     GuestFunc
	input  []byte
	stdout *cappedBuffer
	ran    bool
	commit *guest.Commit
}

// NewNativeSandbox 创建进程内沙箱实例
func NewNativeSandbox() zkvm.Sandbox {
	return &nativeSandbox{}
}

func (s *nativeSandbox) Load(_ context.Context, image types.GuestImage) error {
	if image.Kind != types.ImageKindNative {
		return fmt.Errorf("%w: %s", ErrUnknownImageKind, image.Kind)
	}
	if types.NativeImage(image.Name).ID() != image.ID() {
		return fmt.Errorf("%w: descriptor mismatch for %q", ErrUnknownGuest, image.Name)
	}
	fn, ok := lookupNative(image.Name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownGuest, image.Name)
	}
	s.fn = fn
	return nil
}

func (s *nativeSandbox) WriteInput(frame []byte) error {
	if s.ran {
		return ErrAlreadyRun
	}
	s.input = frame
	return nil
}

type nativeResult struct {
	code  int
	panic interface{}
}

func (s *nativeSandbox) Run(ctx context.Context) (zkvm.ExitStatus, error) {
	if s.fn == nil {
		return zkvm.ExitStatus{}, ErrNotLoaded
	}
	if s.ran {
		return zkvm.ExitStatus{}, ErrAlreadyRun
	}
	s.ran = true
	if err := ctx.Err(); err != nil {
		return zkvm.ExitStatus{}, err
	}

	stdout := newCappedBuffer(maxGuestOutputBytes(len(s.input)))
	done := make(chan nativeResult, 1)
	go func(fn GuestFunc, input []byte) {
		defer func() {
			if r := recover(); r != nil {
				done <- nativeResult{panic: r}
			}
		}()
		done <- nativeResult{code: fn(bytes.NewReader(input), stdout)}
	}(s.fn, s.input)

	select {
	case <-ctx.Done():
		return zkvm.ExitStatus{}, ctx.Err()
	case res := <-done:
		s.stdout = stdout
		if res.panic != nil {
			return zkvm.ExitStatus{Trapped: true, Trap: fmt.Sprintf("guest panic: %v", res.panic)}, nil
		}
		return zkvm.ExitStatus{Code: uint32(res.code)}, nil
	}
}

func (s *nativeSandbox) ReadJournal() ([]byte, error) {
	commit, err := s.readCommit()
	if err != nil {
		return nil, err
	}
	return append([]byte{}, commit.Journal...), nil
}

func (s *nativeSandbox) ReadOutput() []byte {
	commit, err := s.readCommit()
	if err != nil || commit.Output == nil {
		return nil
	}
	return append([]byte{}, commit.Output...)
}

func (s *nativeSandbox) readCommit() (*guest.Commit, error) {
	if !s.ran || s.stdout == nil {
		return nil, types.WrapExecutionError("read_journal", ErrNotRun)
	}
	if s.commit == nil {
		if s.stdout.overflow {
			return nil, types.WrapExecutionError("read_journal", ErrOutputTooLarge)
		}
		commit, err := guest.DecodeCommit(s.stdout.Bytes())
		if err != nil {
			return nil, err
		}
		s.commit = commit
	}
	return s.commit, nil
}

func (s *nativeSandbox) Close(context.Context) error {
	if s.stdout != nil {
		s.stdout.Wipe()
	}
	s.commit = nil
	s.input = nil
	return nil
}
