// Package guest 实现访客程序
//
// 🎯 **状态机**：Start → ReadWitness → Compute → CommitJournal → Halt
//
// 访客从输入通道（wasip1 下为 stdin）读取整个见证帧，交给核心逻辑计算，
// 然后向输出通道（stdout）写入唯一一个提交帧并以退出码 0 结束。
// 访客不重试、不读时钟、不取随机数、不访问环境变量，也不记录日志。
package guest

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/weisyn/zkreceipt/internal/core/logic"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// 退出码
const (
	ExitOK             = 0
	ExitInternal       = 1 // 提交帧写出失败
	ExitMalformedInput = 2 // 见证帧无法解析，无提交
)

// 提交帧格式
//
//	magic "ZKJ1" | u32 journal 长度 | journal | u32 output 长度 | output
const commitMagic = "ZKJ1"

// ErrCommitFrame 提交帧格式错误
var ErrCommitFrame = errors.New("malformed commit frame")

// Commit 访客提交的内容
type Commit struct {
	Journal []byte // 公开日志
	Output  []byte // 私有输出，只交给宿主调用方
}

// Run 执行访客状态机，返回退出码
func Run(stdin io.Reader, stdout io.Writer) int {
	frame, err := io.ReadAll(io.LimitReader(stdin, logic.DefaultMaxWitnessBytes+1))
	if err != nil || len(frame) > logic.DefaultMaxWitnessBytes {
		return ExitMalformedInput
	}
	w, err := logic.DecodeWitness(frame)
	logic.Wipe(frame)
	if err != nil {
		return ExitMalformedInput
	}
	defer w.Zero()

	var commit Commit
	outcome, err := logic.Execute(w)
	if err != nil {
		// 非帧错误（如密钥长度不合法）作为被拒绝的计算提交，错误类别不公开
		commit.Journal = logic.RejectedJournal(w).Encode()
	} else {
		commit.Journal = outcome.Journal.Encode()
		commit.Output = outcome.Output
	}

	if _, err := stdout.Write(EncodeCommit(commit)); err != nil {
		return ExitInternal
	}
	return ExitOK
}

// EncodeCommit 编码提交帧
func EncodeCommit(c Commit) []byte {
	out := make([]byte, 0, len(commitMagic)+8+len(c.Journal)+len(c.Output))
	out = append(out, commitMagic...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(c.Journal)))
	out = append(out, c.Journal...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(c.Output)))
	out = append(out, c.Output...)
	return out
}

// DecodeCommit 解析访客输出通道中的提交帧
//
// 缺失、截断、多次提交或尾随字节均视为执行错误。
func DecodeCommit(data []byte) (*Commit, error) {
	const op = "decode_commit"
	if len(data) < len(commitMagic) || string(data[:len(commitMagic)]) != commitMagic {
		return nil, types.WrapExecutionError(op, fmt.Errorf("%w: missing magic", ErrCommitFrame))
	}
	rest := data[len(commitMagic):]
	var fields [2][]byte
	for i := range fields {
		if len(rest) < 4 {
			return nil, types.WrapExecutionError(op, fmt.Errorf("%w: field %d length", ErrCommitFrame, i))
		}
		n := binary.BigEndian.Uint32(rest[:4])
		rest = rest[4:]
		if uint64(n) > uint64(len(rest)) {
			return nil, types.WrapExecutionError(op, fmt.Errorf("%w: field %d truncated", ErrCommitFrame, i))
		}
		fields[i] = append([]byte{}, rest[:n]...)
		rest = rest[n:]
	}
	if len(rest) != 0 {
		return nil, types.WrapExecutionError(op, fmt.Errorf("%w: %d trailing bytes", ErrCommitFrame, len(rest)))
	}
	c := &Commit{Journal: fields[0]}
	if len(fields[1]) > 0 {
		c.Output = fields[1]
	}
	return c, nil
}
