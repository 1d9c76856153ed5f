// Package logic 实现证明流水线的核心计算
//
// 🎯 **职责**：
// 对私有见证数据执行确定性计算（AES-GCM 加解密或 JSON Schema 校验），
// 生成固定布局的公开日志以及私有输出。
//
// 本包是纯函数集合：无时钟、无随机数、无 I/O、不记录日志，
// 同一份见证数据在宿主与访客（wasip1）中产生逐字节相同的日志。
package logic

import (
	"fmt"

	"github.com/weisyn/zkreceipt/pkg/types"
)

// Outcome 计算结果
type Outcome struct {
	Journal *Journal
	// Output 私有输出：加密为 密文||标签，解密为明文；校验或解密失败时为 nil
	Output []byte
}

// Execute 对见证数据执行计算
//
// 计算被拒绝（解密失败、文档不合规）体现在日志中，不返回错误；
// 输入本身不合法（密钥/nonce 长度、JSON 无法解析）返回 ErrMalformedWitness。
func Execute(w *Witness) (*Outcome, error) {
	if w == nil {
		return nil, types.WrapMalformedWitness("execute", ErrNilWitness)
	}
	switch {
	case w.Mode.IsEncryption():
		return runEncryption(w)
	case w.Mode == ModeValidate:
		return runValidation(w)
	default:
		return nil, types.WrapMalformedWitness("execute", fmt.Errorf("%w: %d", ErrUnknownMode, w.Mode))
	}
}

// RejectedJournal 输入被拒绝时提交的日志
//
// 加密模式为 success=false（nonce 截取前 12 字节），校验模式为 status=invalid；
// 摘要仍按原样计算，拒绝原因不出现在日志中。
func RejectedJournal(w *Witness) *Journal {
	if w.Mode == ModeValidate {
		return &Journal{
			Mode:           ModeValidate,
			Status:         StatusInvalid,
			SchemaDigest:   types.DigestOf(w.Schema),
			DocumentDigest: types.DigestOf(w.Document),
		}
	}
	j := &Journal{Mode: w.Mode, InputDigest: types.DigestOf(w.AAD, w.Payload)}
	copy(j.Nonce[:], w.Nonce)
	return j
}
