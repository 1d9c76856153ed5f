package logic

import "encoding/hex"

// JournalView 日志的可读表示（命令行输出与 HTTP 响应使用）
type JournalView struct {
	Mode string `json:"mode"`

	Success      *bool  `json:"success,omitempty"`
	Nonce        string `json:"nonce,omitempty"`
	InputDigest  string `json:"input_digest,omitempty"`
	OutputDigest string `json:"output_digest,omitempty"`

	Status         string `json:"status,omitempty"`
	SchemaDigest   string `json:"schema_digest,omitempty"`
	DocumentDigest string `json:"document_digest,omitempty"`
}

// View 返回日志的可读表示
func (j *Journal) View() JournalView {
	if j.Mode == ModeValidate {
		return JournalView{
			Mode:           j.Mode.String(),
			Status:         j.Status.String(),
			SchemaDigest:   j.SchemaDigest.Hex(),
			DocumentDigest: j.DocumentDigest.Hex(),
		}
	}
	success := j.Success
	return JournalView{
		Mode:         j.Mode.String(),
		Success:      &success,
		Nonce:        hex.EncodeToString(j.Nonce[:]),
		InputDigest:  j.InputDigest.Hex(),
		OutputDigest: j.OutputDigest.Hex(),
	}
}
