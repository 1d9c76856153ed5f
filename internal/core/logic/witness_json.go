package logic

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/weisyn/zkreceipt/pkg/types"
)

// ErrModeConflict 见证文件中的模式与调用方指定的模式不一致
var ErrModeConflict = errors.New("witness mode conflicts with requested mode")

// WitnessJSON 见证数据的 JSON 表示（命令行文件与 HTTP 请求使用）
//
// 加密模式字段为十六进制字符串（可带 0x 前缀）；校验模式的 document/schema 为原始 JSON 值。
type WitnessJSON struct {
	Mode    string `json:"mode,omitempty"`
	Key     string `json:"key,omitempty"`
	Nonce   string `json:"nonce,omitempty"`
	AAD     string `json:"aad,omitempty"`
	Payload string `json:"payload,omitempty"`

	Document json.RawMessage `json:"document,omitempty"`
	Schema   json.RawMessage `json:"schema,omitempty"`
}

// ParseWitnessJSON 解析 JSON 见证
//
// mode 非零时作为默认模式；文件中也给出模式且两者不同时返回 ErrMalformedWitness。
func ParseWitnessJSON(data []byte, mode Mode) (*Witness, error) {
	var wj WitnessJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&wj); err != nil {
		return nil, types.WrapMalformedWitness("parse_witness_json", err)
	}
	return wj.Witness(mode)
}

// Witness 转换为见证
func (wj *WitnessJSON) Witness(mode Mode) (*Witness, error) {
	const op = "witness_json"
	if strings.TrimSpace(wj.Mode) != "" {
		parsed, err := ParseMode(wj.Mode)
		if err != nil {
			return nil, types.WrapMalformedWitness(op, err)
		}
		if mode != 0 && mode != parsed {
			return nil, types.WrapMalformedWitness(op, fmt.Errorf("%w: %s vs %s", ErrModeConflict, parsed, mode))
		}
		mode = parsed
	}
	if !mode.Valid() {
		return nil, types.WrapMalformedWitness(op, fmt.Errorf("%w: missing mode", ErrUnknownMode))
	}

	w := &Witness{Mode: mode}
	if mode == ModeValidate {
		if len(wj.Document) == 0 || len(wj.Schema) == 0 {
			return nil, types.WrapMalformedWitness(op, errors.New("validate witness needs document and schema"))
		}
		w.Document = append([]byte(nil), wj.Document...)
		w.Schema = append([]byte(nil), wj.Schema...)
		return w, nil
	}

	fields := []struct {
		name string
		src  string
		dst  *[]byte
	}{
		{"key", wj.Key, &w.Key},
		{"nonce", wj.Nonce, &w.Nonce},
		{"aad", wj.AAD, &w.AAD},
		{"payload", wj.Payload, &w.Payload},
	}
	for _, f := range fields {
		b, err := decodeHexField(f.src)
		if err != nil {
			w.Zero()
			return nil, types.WrapMalformedWitness(op, fmt.Errorf("%s: %w", f.name, err))
		}
		*f.dst = b
	}
	return w, nil
}

func decodeHexField(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if s == "" {
		return []byte{}, nil
	}
	return hex.DecodeString(s)
}
