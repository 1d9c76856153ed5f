package logic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/weisyn/zkreceipt/pkg/types"
	"github.com/xeipuuv/gojsonschema"
)

// 不支持的关键字：draft 2019-09 及之后引入、gojsonschema（draft 7）会静默忽略的构造
var unsupportedKeywords = map[string]struct{}{
	"$dynamicRef":           {},
	"$dynamicAnchor":        {},
	"$recursiveRef":         {},
	"$recursiveAnchor":      {},
	"$anchor":               {},
	"unevaluatedProperties": {},
	"unevaluatedItems":      {},
	"dependentSchemas":      {},
	"dependentRequired":     {},
	"prefixItems":           {},
}

// 值为 “名称 -> 子模式” 映射的关键字
var schemaMapKeywords = []string{"properties", "patternProperties", "definitions", "$defs", "dependencies"}

// 值为单个子模式的关键字
var schemaKeywords = []string{"not", "if", "then", "else", "additionalProperties", "additionalItems", "contains", "propertyNames", "items"}

// 值为子模式数组的关键字
var schemaArrayKeywords = []string{"allOf", "anyOf", "oneOf", "items"}

// findUnsupported 遍历模式，返回第一个不支持构造的描述；全部支持时返回空串
//
// 只沿模式关键字下降，properties 的属性名以及 enum/const/default 等数据值不参与判断。
func findUnsupported(node interface{}, path string) string {
	obj, ok := node.(map[string]interface{})
	if !ok {
		return ""
	}
	for key := range obj {
		if _, bad := unsupportedKeywords[key]; bad {
			return path + "/" + key
		}
	}
	if schemaURI, ok := obj["$schema"].(string); ok && !isDraft7OrEarlier(schemaURI) {
		return path + "/$schema"
	}
	if ref, ok := obj["$ref"].(string); ok && !strings.HasPrefix(ref, "#") {
		return path + "/$ref"
	}
	for _, kw := range schemaMapKeywords {
		children, ok := obj[kw].(map[string]interface{})
		if !ok {
			continue
		}
		for name, child := range children {
			if found := findUnsupported(child, path+"/"+kw+"/"+name); found != "" {
				return found
			}
		}
	}
	for _, kw := range schemaKeywords {
		if found := findUnsupported(obj[kw], path+"/"+kw); found != "" {
			return found
		}
	}
	for _, kw := range schemaArrayKeywords {
		items, ok := obj[kw].([]interface{})
		if !ok {
			continue
		}
		for i, child := range items {
			if found := findUnsupported(child, fmt.Sprintf("%s/%s/%d", path, kw, i)); found != "" {
				return found
			}
		}
	}
	return ""
}

func isDraft7OrEarlier(uri string) bool {
	for _, draft := range []string{"draft-04", "draft-06", "draft-07"} {
		if strings.Contains(uri, draft) {
			return true
		}
	}
	return false
}

// runValidation 执行 JSON Schema 校验并生成日志
//
// 文档或模式不是合法 JSON、模式无法编译时返回 ErrMalformedWitness；
// 模式使用不支持的构造时结果为 StatusUnsupported。
func runValidation(w *Witness) (*Outcome, error) {
	const op = "validate"
	j := &Journal{
		Mode:           ModeValidate,
		SchemaDigest:   types.DigestOf(w.Schema),
		DocumentDigest: types.DigestOf(w.Document),
	}

	if !json.Valid(w.Document) {
		return nil, types.WrapMalformedWitness(op, fmt.Errorf("%w: document", ErrInvalidJSON))
	}
	var schemaValue interface{}
	if err := json.Unmarshal(w.Schema, &schemaValue); err != nil {
		return nil, types.WrapMalformedWitness(op, fmt.Errorf("%w: schema: %v", ErrInvalidJSON, err))
	}
	switch schemaValue.(type) {
	case map[string]interface{}, bool:
	default:
		return nil, types.WrapMalformedWitness(op, fmt.Errorf("%w: schema must be an object or boolean", ErrInvalidSchema))
	}

	if findUnsupported(schemaValue, "#") != "" {
		j.Status = StatusUnsupported
		return &Outcome{Journal: j}, nil
	}

	loader := gojsonschema.NewSchemaLoader()
	loader.Draft = gojsonschema.Draft7
	loader.AutoDetect = false
	schema, err := loader.Compile(gojsonschema.NewBytesLoader(w.Schema))
	if err != nil {
		return nil, types.WrapMalformedWitness(op, fmt.Errorf("%w: %v", ErrInvalidSchema, err))
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(w.Document))
	if err != nil {
		return nil, types.WrapMalformedWitness(op, fmt.Errorf("%w: document: %v", ErrInvalidJSON, err))
	}
	if result.Valid() {
		j.Status = StatusValid
	} else {
		j.Status = StatusInvalid
	}
	return &Outcome{Journal: j}, nil
}

// UnsupportedConstruct 返回模式中第一个不支持构造的 JSON 指针路径，供调用方在证明前预检
func UnsupportedConstruct(schema []byte) (string, error) {
	var v interface{}
	if err := json.Unmarshal(schema, &v); err != nil {
		return "", fmt.Errorf("%w: schema: %v", ErrInvalidJSON, err)
	}
	return findUnsupported(v, "#"), nil
}
