package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/weisyn/zkreceipt/pkg/interfaces/config"
	"github.com/weisyn/zkreceipt/pkg/types"
	"gopkg.in/yaml.v3"
)

// LoadAppConfig 从文件读取用户配置，按扩展名选择 YAML（.yaml/.yml）或 JSON
func LoadAppConfig(path string) (*types.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return ParseAppConfig(data, filepath.Ext(path))
}

// ParseAppConfig 解析配置内容；ext 为 ".yaml"/".yml" 时按 YAML 解析，其余按 JSON
func ParseAppConfig(data []byte, ext string) (*types.AppConfig, error) {
	cfg := &types.AppConfig{}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析YAML配置失败: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("解析JSON配置失败: %w", err)
		}
	}
	return cfg, nil
}

// appOptions 包装用户配置，实现 config.AppOptions
type appOptions struct {
	cfg *types.AppConfig
}

// NewAppOptions 创建应用配置选项
func NewAppOptions(cfg *types.AppConfig) config.AppOptions {
	return appOptions{cfg: cfg}
}

func (o appOptions) GetAppConfig() *types.AppConfig { return o.cfg }
