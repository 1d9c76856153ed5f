package app

import (
	"github.com/weisyn/zkreceipt/pkg/interfaces/config"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// Option 应用程序选项函数类型
type Option func(*options)

// options 应用程序选项
// 实现config.AppOptions接口
type options struct {
	// 配置文件路径（.json / .yaml / .yml）
	configFilePath string

	// 用户配置（优先级高于configFilePath）
	appConfig *types.AppConfig

	// API支持开关 (默认启用)
	enableAPI bool

	// 启动后从容器取出的组件指针，见 fx.Populate
	populate []interface{}
}

// 编译时校验options是否实现了config.AppOptions接口
var _ config.AppOptions = (*options)(nil)

// WithConfigFile 设置配置文件路径
func WithConfigFile(configPath string) Option {
	return func(o *options) {
		o.configFilePath = configPath
	}
}

// WithAppConfig 直接使用内存中的配置（优先级高于WithConfigFile）
func WithAppConfig(appConfig *types.AppConfig) Option {
	return func(o *options) {
		o.appConfig = appConfig
	}
}

// WithoutAPI 禁用API模块
func WithoutAPI() Option {
	return func(o *options) {
		o.enableAPI = false
	}
}

// WithPopulate 启动后把容器内的组件写入 targets（指针）
func WithPopulate(targets ...interface{}) Option {
	return func(o *options) {
		o.populate = append(o.populate, targets...)
	}
}

// newOptions 创建选项
func newOptions(opts ...Option) *options {
	options := &options{enableAPI: true}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// GetAppConfig 返回应用程序配置
func (o *options) GetAppConfig() *types.AppConfig {
	return o.appConfig
}
