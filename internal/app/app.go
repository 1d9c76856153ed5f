// Package app 负责装配并运行证明服务进程
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/weisyn/zkreceipt/internal/config"
)

// ConfigPathEnv 配置文件路径环境变量
const ConfigPathEnv = "ZKRECEIPT_CONFIG"

const (
	startTimeout = 2 * time.Minute
	// 等待数据库同步与进行中的请求结束
	stopTimeout = time.Minute
)

// App 对外的应用接口
type App interface {
	// Stop 停止应用
	Stop() error

	// Wait 阻塞直到收到退出信号，然后停止应用
	Wait()
}

// internalApp 应用的内部实现
type internalApp struct {
	bootstrap *Bootstrap
}

// Stop 停止应用
func (a *internalApp) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return a.bootstrap.StopApp(ctx)
}

// Wait 等待退出信号
func (a *internalApp) Wait() {
	sig := WaitForSignal()
	fmt.Fprintf(os.Stderr, "收到信号 %v，正在退出...\n", sig)
	if err := a.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "停止应用时出错: %v\n", err)
	}
}

// Start 加载配置、装配模块并启动应用
//
// 配置来源优先级：WithAppConfig > WithConfigFile > 环境变量 ZKRECEIPT_CONFIG > 内置默认值
func Start(appOptions ...Option) (App, error) {
	opts := newOptions(appOptions...)
	if err := resolveConfig(opts); err != nil {
		return nil, err
	}

	bootstrap := NewBootstrap(opts)
	if err := bootstrap.CreateFxApp(); err != nil {
		return nil, fmt.Errorf("创建应用失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()
	if err := bootstrap.StartApp(ctx); err != nil {
		return nil, err
	}
	return &internalApp{bootstrap: bootstrap}, nil
}

// Run 启动应用并阻塞到 ctx 结束或收到退出信号
func Run(ctx context.Context, appOptions ...Option) error {
	a, err := Start(appOptions...)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	return a.Stop()
}

// resolveConfig 按优先级读取配置文件；未指定路径时使用默认配置
func resolveConfig(opts *options) error {
	if opts.appConfig != nil {
		return nil
	}
	path := opts.configFilePath
	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path == "" {
		return nil
	}
	cfg, err := config.LoadAppConfig(path)
	if err != nil {
		return err
	}
	opts.appConfig = cfg
	return nil
}

// WaitForSignal 等待退出信号
func WaitForSignal() os.Signal {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	return <-signals
}
