package receipts

import (
	"context"

	"go.uber.org/fx"

	badgerconfig "github.com/weisyn/zkreceipt/internal/config/storage/badger"
	logimpl "github.com/weisyn/zkreceipt/internal/core/infrastructure/log"
	"github.com/weisyn/zkreceipt/internal/core/infrastructure/storage/badger"
	"github.com/weisyn/zkreceipt/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkreceipt/pkg/interfaces/zkvm"
)

// ModuleInput 收据模块依赖
type ModuleInput struct {
	fx.In

	Lifecycle fx.Lifecycle
	Options   *badgerconfig.BadgerOptions `optional:"false"`
	Logger    log.Logger                  `optional:"true"`
}

// ModuleOutput 收据模块输出
type ModuleOutput struct {
	fx.Out

	DB    *badger.Store
	Store *Store
	Sink  zkvm.ReceiptSink
}

// Module 返回收据存储模块
func Module() fx.Option {
	return fx.Module("receipts",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 打开 BadgerDB 并创建收据存储
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	db, err := badger.New(input.Options, logimpl.NewModuleLogger(input.Logger, "storage"))
	if err != nil {
		return ModuleOutput{}, err
	}
	store, err := New(db, input.Options, logimpl.NewModuleLogger(input.Logger, "receipts"))
	if err != nil {
		_ = db.Close()
		return ModuleOutput{}, err
	}
	input.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = store.Close()
			return db.Close()
		},
	})
	return ModuleOutput{DB: db, Store: store, Sink: store}, nil
}
