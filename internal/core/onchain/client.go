package onchain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	onchainconfig "github.com/weisyn/zkreceipt/internal/config/onchain"
	"github.com/weisyn/zkreceipt/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// Client 链上验证客户端，通过 eth_call 调用验证合约
type Client struct {
	logger  log.Logger
	caller  gethcore.ContractCaller
	eth     *ethclient.Client
	address common.Address
}

// Dial 连接以太坊节点
func Dial(ctx context.Context, options *onchainconfig.OnChainOptions, logger log.Logger) (*Client, error) {
	if options == nil || strings.TrimSpace(options.RPCURL) == "" {
		return nil, errors.New("未配置以太坊 RPC 地址")
	}
	eth, err := ethclient.DialContext(ctx, strings.TrimSpace(options.RPCURL))
	if err != nil {
		return nil, fmt.Errorf("连接以太坊节点失败: %w", err)
	}
	client := NewClient(eth, logger)
	client.eth = eth
	if options.VerifierAddress != "" {
		if !common.IsHexAddress(options.VerifierAddress) {
			eth.Close()
			return nil, fmt.Errorf("无效的验证合约地址: %s", options.VerifierAddress)
		}
		client.address = common.HexToAddress(options.VerifierAddress)
	}
	return client, nil
}

// NewClient 基于任意 ContractCaller 创建客户端（测试可注入模拟实现）
func NewClient(caller gethcore.ContractCaller, logger log.Logger) *Client {
	if logger == nil {
		logger = log.Nop()
	}
	return &Client{logger: logger, caller: caller}
}

// Address 配置的验证合约地址
func (c *Client) Address() common.Address { return c.address }

// Close 释放连接
func (c *Client) Close() {
	if c.eth != nil {
		c.eth.Close()
		c.eth = nil
	}
}

// CalldataFor 按证明系统选择链上调用数据
//
// groth16 收据直接调用 export-verifier 导出的合约（verifyProof）；
// dev 收据没有导出合约，只能交给按选择子分发的 verify 路由。
func CalldataFor(receipt *types.Receipt) ([]byte, error) {
	if receipt != nil && receipt.BackendID() == types.BackendGroth16BN254 {
		return EncodeVerifyProof(receipt)
	}
	return Encode(receipt)
}

// VerifyOnChain 在最新区块上 eth_call 验证合约
//
// 合约回滚视为验证不通过（false, nil）；连接或编码问题返回错误。
func (c *Client) VerifyOnChain(ctx context.Context, contract common.Address, receipt *types.Receipt) (bool, error) {
	if c == nil || c.caller == nil {
		return false, errors.New("未初始化的以太坊客户端")
	}
	data, err := CalldataFor(receipt)
	if err != nil {
		return false, err
	}

	_, err = c.caller.CallContract(ctx, gethcore.CallMsg{To: &contract, Data: data}, nil)
	if err == nil {
		return true, nil
	}
	var dataErr gethrpc.DataError
	if errors.As(err, &dataErr) || strings.Contains(err.Error(), "execution reverted") {
		c.logger.Debugf("链上验证回滚: contract=%s, error=%v", contract.Hex(), err)
		return false, nil
	}
	return false, fmt.Errorf("调用验证合约失败: %w", err)
}

// Verify 使用配置的合约地址验证
func (c *Client) Verify(ctx context.Context, receipt *types.Receipt) (bool, error) {
	if c.address == (common.Address{}) {
		return false, errors.New("未配置验证合约地址")
	}
	return c.VerifyOnChain(ctx, c.address, receipt)
}
