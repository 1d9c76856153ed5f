package zkproof

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/weisyn/zkreceipt/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// TrustedSetup 可信设置（编译电路、ProvingKey、VerifyingKey）
type TrustedSetup struct {
	CS           constraint.ConstraintSystem
	ProvingKey   groth16.ProvingKey
	VerifyingKey groth16.VerifyingKey
	VKHash       types.Digest
}

// verifyingKeyEntry 只含验证密钥（验证进程无需加载 ProvingKey）
type verifyingKeyEntry struct {
	vk     groth16.VerifyingKey
	vkHash types.Digest
}

// SetupStore 收据声明电路的可信设置管理
//
// 🎯 **专门职责**：编译电路、生成或加载可信设置、计算验证密钥哈希
//
// 📋 **持久化**：dir 非空时 ProvingKey/VerifyingKey 写入
// {dir}/receipt_claim.v1.pk 与 .vk，后续进程直接加载，保证证明与验证使用同一组密钥。
// dir 为空时只在进程内生成（测试）。
type SetupStore struct {
	logger log.Logger
	dir    string

	mu    sync.Mutex
	setup *TrustedSetup
	vk    *verifyingKeyEntry
}

// NewSetupStore 创建可信设置管理
func NewSetupStore(dir string, logger log.Logger) *SetupStore {
	if logger == nil {
		logger = log.Nop()
	}
	return &SetupStore{logger: logger, dir: dir}
}

// CompileCircuit 编译收据声明电路
func CompileCircuit() (constraint.ConstraintSystem, error) {
	quietGnark()
	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &ReceiptClaimCircuit{})
	if err != nil {
		return nil, WrapCircuitCompilationFailedError(ReceiptClaimCircuitID, err)
	}
	return cs, nil
}

// Get 返回完整可信设置（首次调用时加载或生成）
func (s *SetupStore) Get() (*TrustedSetup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setup != nil {
		return s.setup, nil
	}

	start := time.Now()
	cs, err := CompileCircuit()
	if err != nil {
		return nil, err
	}

	pk, vk, loaded, err := s.loadKeys()
	if err != nil {
		return nil, err
	}
	if !loaded {
		pk, vk, err = groth16.Setup(cs)
		if err != nil {
			return nil, WrapSetupFailedError(ReceiptClaimCircuitID, err)
		}
		if err := s.persist(pk, vk); err != nil {
			return nil, err
		}
	}

	vkHash, err := HashVerifyingKey(vk)
	if err != nil {
		return nil, err
	}
	s.setup = &TrustedSetup{CS: cs, ProvingKey: pk, VerifyingKey: vk, VKHash: vkHash}
	s.vk = &verifyingKeyEntry{vk: vk, vkHash: vkHash}
	s.logger.Infof("可信设置就绪: circuit=%s.v%d, constraints=%d, loaded=%v, vk_hash=%s, 耗时=%v",
		ReceiptClaimCircuitID, ReceiptClaimCircuitVersion, cs.GetNbConstraints(), loaded, vkHash, time.Since(start))
	return s.setup, nil
}

// VerifyingKey 返回验证密钥及其哈希
//
// 只读取进程内缓存或持久化目录中的 .vk，从不生成或写入可信设置；
// 两处都没有时返回 ErrVerifierNotInitialized。生成设置只发生在证明路径（Get）。
func (s *SetupStore) VerifyingKey() (groth16.VerifyingKey, types.Digest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vk != nil {
		return s.vk.vk, s.vk.vkHash, nil
	}
	if s.dir == "" {
		return nil, types.Digest{}, ErrVerifierNotInitialized
	}

	vk, err := readVerifyingKey(s.vkPath())
	if os.IsNotExist(err) {
		return nil, types.Digest{}, fmt.Errorf("%w: %s 不存在", ErrVerifierNotInitialized, s.vkPath())
	}
	if err != nil {
		return nil, types.Digest{}, fmt.Errorf("%w: 读取 %s: %v", ErrVerifierNotInitialized, s.vkPath(), err)
	}
	vkHash, err := HashVerifyingKey(vk)
	if err != nil {
		return nil, types.Digest{}, err
	}
	s.vk = &verifyingKeyEntry{vk: vk, vkHash: vkHash}
	s.logger.Debugf("验证密钥已加载: %s", s.vkPath())
	return vk, vkHash, nil
}

// HashVerifyingKey 验证密钥哈希 sha256(vk 序列化)
func HashVerifyingKey(vk groth16.VerifyingKey) (types.Digest, error) {
	h := sha256.New()
	if _, err := vk.WriteTo(h); err != nil {
		return types.Digest{}, fmt.Errorf("序列化验证密钥失败: %w", err)
	}
	var out types.Digest
	copy(out[:], h.Sum(nil))
	return out, nil
}

func (s *SetupStore) keyBase() string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.v%d", ReceiptClaimCircuitID, ReceiptClaimCircuitVersion))
}

func (s *SetupStore) pkPath() string { return s.keyBase() + ".pk" }
func (s *SetupStore) vkPath() string { return s.keyBase() + ".vk" }

// loadKeys 从目录加载密钥，两个文件都不存在时返回 loaded=false
func (s *SetupStore) loadKeys() (groth16.ProvingKey, groth16.VerifyingKey, bool, error) {
	if s.dir == "" {
		return nil, nil, false, nil
	}
	pkFile, err := os.Open(s.pkPath())
	if os.IsNotExist(err) {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, WrapSetupFailedError(ReceiptClaimCircuitID, err)
	}
	defer pkFile.Close()

	pk := groth16.NewProvingKey(ecc.BN254)
	if _, err := pk.ReadFrom(pkFile); err != nil {
		return nil, nil, false, WrapSetupFailedError(ReceiptClaimCircuitID, fmt.Errorf("读取 %s: %w", s.pkPath(), err))
	}
	vk, err := readVerifyingKey(s.vkPath())
	if err != nil {
		return nil, nil, false, WrapSetupFailedError(ReceiptClaimCircuitID, fmt.Errorf("读取 %s: %w", s.vkPath(), err))
	}
	return pk, vk, true, nil
}

func readVerifyingKey(path string) (groth16.VerifyingKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return vk, nil
}

// persist 原子写入密钥文件（先写临时文件再重命名）
func (s *SetupStore) persist(pk groth16.ProvingKey, vk groth16.VerifyingKey) error {
	if s.dir == "" {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return WrapSetupFailedError(ReceiptClaimCircuitID, err)
	}
	if err := writeAtomic(s.pkPath(), pk); err != nil {
		return WrapSetupFailedError(ReceiptClaimCircuitID, err)
	}
	if err := writeAtomic(s.vkPath(), vk); err != nil {
		return WrapSetupFailedError(ReceiptClaimCircuitID, err)
	}
	s.logger.Infof("可信设置已持久化: %s", s.dir)
	return nil
}

func writeAtomic(path string, w io.WriterTo) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := w.WriteTo(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
