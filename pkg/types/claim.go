package types

// VerificationClaim 验证声明：调用方期望的公开承诺
//
// JournalDigest 为 nil 时只固定镜像，验证器会把日志交还给调用方自行检查。
type VerificationClaim struct {
	ImageID       ImageID
	JournalDigest *Digest
}

// NewClaim 同时固定镜像与日志摘要
func NewClaim(image ImageID, journalDigest Digest) VerificationClaim {
	jd := journalDigest
	return VerificationClaim{ImageID: image, JournalDigest: &jd}
}

// ClaimForImage 只固定镜像
func ClaimForImage(image ImageID) VerificationClaim {
	return VerificationClaim{ImageID: image}
}

// ProofClaim 证明声明：证明系统实际绑定的公开值
type ProofClaim struct {
	ImageID       ImageID
	JournalDigest Digest
}

// Digest 声明摘要 sha256("zkreceipt.claim.v1" || image || journalDigest)
//
// dev 后端直接以此作为封印。
func (c ProofClaim) Digest() Digest {
	return DigestOf([]byte(claimDomainTag), c.ImageID[:], c.JournalDigest[:])
}

const claimDomainTag = "zkreceipt.claim.v1"

// VerifyResult 验证结果
//
// 不一致时 Valid=false 并给出 Reason；Journal 在声明未固定日志摘要时交还调用方检查。
type VerifyResult struct {
	Valid   bool   `json:"valid"`
	Reason  string `json:"reason,omitempty"`
	Journal []byte `json:"-"`
}
