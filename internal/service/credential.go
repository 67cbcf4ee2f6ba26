package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"shift-clock/backend/internal/model"
	"shift-clock/backend/internal/repository"
)

// ── PIN 校验业务错误 ──

var (
	ErrPINRequired = errors.New("请输入 PIN")
	ErrInvalidPIN  = errors.New("PIN 错误")
)

// PIN 生成时与现有员工冲突的最大重试次数
const maxPINGenerateAttempts = 20

// CredentialVerifier PIN 哈希、校验与生成
//
// PIN 不带用户名，校验时需要与所有在职员工的哈希逐一比对。
type CredentialVerifier interface {
	// Verify 在所有在职员工中查找与 pin 匹配者
	Verify(ctx context.Context, pin string) (*model.Employee, error)
	// VerifyRole 只在指定角色的在职员工中查找
	VerifyRole(ctx context.Context, pin, role string) (*model.Employee, error)
	// Hash 生成 PIN 的 bcrypt 哈希
	Hash(pin string) (string, error)
	// GenerateUnique 生成一个不与在职员工冲突的随机 PIN，返回明文与哈希
	GenerateUnique(ctx context.Context) (string, string, error)
}

type credentialVerifier struct {
	repo      *repository.Repository
	pinLength int
	cost      int
	logger    *zap.Logger
}

// NewCredentialVerifier 创建 CredentialVerifier 实例，cost 为 0 时使用 bcrypt.DefaultCost
func NewCredentialVerifier(repo *repository.Repository, pinLength, cost int, logger *zap.Logger) CredentialVerifier {
	if pinLength <= 0 {
		pinLength = 4
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &credentialVerifier{repo: repo, pinLength: pinLength, cost: cost, logger: logger}
}

func (v *credentialVerifier) Verify(ctx context.Context, pin string) (*model.Employee, error) {
	return v.VerifyRole(ctx, pin, "")
}

func (v *credentialVerifier) VerifyRole(ctx context.Context, pin, role string) (*model.Employee, error) {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return nil, ErrPINRequired
	}

	employees, err := v.repo.Employee.ListActiveByRole(ctx, role)
	if err != nil {
		v.logger.Error("查询在职员工失败", zap.String("role", role), zap.Error(err))
		return nil, err
	}

	for i := range employees {
		if bcrypt.CompareHashAndPassword([]byte(employees[i].PINHash), []byte(pin)) == nil {
			return &employees[i], nil
		}
	}
	return nil, ErrInvalidPIN
}

func (v *credentialVerifier) Hash(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), v.cost)
	if err != nil {
		return "", fmt.Errorf("PIN 哈希失败: %w", err)
	}
	return string(hash), nil
}

func (v *credentialVerifier) GenerateUnique(ctx context.Context) (string, string, error) {
	for attempt := 0; attempt < maxPINGenerateAttempts; attempt++ {
		pin, err := randomDigits(v.pinLength)
		if err != nil {
			return "", "", err
		}

		_, err = v.Verify(ctx, pin)
		if errors.Is(err, ErrInvalidPIN) {
			hash, err := v.Hash(pin)
			if err != nil {
				return "", "", err
			}
			return pin, hash, nil
		}
		if err != nil {
			return "", "", err
		}
		// 与现有员工重复，重新生成
	}
	return "", "", fmt.Errorf("生成唯一 PIN 失败: 已重试 %d 次", maxPINGenerateAttempts)
}

// ── 辅助函数 ──

func randomDigits(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("生成随机数失败: %w", err)
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}
