package application

import (
	"github.com/wyfcoding/llcformation/internal/onboarding/domain"
	"github.com/wyfcoding/llcformation/pkg/config"
	"golang.org/x/crypto/bcrypt"
)

// 账号不存在时也做一次比较，避免通过耗时区分账号是否存在
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.MinCost)

type staffEntry struct {
	hash []byte
	role domain.Role
}

// StaffAuthenticator 校验后台账号，密码以 bcrypt 哈希保存在配置中
type StaffAuthenticator struct {
	accounts map[string]staffEntry
}

// NewStaffAuthenticator 构造函数
func NewStaffAuthenticator(accounts []config.StaffAccount) *StaffAuthenticator {
	a := &StaffAuthenticator{accounts: make(map[string]staffEntry, len(accounts))}
	for _, acc := range accounts {
		a.accounts[acc.Username] = staffEntry{hash: []byte(acc.PasswordHash), role: domain.Role(acc.Role)}
	}
	return a
}

// Authenticate 成功时返回对应的操作者
func (a *StaffAuthenticator) Authenticate(username, password string) (domain.Actor, error) {
	entry, ok := a.accounts[username]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return domain.Actor{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(entry.hash, []byte(password)); err != nil {
		return domain.Actor{}, ErrInvalidCredentials
	}
	if !entry.role.IsStaff() {
		return domain.Actor{}, ErrInvalidCredentials
	}
	return domain.Actor{Name: username, Role: entry.role}, nil
}
