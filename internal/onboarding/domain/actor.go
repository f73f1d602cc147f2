package domain

import "fmt"

// Role 操作者角色
type Role string

const (
	RoleClient    Role = "client"
	RoleAdmin     Role = "admin"
	RoleProcessor Role = "processor"
)

// IsStaff 是否为后台人员
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleProcessor
}

// Actor 发起状态变更的主体
type Actor struct {
	Name string
	Role Role
}

// ClientActor 持有申请 ID 的客户
func ClientActor() Actor {
	return Actor{Name: "client", Role: RoleClient}
}

// Authorize 客户只能提交材料审核，后台人员可执行所有变更
func (a Actor) Authorize(track Track, target string) error {
	if a.Role.IsStaff() {
		return nil
	}
	if a.Role == RoleClient && track == TrackDocument && target == string(DocumentReviewing) {
		return nil
	}
	return fmt.Errorf("%w: role %q on %s -> %s", ErrForbidden, a.Role, track, target)
}
