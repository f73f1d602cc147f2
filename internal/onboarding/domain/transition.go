package domain

import "strings"

// Track 复合状态中的一条独立状态维度
type Track string

const (
	TrackDocument Track = "document"
	TrackCompany  Track = "company"
	TrackEIN      Track = "ein"
)

// ParseTrack 解析 track 名称
func ParseTrack(s string) (Track, bool) {
	switch Track(s) {
	case TrackDocument, TrackCompany, TrackEIN:
		return Track(s), true
	}
	return "", false
}

// TransitionPayload 状态变更附带数据
type TransitionPayload struct {
	// ein -> issued 时必填
	EIN string
	// document -> rejected 时可选的驳回原因
	Reason string
}

// 每条 track 的合法边，key 为起点
var edges = map[Track]map[string][]string{
	TrackDocument: {
		string(DocumentPending):   {string(DocumentReviewing)},
		string(DocumentReviewing): {string(DocumentApproved), string(DocumentRejected)},
		string(DocumentRejected):  {string(DocumentReviewing)},
		string(DocumentApproved):  nil,
	},
	TrackCompany: {
		string(CompanyPending):     {string(CompanyRegistering)},
		string(CompanyRegistering): {string(CompanyRegistered)},
		string(CompanyRegistered):  nil,
	},
	TrackEIN: {
		string(EINPending):    {string(EINProcessing)},
		string(EINProcessing): {string(EINIssued)},
		string(EINIssued):     nil,
	},
}

// CanTransition 判断 from -> to 是否为 track 上的合法边
func CanTransition(track Track, from, to string) bool {
	for _, t := range edges[track][from] {
		if t == to {
			return true
		}
	}
	return false
}

// IsKnownState 判断 state 是否属于 track
func IsKnownState(track Track, state string) bool {
	states, ok := edges[track]
	if !ok {
		return false
	}
	_, ok = states[state]
	return ok
}

// Transition 纯函数：计算 track 变更到 target 后的复合状态。
// 检查顺序：track/状态合法性、载荷校验、同状态幂等、跨 track 前置条件、边合法性、材料齐备。
// changed 为 false 时 next 与 status 相同。
func Transition(status OnboardingStatus, docs Documents, track Track, target string, payload TransitionPayload) (next OnboardingStatus, changed bool, err error) {
	if !IsKnownState(track, target) {
		return status, false, &IllegalTransitionError{Track: track, From: status.State(track), To: target}
	}

	ein := strings.TrimSpace(payload.EIN)
	if track == TrackEIN && target == string(EINIssued) && ein == "" {
		return status, false, NewValidationError("ein", "is required when issuing an EIN")
	}

	current := status.State(track)
	if current == target {
		if track == TrackEIN && target == string(EINIssued) && ein != status.EINNumber {
			// 已签发的 EIN 不可替换
			return status, false, &IllegalTransitionError{Track: track, From: current, To: target}
		}
		return status, false, nil
	}

	switch track {
	case TrackCompany:
		if status.Document != DocumentApproved {
			return status, false, &PreconditionError{Track: track, Target: target, Reason: "documents must be approved first"}
		}
	case TrackEIN:
		if status.Company != CompanyRegistered {
			return status, false, &PreconditionError{Track: track, Target: target, Reason: "company must be registered first"}
		}
	}

	if !CanTransition(track, current, target) {
		return status, false, &IllegalTransitionError{Track: track, From: current, To: target}
	}

	if track == TrackDocument && target == string(DocumentReviewing) && !docs.Ready() {
		return status, false, &PreconditionError{Track: track, Target: target, Reason: "passport and proof of address must both be uploaded"}
	}

	next = status
	switch track {
	case TrackDocument:
		next.Document = DocumentStatus(target)
	case TrackCompany:
		next.Company = CompanyStatus(target)
	case TrackEIN:
		next.EIN = EINStatus(target)
		if next.EIN == EINIssued {
			next.EINNumber = ein
		}
	}
	return next, true, nil
}
