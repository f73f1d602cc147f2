package domain

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
)

// Crockford base32，去掉 I L O U，便于口头转述
const trackingAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const trackingGroupLen = 5

// TrackingIDGenerator 追踪号生成器，只负责生成，不负责登记
type TrackingIDGenerator interface {
	Generate() (string, error)
}

// RandomTrackingIDGenerator 形如 LLC-7K2QX-M9D4R 的随机追踪号
type RandomTrackingIDGenerator struct {
	prefix string
	rand   io.Reader
}

// NewTrackingIDGenerator 创建随机追踪号生成器
func NewTrackingIDGenerator(prefix string) *RandomTrackingIDGenerator {
	if prefix == "" {
		prefix = "LLC"
	}
	return &RandomTrackingIDGenerator{prefix: strings.ToUpper(prefix), rand: rand.Reader}
}

// Generate 实现 TrackingIDGenerator
func (g *RandomTrackingIDGenerator) Generate() (string, error) {
	buf := make([]byte, trackingGroupLen*2)
	if _, err := io.ReadFull(g.rand, buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = trackingAlphabet[b&31]
	}
	return fmt.Sprintf("%s-%s-%s", g.prefix, buf[:trackingGroupLen], buf[trackingGroupLen:]), nil
}

// NormalizeTrackingID 客户手工输入的追踪号统一为大写
func NormalizeTrackingID(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
