package bz

// 各领域实体的唯一 ID 前缀
const (
	IDPrefixSession = "se"
	IDPrefixRun     = "ar"
)
