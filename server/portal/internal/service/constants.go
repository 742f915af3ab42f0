package service

// 通用常量
const (
	// 分页相关常量
	DefaultPage = 1
	DefaultSize = 10
	MaxSize     = 100
)
