package service

import (
	"go.uber.org/zap"
)

// afterCommit 收集事务提交后执行的尽力而为副作用
// 副作用失败只记录日志，不影响已提交的主变更
type afterCommit struct {
	logger *zap.Logger
	hooks  []namedHook
}

type namedHook struct {
	name string
	fn   func() error
}

func newAfterCommit(logger *zap.Logger) *afterCommit {
	return &afterCommit{logger: logger}
}

// Add 注册一个提交后执行的副作用
func (a *afterCommit) Add(name string, fn func() error) {
	a.hooks = append(a.hooks, namedHook{name: name, fn: fn})
}

// Run 顺序执行全部副作用
func (a *afterCommit) Run() {
	for _, h := range a.hooks {
		if err := h.fn(); err != nil {
			a.logger.Error("post-commit side effect failed",
				zap.String("hook", h.name),
				zap.Error(err))
		}
	}
	a.hooks = nil
}
