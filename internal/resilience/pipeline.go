// Package resilience 转账链路上的横切保护：幂等、限流、熔断、乐观锁重试
//
// 每一层都是 Layer，由 Chain 按固定顺序组合，第一个参数在最外层。
// 所有状态都属于进程级单例，随进程创建，重启后清空。
package resilience

import "context"

// Task 一次受保护的调用
type Task func(ctx context.Context) error

// Layer 包装 Task，返回新的 Task
type Layer func(next Task) Task

// Chain 组合多个 Layer：Chain(a, b, c)(task) 等价于 a(b(c(task)))
func Chain(layers ...Layer) Layer {
	return func(next Task) Task {
		for i := len(layers) - 1; i >= 0; i-- {
			next = layers[i](next)
		}
		return next
	}
}
