package generator

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrTimeout       = errors.New("content generator timed out")
	ErrEmptyResponse = errors.New("content generator returned an empty response")
)

// MalformedOutputError 生成结果无法解析为 JSON 对象
type MalformedOutputError struct {
	Reason string
	Raw    string
}

func (e *MalformedOutputError) Error() string {
	return "content generator returned malformed output: " + e.Reason
}

// HTTPError 后端返回非 200 状态
type HTTPError struct {
	Backend string
	Status  int
	Body    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s request failed with HTTP %d: %s", e.Backend, e.Status, e.Body)
}

// classify 将超时统一为 ErrTimeout，其余错误原样返回
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

// IsMalformed 报告 err 是否为输出格式错误
func IsMalformed(err error) bool {
	var m *MalformedOutputError
	return errors.As(err, &m)
}
