package extractor

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrEmptyInput      = errors.New("输入文本为空")
	ErrLLMOutputBroken = errors.New("LLM输出无法解析")
)

// ExtractionError 抽取失败的详细错误。实际上只有空输入会触发：
// 只要存在任何文本，抽取都以兜底策略成功返回。
type ExtractionError struct {
	Op      string // "resume" 或 "job"
	BaseErr error
	Detail  string
}

func (e *ExtractionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (阶段:%s): %s", e.BaseErr, e.Op, e.Detail)
	}
	return fmt.Sprintf("%s (阶段:%s)", e.BaseErr, e.Op)
}

func (e *ExtractionError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *ExtractionError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// 错误构造函数
func NewEmptyInputError(op string) error {
	return &ExtractionError{Op: op, BaseErr: ErrEmptyInput}
}

func NewLLMOutputError(op, detail string) error {
	return &ExtractionError{Op: op, BaseErr: ErrLLMOutputBroken, Detail: detail}
}
