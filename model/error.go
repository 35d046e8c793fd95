// Package model は、アプリケーションのデータモデル定義を提供します。
package model

import (
	"errors"
	"fmt"
)

// センチネルエラー - リソースが見つからない場合
var (
	ErrProjectNotFound = errors.New("project not found")
	ErrTaskNotFound    = errors.New("task not found")
)

// ValidationError はバリデーションエラーを表す型
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError はValidationErrorを生成するヘルパー関数
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// NewValidationErrorf はフォーマット文字列からValidationErrorを生成します。
func NewValidationErrorf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// RuleViolation は整合性ルールに違反した操作を表す型
type RuleViolation struct {
	Rule    string // ルール名
	Message string // 利用者向けメッセージ
}

func (e *RuleViolation) Error() string {
	return e.Message
}

// NewRuleViolation はRuleViolationを生成するヘルパー関数
func NewRuleViolation(rule, msg string) error {
	return &RuleViolation{Rule: rule, Message: msg}
}
