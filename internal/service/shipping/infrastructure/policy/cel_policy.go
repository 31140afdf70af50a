// Package policy 提供可配置的状态迁移守卫。
package policy

import (
	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"nexus-shipping/internal/service/shipping/domain"
)

// CELPolicy 用一个 CEL 布尔表达式判断状态迁移是否允许。
// 表达式可以使用 current、proposed(字符串) 和 current_terminal(布尔)，例如:
//
//	!(current == "DELIVERED" && proposed == "PENDING")
type CELPolicy struct {
	expr string
	prg  cel.Program
}

// NewCELPolicy 编译表达式，语法错误或结果不是 bool 时返回错误
func NewCELPolicy(expr string) (*CELPolicy, error) {
	env, err := cel.NewEnv(
		cel.Variable("current", cel.StringType),
		cel.Variable("proposed", cel.StringType),
		cel.Variable("current_terminal", cel.BoolType),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create cel env")
	}

	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return nil, errors.Wrapf(iss.Err(), "compile transition rule %q", expr)
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.Errorf("transition rule %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, errors.Wrap(err, "build cel program")
	}
	return &CELPolicy{expr: expr, prg: prg}, nil
}

func (p *CELPolicy) Allow(current, proposed domain.Status) (bool, error) {
	out, _, err := p.prg.Eval(map[string]any{
		"current":          current.String(),
		"proposed":         proposed.String(),
		"current_terminal": current.Terminal(),
	})
	if err != nil {
		return false, errors.Wrapf(err, "evaluate transition rule %q", p.expr)
	}
	allowed, ok := out.Value().(bool)
	if !ok {
		return false, errors.Errorf("transition rule %q returned %T", p.expr, out.Value())
	}
	return allowed, nil
}

// String 返回原始表达式
func (p *CELPolicy) String() string {
	return p.expr
}
