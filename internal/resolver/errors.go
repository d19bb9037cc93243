package resolver

import "fmt"

// MacroNameNotStringError indicates a macro_name keyword argument to
// adapter.dispatch that is not a literal string. Value carries a rendering
// of the offending argument.
type MacroNameNotStringError struct {
	Value string
}

func (e *MacroNameNotStringError) Error() string {
	return fmt.Sprintf("the macro_name parameter to adapter.dispatch must be a literal string, got %s", e.Value)
}

// MacroNamespaceNotStringError indicates a macro_namespace keyword argument
// to adapter.dispatch that is not a literal string. Kind carries the node
// kind of the offending argument.
type MacroNamespaceNotStringError struct {
	Kind string
}

func (e *MacroNamespaceNotStringError) Error() string {
	return fmt.Sprintf("the macro_namespace parameter to adapter.dispatch must be a literal string, got %s", e.Kind)
}

// ParsingError indicates an expression that is neither a well-formed
// ref(...) nor source(...) call.
type ParsingError struct {
	Expression string
}

func (e *ParsingError) Error() string {
	return fmt.Sprintf("invalid ref or source expression: %s", e.Expression)
}
