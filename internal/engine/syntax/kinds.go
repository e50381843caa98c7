package syntax

// Node kinds produced by the tree-sitter PHP grammar.
const (
	KindProgram             = "program"
	KindPHPTag              = "php_tag"
	KindComment             = "comment"
	KindExpressionStatement = "expression_statement"
	KindReturn              = "return_statement"
	KindIf                  = "if_statement"
	KindElse                = "else_clause"
	KindElseIf              = "else_if_clause"
	KindBlock               = "compound_statement"
	KindTernary             = "conditional_expression"
	KindAssignment          = "assignment_expression"
	KindReferenceAssignment = "reference_assignment_expression"
	KindAugmentedAssignment = "augmented_assignment_expression"
	KindSubscript           = "subscript_expression"
	KindFunctionCall        = "function_call_expression"
	KindArgument            = "argument"
	KindBinary              = "binary_expression"
	KindUnary               = "unary_op_expression"
	KindParenthesized       = "parenthesized_expression"
	KindNull                = "null"
	KindBoolean             = "boolean"
	KindName                = "name"
	KindQualifiedName       = "qualified_name"
)
