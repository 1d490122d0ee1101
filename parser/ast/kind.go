// Copyright © 2024 The ELPS authors

package ast

import "fmt"

// Kind identifies the concrete type of a Node.
type Kind int

const (
	KindInvalid Kind = iota

	KindFile
	KindPackageDecl
	KindImportDecl

	// Declarations
	KindConstDecl
	KindGlobalVar
	KindFunctionDecl
	KindTransformerDecl
	KindServiceDecl
	KindResourceDecl
	KindConnectorDecl
	KindActionDecl
	KindStructDecl
	KindField
	KindAnnotationDecl
	KindAttachmentPoints
	KindAnnotationAttachment
	KindParam
	KindTypeName

	// Statements
	KindBlock
	KindVarDef
	KindAssign
	KindExprStmt
	KindIf
	KindWhile
	KindForeach
	KindTry
	KindCatch
	KindClause
	KindTransaction
	KindReturn
	KindBreak
	KindNext
	KindThrow
	KindAbort
	KindRetry

	KindPlaceholder

	// Expressions
	KindIdent
	KindLiteral
	KindCall
	KindSelector
	KindIndex
	KindUnary
	KindBinary
	KindParen
	KindArrayLit
	KindKeyValue
	KindMapLit

	numKinds
)

var kindNames = map[Kind]string{
	KindInvalid:              "Invalid",
	KindFile:                 "File",
	KindPackageDecl:          "PackageDecl",
	KindImportDecl:           "ImportDecl",
	KindConstDecl:            "ConstDecl",
	KindGlobalVar:            "GlobalVar",
	KindFunctionDecl:         "FunctionDecl",
	KindTransformerDecl:      "TransformerDecl",
	KindServiceDecl:          "ServiceDecl",
	KindResourceDecl:         "ResourceDecl",
	KindConnectorDecl:        "ConnectorDecl",
	KindActionDecl:           "ActionDecl",
	KindStructDecl:           "StructDecl",
	KindField:                "Field",
	KindAnnotationDecl:       "AnnotationDecl",
	KindAttachmentPoints:     "AttachmentPoints",
	KindAnnotationAttachment: "AnnotationAttachment",
	KindParam:                "Param",
	KindTypeName:             "TypeName",
	KindBlock:                "Block",
	KindVarDef:               "VarDef",
	KindAssign:               "Assign",
	KindExprStmt:             "ExprStmt",
	KindIf:                   "If",
	KindWhile:                "While",
	KindForeach:              "Foreach",
	KindTry:                  "Try",
	KindCatch:                "Catch",
	KindClause:               "Clause",
	KindTransaction:          "Transaction",
	KindReturn:               "Return",
	KindBreak:                "Break",
	KindNext:                 "Next",
	KindThrow:                "Throw",
	KindAbort:                "Abort",
	KindRetry:                "Retry",
	KindPlaceholder:          "Placeholder",
	KindIdent:                "Ident",
	KindLiteral:              "Literal",
	KindCall:                 "Call",
	KindSelector:             "Selector",
	KindIndex:                "Index",
	KindUnary:                "Unary",
	KindBinary:               "Binary",
	KindParen:                "Paren",
	KindArrayLit:             "ArrayLit",
	KindKeyValue:             "KeyValue",
	KindMapLit:               "MapLit",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Kinds returns every valid node kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, numKinds-1)
	for k := KindInvalid + 1; k < numKinds; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}
