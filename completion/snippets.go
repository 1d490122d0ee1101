// Copyright © 2024 The ELPS authors

package completion

type snippet struct {
	label  string
	detail string
	text   string
}

var (
	snippetAbort       = snippet{"abort", "abort statement", "abort;"}
	snippetAction      = snippet{"action", "connector action", "action ${1:name} (${2}) (${3}) {\n\t${4}\n}"}
	snippetAnnotation  = snippet{"annotation", "annotation definition", "annotation ${1:name} {\n\t${2}\n}"}
	snippetBreak       = snippet{"break", "break statement", "break;"}
	snippetConnector   = snippet{"connector", "connector definition", "connector ${1:name} (${2}) {\n\t${3}\n}"}
	snippetConst       = snippet{"const", "constant definition", "const ${1:int} ${2:NAME} = ${3};"}
	snippetForeach     = snippet{"foreach", "foreach statement", "foreach ${1:item} in ${2:items} {\n\t${3}\n}"}
	snippetFunction    = snippet{"function", "function definition", "function ${1:name} (${2}) {\n\t${3}\n}"}
	snippetIf          = snippet{"if", "if statement", "if (${1:true}) {\n\t${2}\n}"}
	snippetImport      = snippet{"import", "import declaration", "import ${1:ballerina.io};"}
	snippetNext        = snippet{"next", "next statement", "next;"}
	snippetResource    = snippet{"resource", "service resource", "resource ${1:name} (http:Request req, http:Response res) {\n\t${2}\n}"}
	snippetRetry       = snippet{"retry", "retry statement", "retry ${1};"}
	snippetReturn      = snippet{"return", "return statement", "return;"}
	snippetService     = snippet{"service", "service definition", "service<${1:http}> ${2:name} {\n\tresource ${3:resourceName} (http:Request req, http:Response res) {\n\t}\n}"}
	snippetStruct      = snippet{"struct", "struct definition", "struct ${1:name} {\n\t${2}\n}"}
	snippetThrow       = snippet{"throw", "throw statement", "throw ${1:err};"}
	snippetTransaction = snippet{"transaction", "transaction statement", "transaction {\n\t${1}\n} failed {\n\t${2}\n} aborted {\n\t${3}\n} committed {\n\t${4}\n}"}
	snippetTransformer = snippet{"transformer", "transformer definition", "transformer<${1:Source} ${2:a}, ${3:Target} ${4:b}> {\n\t${5}\n}"}
	snippetTry         = snippet{"try", "try-catch statement", "try {\n\t${1}\n} catch (${2:error} ${3:err}) {\n\t${4}\n}"}
	snippetWhile       = snippet{"while", "while statement", "while (${1:true}) {\n\t${2}\n}"}
)

var topLevelSnippets = []snippet{
	snippetImport,
	snippetConst,
	snippetFunction,
	snippetService,
	snippetConnector,
	snippetStruct,
	snippetAnnotation,
	snippetTransformer,
}

var statementSnippets = []snippet{
	snippetIf,
	snippetWhile,
	snippetForeach,
	snippetTry,
	snippetTransaction,
	snippetReturn,
	snippetThrow,
}

var loopSnippets = []snippet{snippetBreak, snippetNext}

var transactionSnippets = []snippet{snippetAbort, snippetRetry}

// attachmentPoints are the constructs an annotation may attach to.
var attachmentPoints = []string{
	"action",
	"annotation",
	"connector",
	"const",
	"function",
	"resource",
	"service",
	"struct",
}
