package grammar

import "sync"

// Terminal names of the C-minus grammar that are not spelled as their lexemes.
const (
	TerminalID  = "ID"
	TerminalNUM = "NUM"
)

// Action symbols prefixed with #SA_ call the semantic analyzer and those prefixed with #CG_ call the code generator.
const cminusGrammar = `
Program -> Declaration-list
Declaration-list -> Declaration Declaration-list | EPSILON
Declaration -> Declaration-initial Declaration-prime
Declaration-initial -> #SA_SAVE_MAIN #SA_SAVE_TYPE Type-specifier #SA_SAVE_MAIN #SA_ASSIGN_TYPE ID
Declaration-prime -> #SA_ASSIGN_FUN_ROLE Fun-declaration-prime | #SA_ASSIGN_VAR_ROLE #SA_MAIN_POP Var-declaration-prime
Var-declaration-prime -> #SA_ASSIGN_LENGTH ; | [ #SA_ASSIGN_LENGTH NUM ] ;
Fun-declaration-prime -> ( #SA_INC_SCOPE #SA_SAVE_MAIN Params #SA_ASSIGN_FUN_ATTRS ) #SA_MAIN_CHECK Compound-stmt #CG_CALC_STACKFRAME_SIZE #CG_RETURN_SEQ_CALLEE #SA_DEC_SCOPE
Type-specifier -> int | void
Params -> #SA_SAVE_TYPE #SA_SAVE_PARAM int #SA_ASSIGN_TYPE ID #SA_ASSIGN_PARAM_ROLE Param-prime Param-list | void Param-list-void-abtar
Param-list-void-abtar -> ID Param-prime Param-list | EPSILON
Param-list -> , #SA_SAVE_PARAM Param Param-list | EPSILON
Param -> Declaration-initial #SA_ASSIGN_PARAM_ROLE Param-prime
Param-prime -> #SA_ASSIGN_LENGTH [ ] | #SA_ASSIGN_LENGTH EPSILON
Compound-stmt -> { Declaration-list Statement-list }
Statement-list -> Statement Statement-list | EPSILON
Statement -> Expression-stmt | Compound-stmt | Selection-stmt | Iteration-stmt | Return-stmt | Switch-stmt
Expression-stmt -> Expression #SA_POP_TYPE #CG_CLOSE_STMT ; | #SA_CHECK_WHILE #CG_CONT_JP continue ; | #SA_CHECK_BREAK #CG_BREAK_JP_SAVE break ; | ;
Selection-stmt -> if ( Expression ) #SA_POP_TYPE #CG_SAVE Statement else #CG_ELSE Statement #CG_IF_ELSE
Iteration-stmt -> #SA_PUSH_WHILE while #CG_LABEL #CG_INIT_WHILE_STACKS ( Expression ) #SA_POP_TYPE #CG_SAVE Statement #CG_WHILE #SA_POP_WHILE
Return-stmt -> return Return-stmt-prime #CG_SET_RETVAL #CG_RETURN_SEQ_CALLEE
Return-stmt-prime -> #CG_PUSH_VOID ; | Expression #SA_POP_TYPE ;
Switch-stmt -> #SA_PUSH_SWITCH switch ( Expression #SA_POP_TYPE #CG_CLOSE_STMT ) { Case-stmts Default-stmt } #SA_POP_SWITCH
Case-stmts -> Case-stmt Case-stmts | EPSILON
Case-stmt -> case NUM : Statement-list
Default-stmt -> default : Statement-list | EPSILON
Expression -> Simple-expression-zegond | #SA_CHECK_DECL #SA_SAVE_FUN #SA_SAVE_TYPE_CHECK #CG_PUSH_ID ID B
B -> = Expression #SA_TYPE_CHECK #CG_ASSIGN | #SA_INDEX_ARRAY [ Expression ] #SA_INDEX_ARRAY_POP #CG_INDEX_ARRAY H | Simple-expression-prime
H -> = Expression #SA_TYPE_CHECK #CG_ASSIGN | G D C
Simple-expression-zegond -> Additive-expression-zegond C
Simple-expression-prime -> Additive-expression-prime C
C -> #CG_SAVE_OP Relop Additive-expression #SA_TYPE_CHECK #CG_RELOP | EPSILON
Relop -> < | ==
Additive-expression -> Term D
Additive-expression-prime -> Term-prime D
Additive-expression-zegond -> Term-zegond D
D -> #CG_SAVE_OP Addop Term #SA_TYPE_CHECK #CG_ADDOP D | EPSILON
Addop -> + | -
Term -> Factor G
Term-prime -> Factor-prime G
Term-zegond -> Factor-zegond G
G -> * Factor #SA_TYPE_CHECK #CG_MULT G | EPSILON
Factor -> ( Expression ) | #SA_CHECK_DECL #SA_SAVE_FUN #SA_SAVE_TYPE_CHECK #CG_PUSH_ID ID Var-call-prime | #SA_SAVE_TYPE_CHECK #CG_PUSH_CONST NUM
Var-call-prime -> #SA_PUSH_ARG_STACK ( Args #SA_CHECK_ARGS ) #CG_CALL_SEQ_CALLER #SA_POP_ARG_STACK | Var-prime
Var-prime -> #SA_INDEX_ARRAY [ Expression ] #SA_INDEX_ARRAY_POP #CG_INDEX_ARRAY | EPSILON
Factor-prime -> #SA_PUSH_ARG_STACK ( Args #SA_CHECK_ARGS ) #CG_CALL_SEQ_CALLER #SA_POP_ARG_STACK | EPSILON
Factor-zegond -> ( Expression ) | #SA_SAVE_TYPE_CHECK #CG_PUSH_CONST NUM
Args -> Arg-list | EPSILON
Arg-list -> Expression #SA_SAVE_ARG Arg-list-prime
Arg-list-prime -> , Expression #SA_SAVE_ARG Arg-list-prime | EPSILON
`

// cminusFillers are the constructs reported as missing when the parser gives a non-terminal up.
var cminusFillers = map[string]string{
	"Program":                    "int ID;",
	"Declaration-list":           "int ID;",
	"Declaration":                "int ID;",
	"Declaration-initial":        "int ID",
	"Declaration-prime":          ";",
	"Var-declaration-prime":      ";",
	"Fun-declaration-prime":      "(void) {int ID;}",
	"Type-specifier":             "int",
	"Params":                     "void",
	"Param-list-void-abtar":      "ID",
	"Param-list":                 ", int ID",
	"Param":                      "int ID",
	"Param-prime":                "[]",
	"Compound-stmt":              "{int ID;}",
	"Statement-list":             ";",
	"Statement":                  ";",
	"Expression-stmt":            ";",
	"Selection-stmt":             "if (NUM); else;",
	"Iteration-stmt":             "while (NUM);",
	"Return-stmt":                "return;",
	"Return-stmt-prime":          ";",
	"Switch-stmt":                "switch (NUM) {}",
	"Case-stmts":                 "case NUM",
	"Case-stmt":                  "case NUM",
	"Default-stmt":               "default: ;",
	"Expression":                 "NUM",
	"B":                          "NUM",
	"H":                          "NUM",
	"Simple-expression-zegond":   "NUM",
	"Simple-expression-prime":    "()",
	"C":                          "< NUM",
	"Relop":                      "<",
	"Additive-expression":        "NUM",
	"Additive-expression-prime":  "()",
	"Additive-expression-zegond": "NUM",
	"D":                          "+ NUM",
	"Addop":                      "+",
	"Term":                       "NUM",
	"Term-prime":                 "()",
	"Term-zegond":                "NUM",
	"G":                          "* NUM",
	"Factor":                     "NUM",
	"Var-call-prime":             "()",
	"Var-prime":                  "[NUM]",
	"Factor-prime":               "()",
	"Factor-zegond":              "NUM",
	"Args":                       "NUM",
	"Arg-list":                   "NUM",
	"Arg-list-prime":             ", NUM",
}

// NewCMinusGrammar returns the C-minus grammar with its translation actions.
func NewCMinusGrammar() (*Grammar, error) {
	return NewGrammar("cminus", cminusGrammar, cminusFillers)
}

var (
	cminusOnce     sync.Once
	cminusCompiled *CompiledGrammar
	cminusErr      error
)

// CMinus returns the compiled C-minus grammar. The grammar is compiled once and shared; callers must not modify it.
func CMinus() (*CompiledGrammar, error) {
	cminusOnce.Do(func() {
		var g *Grammar
		g, cminusErr = NewCMinusGrammar()
		if cminusErr != nil {
			return
		}
		cminusCompiled, cminusErr = Compile(g)
	})
	return cminusCompiled, cminusErr
}
